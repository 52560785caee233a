package synth

import (
	"testing"
	"time"

	"github.com/fub-iot/bems/internal/schedule"
	"github.com/fub-iot/bems/internal/telemetry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUnit = domain.Unit{ID: "F1-101", FloorID: "Floor 1", Name: "Computer Lab 1"}

func classHours(t *testing.T) schedule.Weekly {
	t.Helper()
	s, err := schedule.NewWeekly(
		[]time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		[]schedule.Window{{Start: 9 * 60, End: 12 * 60}, {Start: 13 * 60, End: 17 * 60}},
	)
	require.NoError(t, err)
	return s
}

func TestSynthesize_GridLength(t *testing.T) {
	sched := classHours(t)
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 15, 23, 45, 0, 0, time.UTC)

	samples, err := Synthesize(sched, Params{
		Unit:         testUnit,
		HorizonStart: start,
		HorizonEnd:   end,
		StepMinutes:  15,
		Seed:         1,
	})
	require.NoError(t, err)

	want := int(end.Sub(start)/(15*time.Minute)) + 1
	assert.Len(t, samples, want)
	assert.Equal(t, start, samples[0].Timestamp)
	assert.Equal(t, end, samples[len(samples)-1].Timestamp)

	for i := 1; i < len(samples); i++ {
		assert.Equal(t, 15*time.Minute, samples[i].Timestamp.Sub(samples[i-1].Timestamp))
	}
}

func TestSynthesize_PowerNeverNegative(t *testing.T) {
	sched := classHours(t)
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC)

	for seed := int64(0); seed < 25; seed++ {
		samples, err := Synthesize(sched, Params{
			Unit:         testUnit,
			HorizonStart: start,
			HorizonEnd:   end,
			StepMinutes:  15,
			Seed:         seed,
		})
		require.NoError(t, err)
		for _, s := range samples {
			assert.GreaterOrEqual(t, s.PowerKW, 0.0)
		}
	}
}

func TestSynthesize_EnergyMatchesPower(t *testing.T) {
	sched := classHours(t)
	start := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)

	samples, err := Synthesize(sched, Params{
		Unit:         testUnit,
		HorizonStart: start,
		HorizonEnd:   end,
		StepMinutes:  15,
		Seed:         7,
	})
	require.NoError(t, err)

	var energySum, powerSum float64
	for _, s := range samples {
		energySum += s.EnergyKWh
		powerSum += s.PowerKW
	}
	assert.InDelta(t, powerSum*0.25, energySum, 1e-9)
}

func TestSynthesize_DeterministicForSeed(t *testing.T) {
	sched := classHours(t)
	start := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC)
	p := Params{Unit: testUnit, HorizonStart: start, HorizonEnd: end, StepMinutes: 15, Seed: 42}

	first, err := Synthesize(sched, p)
	require.NoError(t, err)
	second, err := Synthesize(sched, p)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	p.Seed = 43
	other, err := Synthesize(sched, p)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestSynthesize_SinglePointHorizon(t *testing.T) {
	sched := classHours(t)
	// 2025-11-01 00:00 is a Saturday midnight: outside every window.
	at := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	samples, err := Synthesize(sched, Params{
		Unit:         testUnit,
		HorizonStart: at,
		HorizonEnd:   at,
		StepMinutes:  15,
		Seed:         3,
	})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, at, samples[0].Timestamp)
	assert.False(t, samples[0].Active)
	// Standby draw sits far below the active baseline.
	assert.Less(t, samples[0].Current, 1.0)
}

func TestSynthesize_StateShapesDraws(t *testing.T) {
	sched := classHours(t)
	start := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2025, 11, 3, 23, 45, 0, 0, time.UTC)

	samples, err := Synthesize(sched, Params{
		Unit:         testUnit,
		HorizonStart: start,
		HorizonEnd:   end,
		StepMinutes:  15,
		Seed:         11,
	})
	require.NoError(t, err)

	var activeSum, activeN, idleSum, idleN float64
	for _, s := range samples {
		if s.Active {
			activeSum += s.Current
			activeN++
		} else {
			idleSum += s.Current
			idleN++
		}
	}
	require.NotZero(t, activeN)
	require.NotZero(t, idleN)
	assert.Greater(t, activeSum/activeN, 5.0, "active draw tracks the unit baseline")
	assert.Less(t, idleSum/idleN, 1.0, "standby draw is a trickle")
}

func TestSynthesize_InvalidParams(t *testing.T) {
	sched := classHours(t)
	at := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	_, err := Synthesize(sched, Params{Unit: testUnit, HorizonStart: at, HorizonEnd: at, StepMinutes: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = Synthesize(sched, Params{Unit: testUnit, HorizonStart: at, HorizonEnd: at.Add(-time.Hour), StepMinutes: 15})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = Synthesize(sched, Params{Unit: testUnit, HorizonStart: at, HorizonEnd: at.Add(20 * time.Minute), StepMinutes: 15})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSeedFor_StableAndDistinct(t *testing.T) {
	assert.Equal(t, SeedFor("abc", "F1-101"), SeedFor("abc", "F1-101"))
	assert.NotEqual(t, SeedFor("abc", "F1-101"), SeedFor("abc", "F1-102"))
	assert.NotEqual(t, SeedFor("abc", "F1-101"), SeedFor("abd", "F1-101"))
}
