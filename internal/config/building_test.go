package config

import (
	"testing"
	"time"

	"github.com/fub-iot/bems/internal/telemetry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBuilding_Defaults(t *testing.T) {
	b, err := ResolveBuilding(DefaultBuildingSpec())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), b.HorizonStart)
	assert.Equal(t, time.Date(2025, 11, 15, 23, 45, 0, 0, time.UTC), b.HorizonEnd)
	assert.Equal(t, 15, b.StepMinutes())
	assert.Equal(t, 8.0, b.TariffPerKWh)
	assert.Equal(t, 0.6, b.CO2KgPerKWh)
	assert.Len(t, b.Units, 9)
	assert.NotEmpty(t, b.Fingerprint())

	u, ok := b.UnitByID("F2-202")
	require.True(t, ok)
	assert.Equal(t, "Floor 2", u.FloorID)
	assert.Equal(t, "Classroom 202", u.Name)

	_, ok = b.UnitByID("F9-999")
	assert.False(t, ok)
}

func TestResolveBuilding_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*BuildingSpec)
	}{
		{"end before start", func(s *BuildingSpec) {
			s.HorizonStart = "2025-11-15 00:00"
			s.HorizonEnd = "2025-11-01 00:00"
		}},
		{"zero step", func(s *BuildingSpec) { s.StepMinutes = 0 }},
		{"negative step", func(s *BuildingSpec) { s.StepMinutes = -15 }},
		{"misaligned horizon", func(s *BuildingSpec) { s.HorizonEnd = "2025-11-15 23:50" }},
		{"empty catalog", func(s *BuildingSpec) { s.Floors = nil }},
		{"floor without rooms", func(s *BuildingSpec) { s.Floors[0].Rooms = nil }},
		{"duplicate room id", func(s *BuildingSpec) { s.Floors[1].Rooms[0].ID = "F1-101" }},
		{"non-positive tariff", func(s *BuildingSpec) { s.TariffPerKWh = 0 }},
		{"non-positive co2 factor", func(s *BuildingSpec) { s.CO2KgPerKWh = -0.6 }},
		{"savings ratio out of range", func(s *BuildingSpec) { s.SavingsRatio = 1.0 }},
		{"bad weekday", func(s *BuildingSpec) { s.Schedule.Weekdays = []string{"humpday"} }},
		{"bad window clock", func(s *BuildingSpec) { s.Schedule.Windows[0].From = "9am" }},
		{"no weekdays", func(s *BuildingSpec) { s.Schedule.Weekdays = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := DefaultBuildingSpec()
			tc.mutate(&spec)
			_, err := ResolveBuilding(spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}

func TestFingerprint_TracksConfigChanges(t *testing.T) {
	base, err := ResolveBuilding(DefaultBuildingSpec())
	require.NoError(t, err)

	same, err := ResolveBuilding(DefaultBuildingSpec())
	require.NoError(t, err)
	assert.Equal(t, base.Fingerprint(), same.Fingerprint())

	spec := DefaultBuildingSpec()
	spec.TariffPerKWh = 9.5
	changed, err := ResolveBuilding(spec)
	require.NoError(t, err)
	assert.NotEqual(t, base.Fingerprint(), changed.Fingerprint())
}
