package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fub-iot/bems/internal/schedule"
	"github.com/fub-iot/bems/internal/telemetry/domain"
	"github.com/spf13/viper"
)

const horizonLayout = "2006-01-02 15:04"

// RoomConfig is one monitored room inside a floor.
type RoomConfig struct {
	ID   string `mapstructure:"id" json:"id"`
	Name string `mapstructure:"name" json:"name"`
}

// FloorConfig groups rooms under one floor.
type FloorConfig struct {
	ID    string       `mapstructure:"id" json:"id"`
	Rooms []RoomConfig `mapstructure:"rooms" json:"rooms"`
}

// WindowConfig is one operating window in "HH:MM" clock values, inclusive
// on both ends.
type WindowConfig struct {
	From string `mapstructure:"from" json:"from"`
	To   string `mapstructure:"to" json:"to"`
}

// ScheduleConfig is the weekly recurring operating schedule.
type ScheduleConfig struct {
	Weekdays []string       `mapstructure:"weekdays" json:"weekdays"`
	Windows  []WindowConfig `mapstructure:"windows" json:"windows"`
}

// BuildingSpec is the raw building configuration as read from building.yml.
type BuildingSpec struct {
	HorizonStart string         `mapstructure:"horizon_start" json:"horizon_start"`
	HorizonEnd   string         `mapstructure:"horizon_end" json:"horizon_end"`
	StepMinutes  int            `mapstructure:"step_minutes" json:"step_minutes"`
	TariffPerKWh float64        `mapstructure:"tariff_per_kwh" json:"tariff_per_kwh"`
	CO2KgPerKWh  float64        `mapstructure:"co2_kg_per_kwh" json:"co2_kg_per_kwh"`
	SavingsRatio float64        `mapstructure:"savings_ratio" json:"savings_ratio"`
	Floors       []FloorConfig  `mapstructure:"floors" json:"floors"`
	Schedule     ScheduleConfig `mapstructure:"schedule" json:"schedule"`
}

// DefaultBuildingSpec mirrors the demo building: nine rooms over three
// floors, two-week horizon at 15-minute resolution, class-hour schedule
// on weekdays.
func DefaultBuildingSpec() BuildingSpec {
	return BuildingSpec{
		HorizonStart: "2025-11-01 00:00",
		HorizonEnd:   "2025-11-15 23:45",
		StepMinutes:  15,
		TariffPerKWh: 8.0,
		CO2KgPerKWh:  0.6,
		SavingsRatio: 0.20,
		Floors: []FloorConfig{
			{ID: "Floor 1", Rooms: []RoomConfig{
				{ID: "F1-101", Name: "Computer Lab 1"},
				{ID: "F1-102", Name: "Computer Lab 2"},
				{ID: "F1-103", Name: "Faculty Room 1"},
			}},
			{ID: "Floor 2", Rooms: []RoomConfig{
				{ID: "F2-201", Name: "Classroom 201"},
				{ID: "F2-202", Name: "Classroom 202"},
				{ID: "F2-203", Name: "Seminar Room"},
			}},
			{ID: "Floor 3", Rooms: []RoomConfig{
				{ID: "F3-301", Name: "Classroom 301"},
				{ID: "F3-302", Name: "Classroom 302"},
				{ID: "F3-303", Name: "Conference Room"},
			}},
		},
		Schedule: ScheduleConfig{
			Weekdays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			Windows: []WindowConfig{
				{From: "09:00", To: "12:00"},
				{From: "13:00", To: "17:00"},
			},
		},
	}
}

// Building is the validated, resolved building configuration. Read at
// startup and never mutated; its fingerprint keys the dataset cache epoch.
type Building struct {
	Spec BuildingSpec

	HorizonStart time.Time
	HorizonEnd   time.Time
	Step         time.Duration
	TariffPerKWh float64
	CO2KgPerKWh  float64
	SavingsRatio float64
	Units        []domain.Unit
	Schedule     schedule.Weekly

	fingerprint string
}

// NewBuildingConfig reads building.yml (falling back to the built-in demo
// building) and validates it eagerly. All validation failures wrap
// domain.ErrInvalidConfiguration.
func NewBuildingConfig(cfg Config) (*Building, error) {
	v := viper.New()
	v.SetConfigName("building")
	v.SetConfigType("yml")
	if cfg.BuildingConfigPath != "" {
		v.AddConfigPath(cfg.BuildingConfigPath)
	}
	v.AddConfigPath("/etc/bems")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BEMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBuildingSpec()
	v.SetDefault("building.horizon_start", defaults.HorizonStart)
	v.SetDefault("building.horizon_end", defaults.HorizonEnd)
	v.SetDefault("building.step_minutes", defaults.StepMinutes)
	v.SetDefault("building.tariff_per_kwh", defaults.TariffPerKWh)
	v.SetDefault("building.co2_kg_per_kwh", defaults.CO2KgPerKWh)
	v.SetDefault("building.savings_ratio", defaults.SavingsRatio)
	v.SetDefault("building.floors", defaults.Floors)
	v.SetDefault("building.schedule", defaults.Schedule)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var spec BuildingSpec
	if err := v.UnmarshalKey("building", &spec); err != nil {
		return nil, err
	}

	return ResolveBuilding(spec)
}

// ResolveBuilding validates a raw spec and resolves it into a Building.
func ResolveBuilding(spec BuildingSpec) (*Building, error) {
	start, err := time.Parse(horizonLayout, strings.TrimSpace(spec.HorizonStart))
	if err != nil {
		return nil, fmt.Errorf("%w: horizon_start: %v", domain.ErrInvalidConfiguration, err)
	}
	end, err := time.Parse(horizonLayout, strings.TrimSpace(spec.HorizonEnd))
	if err != nil {
		return nil, fmt.Errorf("%w: horizon_end: %v", domain.ErrInvalidConfiguration, err)
	}
	if spec.StepMinutes <= 0 {
		return nil, fmt.Errorf("%w: step_minutes must be positive, got %d", domain.ErrInvalidConfiguration, spec.StepMinutes)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: horizon ends before it starts", domain.ErrInvalidConfiguration)
	}
	step := time.Duration(spec.StepMinutes) * time.Minute
	if end.Sub(start)%step != 0 {
		return nil, fmt.Errorf("%w: horizon is not aligned to the %dm step grid", domain.ErrInvalidConfiguration, spec.StepMinutes)
	}
	if spec.TariffPerKWh <= 0 {
		return nil, fmt.Errorf("%w: tariff_per_kwh must be positive", domain.ErrInvalidConfiguration)
	}
	if spec.CO2KgPerKWh <= 0 {
		return nil, fmt.Errorf("%w: co2_kg_per_kwh must be positive", domain.ErrInvalidConfiguration)
	}
	if spec.SavingsRatio < 0 || spec.SavingsRatio >= 1 {
		return nil, fmt.Errorf("%w: savings_ratio must be in [0, 1)", domain.ErrInvalidConfiguration)
	}

	units, err := resolveUnits(spec.Floors)
	if err != nil {
		return nil, err
	}

	weekly, err := resolveSchedule(spec.Schedule)
	if err != nil {
		return nil, err
	}

	b := &Building{
		Spec:         spec,
		HorizonStart: start,
		HorizonEnd:   end,
		Step:         step,
		TariffPerKWh: spec.TariffPerKWh,
		CO2KgPerKWh:  spec.CO2KgPerKWh,
		SavingsRatio: spec.SavingsRatio,
		Units:        units,
		Schedule:     weekly,
	}
	b.fingerprint = fingerprint(spec)
	return b, nil
}

// StepMinutes returns the sampling cadence in minutes.
func (b *Building) StepMinutes() int {
	return int(b.Step / time.Minute)
}

// SampleCount is the total grid size: points per unit times units. Both
// horizon endpoints are on the grid.
func (b *Building) SampleCount() int {
	perUnit := int(b.HorizonEnd.Sub(b.HorizonStart)/b.Step) + 1
	return perUnit * len(b.Units)
}

// Fingerprint identifies the cache epoch: datasets built from configs with
// equal fingerprints are interchangeable.
func (b *Building) Fingerprint() string {
	return b.fingerprint
}

// UnitByID looks up a configured room.
func (b *Building) UnitByID(id string) (domain.Unit, bool) {
	for _, u := range b.Units {
		if u.ID == id {
			return u, true
		}
	}
	return domain.Unit{}, false
}

func resolveUnits(floors []FloorConfig) ([]domain.Unit, error) {
	if len(floors) == 0 {
		return nil, fmt.Errorf("%w: unit catalog is empty", domain.ErrInvalidConfiguration)
	}
	seen := map[string]struct{}{}
	var units []domain.Unit
	for _, f := range floors {
		if strings.TrimSpace(f.ID) == "" {
			return nil, fmt.Errorf("%w: floor with empty id", domain.ErrInvalidConfiguration)
		}
		if len(f.Rooms) == 0 {
			return nil, fmt.Errorf("%w: floor %q has no rooms", domain.ErrInvalidConfiguration, f.ID)
		}
		for _, r := range f.Rooms {
			id := strings.TrimSpace(r.ID)
			if id == "" {
				return nil, fmt.Errorf("%w: room with empty id on floor %q", domain.ErrInvalidConfiguration, f.ID)
			}
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("%w: duplicate room id %q", domain.ErrInvalidConfiguration, id)
			}
			seen[id] = struct{}{}
			units = append(units, domain.Unit{ID: id, FloorID: f.ID, Name: strings.TrimSpace(r.Name)})
		}
	}
	return units, nil
}

func resolveSchedule(spec ScheduleConfig) (schedule.Weekly, error) {
	weekdays := make([]time.Weekday, 0, len(spec.Weekdays))
	for _, name := range spec.Weekdays {
		day, err := parseWeekday(name)
		if err != nil {
			return schedule.Weekly{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
		}
		weekdays = append(weekdays, day)
	}

	windows := make([]schedule.Window, 0, len(spec.Windows))
	for _, w := range spec.Windows {
		from, err := schedule.ParseTimeOfDay(w.From)
		if err != nil {
			return schedule.Weekly{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
		}
		to, err := schedule.ParseTimeOfDay(w.To)
		if err != nil {
			return schedule.Weekly{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
		}
		windows = append(windows, schedule.Window{Start: from, End: to})
	}

	weekly, err := schedule.NewWeekly(weekdays, windows)
	if err != nil {
		return schedule.Weekly{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return weekly, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
}

func fingerprint(spec BuildingSpec) string {
	// json.Marshal of the spec is canonical enough: field order is fixed
	// by the struct definition.
	raw, err := json.Marshal(spec)
	if err != nil {
		return "unfingerprinted"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
