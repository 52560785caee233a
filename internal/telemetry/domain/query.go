package domain

import "time"

type Granularity string

const (
	GranularityBuilding Granularity = "building"
	GranularityFloor    Granularity = "floor"
	GranularityRoom     Granularity = "room"
)

// Valid reports whether g is one of the supported grouping dimensions.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityBuilding, GranularityFloor, GranularityRoom:
		return true
	}
	return false
}

// QueryRequest selects a closed time range and a grouping dimension.
// UnitID optionally narrows the selection to a single room.
type QueryRequest struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
	UnitID      string
}

// Totals are the derived metrics over the selected sub-range.
type Totals struct {
	EnergyKWh        float64 `json:"energy_kwh"`
	Cost             float64 `json:"cost"`
	CO2Kg            float64 `json:"co2_kg"`
	EstimatedSavings float64 `json:"estimated_savings"`
}

// AggregateRow is one grouped rollup row. Recomputed per query, never
// persisted.
type AggregateRow struct {
	Key         string  `json:"key"`
	FloorID     string  `json:"floor_id,omitempty"`
	UnitID      string  `json:"unit_id,omitempty"`
	UnitName    string  `json:"unit_name,omitempty"`
	EnergyKWh   float64 `json:"energy_kwh"`
	Cost        float64 `json:"cost"`
	CO2Kg       float64 `json:"co2_kg"`
	LastPowerKW float64 `json:"last_power_kw"`
}

// DailyEnergy is the energy total for one calendar date.
type DailyEnergy struct {
	Date      string  `json:"date"`
	EnergyKWh float64 `json:"energy_kwh"`
}

// SeriesPoint is the building (or selection) power summed at one grid
// instant, for load-profile charts.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	PowerKW   float64   `json:"power_kw"`
}

// QueryResponse carries everything the presentation layer renders for one
// selection. HasData is false for a valid query whose range holds no
// samples; that is a normal outcome, not an error.
type QueryResponse struct {
	Totals  Totals         `json:"totals"`
	Rows    []AggregateRow `json:"rows"`
	Daily   []DailyEnergy  `json:"daily"`
	Series  []SeriesPoint  `json:"series"`
	Latest  *Sample        `json:"latest,omitempty"`
	HasData bool           `json:"has_data"`
}
