package domain

import "time"

// Unit is one monitored room with a single simulated controllable load.
// The catalog is fixed by configuration and immutable for the process
// lifetime.
type Unit struct {
	ID      string `json:"unit_id"`
	FloorID string `json:"floor_id"`
	Name    string `json:"name"`
}

// Sample is one synthesized electrical reading. Samples are immutable once
// generated.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	UnitID    string    `json:"unit_id"`
	FloorID   string    `json:"floor_id"`
	UnitName  string    `json:"unit_name"`
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	PowerKW   float64   `json:"power_kw"`
	EnergyKWh float64   `json:"energy_kwh"`
	Active    bool      `json:"active"`
}

// Dataset is the full synthesized series for every configured unit,
// concatenated in catalog order. Invariant: for each unit the timestamps
// are exactly the regular grid over the horizon, ascending, with no gaps
// or duplicates. Read-only after construction.
type Dataset struct {
	Fingerprint string
	BuiltAt     time.Time
	Samples     []Sample
}
