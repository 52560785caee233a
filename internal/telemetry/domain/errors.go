package domain

import "errors"

var (
	// ErrInvalidConfiguration covers malformed horizon or factors: end
	// before start, non-positive step, horizon not aligned to the step
	// grid, empty unit catalog, non-positive tariff or emissions factor.
	// Raised eagerly at build or query setup, never mid-computation.
	ErrInvalidConfiguration = errors.New("invalid_configuration")

	// ErrInvalidRange is a caller error: a filter or query range whose
	// end precedes its start.
	ErrInvalidRange = errors.New("invalid_range")

	// ErrUnknownUnit is returned for a unit filter naming no configured
	// room.
	ErrUnknownUnit = errors.New("unknown_unit")

	// ErrInvalidGranularity is returned for an unsupported grouping
	// dimension.
	ErrInvalidGranularity = errors.New("invalid_granularity")
)
