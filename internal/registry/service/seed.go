package service

import (
	"context"

	registrydomain "github.com/fub-iot/bems/internal/registry/domain"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Migrate creates the devices table.
func (s *Service) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&registrydomain.Device{})
}

// Seed registers one default energy meter per catalog room. Rooms that
// already carry devices are left alone, so a re-run is harmless.
func (s *Service) Seed(ctx context.Context) error {
	now := s.clock.Now()
	seeded := 0
	for _, unit := range s.building.Units {
		existing, err := s.repo.List(ctx, s.db, unit.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}

		d := &registrydomain.Device{
			ID:        s.genID.Generate(),
			RoomID:    unit.ID,
			FloorID:   unit.FloorID,
			Code:      slug.Make(unit.Name + " meter"),
			Name:      unit.Name + " Meter",
			Kind:      "meter",
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, s.db, d); err != nil {
			return err
		}
		seeded++
	}

	if seeded > 0 {
		s.log.Info("registry seeded", zap.Int("devices", seeded))
	}
	return nil
}
