package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fub-iot/bems/internal/clock"
	"github.com/fub-iot/bems/internal/config"
	obsmetrics "github.com/fub-iot/bems/internal/observability/metrics"
	registrydomain "github.com/fub-iot/bems/internal/registry/domain"
	"github.com/fub-iot/bems/pkg/db"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     registrydomain.Repository
	Building *config.Building
	Clock    clock.Clock
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     registrydomain.Repository
	genID    *snowflake.Node
	building *config.Building
	clock    clock.Clock
	metrics  *obsmetrics.Metrics
}

func New(p Params) registrydomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("registry.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		building: p.Building,
		clock:    p.Clock,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req registrydomain.CreateRequest) (*registrydomain.Response, error) {
	roomID := strings.TrimSpace(req.RoomID)
	unit, ok := s.building.UnitByID(roomID)
	if !ok {
		return nil, registrydomain.ErrInvalidRoom
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, registrydomain.ErrInvalidName
	}

	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind == "" {
		return nil, registrydomain.ErrInvalidKind
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	code := slug.Make(name)
	if existing, err := s.repo.FindByCode(ctx, s.db, roomID, code); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, registrydomain.ErrDuplicateCode
	}

	now := s.clock.Now()
	d := &registrydomain.Device{
		ID:        s.genID.Generate(),
		RoomID:    roomID,
		FloorID:   unit.FloorID,
		Code:      code,
		Name:      name,
		Kind:      kind,
		Active:    active,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, d); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, registrydomain.ErrDuplicateCode
		}
		return nil, err
	}

	s.metrics.RecordRegistryChange(ctx, "create")
	s.log.Info("device registered",
		zap.String("device_id", d.ID.String()),
		zap.String("room_id", d.RoomID),
		zap.String("code", d.Code),
	)
	return s.toResponse(d), nil
}

func (s *Service) List(ctx context.Context, roomID string) ([]registrydomain.Response, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID != "" {
		if _, ok := s.building.UnitByID(roomID); !ok {
			return nil, registrydomain.ErrInvalidRoom
		}
	}

	items, err := s.repo.List(ctx, s.db, roomID)
	if err != nil {
		return nil, err
	}

	resp := make([]registrydomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*registrydomain.Response, error) {
	deviceID, err := registrydomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, registrydomain.ErrInvalidID
	}

	d, err := s.repo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, registrydomain.ErrDeviceNotFound
	}
	return s.toResponse(d), nil
}

func (s *Service) Update(ctx context.Context, req registrydomain.UpdateRequest) (*registrydomain.Response, error) {
	deviceID, err := registrydomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, registrydomain.ErrInvalidID
	}

	d, err := s.repo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, registrydomain.ErrDeviceNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, registrydomain.ErrInvalidName
		}
		d.Name = name
	}
	if req.Kind != nil {
		kind := strings.ToLower(strings.TrimSpace(*req.Kind))
		if kind == "" {
			return nil, registrydomain.ErrInvalidKind
		}
		d.Kind = kind
	}
	if req.Active != nil {
		d.Active = *req.Active
	}
	if req.Metadata != nil {
		d.Metadata = *req.Metadata
	}
	d.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, d); err != nil {
		return nil, err
	}

	s.metrics.RecordRegistryChange(ctx, "update")
	return s.toResponse(d), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deviceID, err := registrydomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return registrydomain.ErrInvalidID
	}

	d, err := s.repo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return err
	}
	if d == nil {
		return registrydomain.ErrDeviceNotFound
	}

	if err := s.repo.Delete(ctx, s.db, deviceID); err != nil {
		return err
	}

	s.metrics.RecordRegistryChange(ctx, "delete")
	s.log.Info("device removed",
		zap.String("device_id", d.ID.String()),
		zap.String("room_id", d.RoomID),
	)
	return nil
}

func (s *Service) Export(ctx context.Context) (*registrydomain.ExportDocument, error) {
	devices, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return &registrydomain.ExportDocument{
		ExportedAt: s.clock.Now(),
		Count:      len(devices),
		Devices:    devices,
	}, nil
}

func (s *Service) toResponse(d *registrydomain.Device) *registrydomain.Response {
	return &registrydomain.Response{
		ID:        d.ID.String(),
		RoomID:    d.RoomID,
		FloorID:   d.FloorID,
		Code:      d.Code,
		Name:      d.Name,
		Kind:      d.Kind,
		Active:    d.Active,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
