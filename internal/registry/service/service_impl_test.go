package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fub-iot/bems/internal/clock"
	"github.com/fub-iot/bems/internal/config"
	registrydomain "github.com/fub-iot/bems/internal/registry/domain"
	"github.com/fub-iot/bems/internal/registry/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newRegistryService(t *testing.T) *Service {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	b, err := config.ResolveBuilding(config.DefaultBuildingSpec())
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:       gdb,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Building: b,
		Clock:    clock.NewFakeClock(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)),
	}).(*Service)

	require.NoError(t, svc.Migrate(context.Background()))
	return svc
}

func TestSeed_OneMeterPerRoom(t *testing.T) {
	svc := newRegistryService(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))

	devices, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, devices, len(svc.building.Units))

	lab, err := svc.List(ctx, "F1-101")
	require.NoError(t, err)
	require.Len(t, lab, 1)
	assert.Equal(t, "computer-lab-1-meter", lab[0].Code)
	assert.Equal(t, "meter", lab[0].Kind)
	assert.Equal(t, "Floor 1", lab[0].FloorID)
	assert.True(t, lab[0].Active)
}

func TestSeed_Rerunnable(t *testing.T) {
	svc := newRegistryService(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))

	devices, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, devices, len(svc.building.Units))
}

func TestCreate_Validates(t *testing.T) {
	svc := newRegistryService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, registrydomain.CreateRequest{RoomID: "F9-999", Name: "AC", Kind: "hvac"})
	assert.ErrorIs(t, err, registrydomain.ErrInvalidRoom)

	_, err = svc.Create(ctx, registrydomain.CreateRequest{RoomID: "F1-101", Name: "  ", Kind: "hvac"})
	assert.ErrorIs(t, err, registrydomain.ErrInvalidName)

	_, err = svc.Create(ctx, registrydomain.CreateRequest{RoomID: "F1-101", Name: "Split AC", Kind: ""})
	assert.ErrorIs(t, err, registrydomain.ErrInvalidKind)
}

func TestCreate_SlugCodeAndDuplicate(t *testing.T) {
	svc := newRegistryService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, registrydomain.CreateRequest{
		RoomID: "F1-101",
		Name:   "Split AC Unit",
		Kind:   "HVAC",
	})
	require.NoError(t, err)
	assert.Equal(t, "split-ac-unit", created.Code)
	assert.Equal(t, "hvac", created.Kind)
	assert.Equal(t, "Floor 1", created.FloorID)
	assert.True(t, created.Active)

	_, err = svc.Create(ctx, registrydomain.CreateRequest{
		RoomID: "F1-101",
		Name:   "Split AC Unit",
		Kind:   "hvac",
	})
	assert.ErrorIs(t, err, registrydomain.ErrDuplicateCode)

	// Same name in another room is a different device.
	_, err = svc.Create(ctx, registrydomain.CreateRequest{
		RoomID: "F2-201",
		Name:   "Split AC Unit",
		Kind:   "hvac",
	})
	assert.NoError(t, err)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newRegistryService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, registrydomain.CreateRequest{
		RoomID: "F3-303",
		Name:   "Projector",
		Kind:   "av",
	})
	require.NoError(t, err)

	name := "Projector Main"
	inactive := false
	updated, err := svc.Update(ctx, registrydomain.UpdateRequest{
		ID:     created.ID,
		Name:   &name,
		Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Projector Main", updated.Name)
	assert.False(t, updated.Active)

	fetched, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Projector Main", fetched.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, registrydomain.ErrDeviceNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), registrydomain.ErrDeviceNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "not-a-snowflake"), registrydomain.ErrInvalidID)
}

func TestExport_Snapshot(t *testing.T) {
	svc := newRegistryService(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))

	doc, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(svc.building.Units), doc.Count)
	assert.Len(t, doc.Devices, doc.Count)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), doc.ExportedAt)
}
