package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fub-iot/bems/internal/clock"
	"github.com/fub-iot/bems/internal/config"
	registryrepo "github.com/fub-iot/bems/internal/registry/repository"
	registryservice "github.com/fub-iot/bems/internal/registry/service"
	"github.com/fub-iot/bems/internal/telemetry/dataset"
	telemetryservice "github.com/fub-iot/bems/internal/telemetry/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	spec := config.DefaultBuildingSpec()
	spec.HorizonEnd = "2025-11-03 23:45"
	building, err := config.ResolveBuilding(spec)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 11, 16, 0, 0, 0, 0, time.UTC))

	provider := dataset.New(dataset.Params{
		Building: building,
		Log:      zap.NewNop(),
		Clock:    fake,
	})
	telemetrySvc := telemetryservice.New(telemetryservice.Params{
		Building: building,
		Datasets: provider,
		Log:      zap.NewNop(),
	})

	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	registrySvc := registryservice.New(registryservice.Params{
		DB:       gdb,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     registryrepo.Provide(),
		Building: building,
		Clock:    fake,
	})
	impl := registrySvc.(*registryservice.Service)
	require.NoError(t, impl.Migrate(context.Background()))
	require.NoError(t, impl.Seed(context.Background()))

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:          engine,
		Cfg:          config.Config{AppName: "bems", AppVersion: "test"},
		Building:     building,
		TelemetrySvc: telemetrySvc,
		RegistrySvc:  registrySvc,
	})
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestGetMeta(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/meta", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "bems", data["service"])
	assert.Equal(t, float64(15), data["step_minutes"])
	assert.Equal(t, float64(9), data["units"])
	// Three days at 15-minute steps: 96 points per day per unit, nine units.
	assert.Equal(t, float64(3*96*9), data["samples"])
	assert.NotEmpty(t, data["fingerprint"])
}

func TestListUnits(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/units", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []struct {
			ID      string `json:"id"`
			FloorID string `json:"floor_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 9)
	assert.Equal(t, "F1-101", envelope.Data[0].ID)
	assert.Equal(t, "Floor 1", envelope.Data[0].FloorID)
}

func TestGetSchedule(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Weekdays []string `json:"weekdays"`
			Windows  []struct {
				Start string `json:"start"`
				End   string `json:"end"`
			} `json:"windows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, envelope.Data.Weekdays)
	require.Len(t, envelope.Data.Windows, 2)
	assert.Equal(t, "09:00", envelope.Data.Windows[0].Start)
	assert.Equal(t, "17:00", envelope.Data.Windows[1].End)
}

func TestQueryTelemetry(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/query?start=2025-11-01&end=2025-11-03&granularity=floor", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Totals struct {
				EnergyKWh float64 `json:"energy_kwh"`
				Cost      float64 `json:"cost"`
			} `json:"totals"`
			Rows    []map[string]any `json:"rows"`
			HasData bool             `json:"has_data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.HasData)
	assert.Positive(t, envelope.Data.Totals.EnergyKWh)
	assert.InDelta(t, envelope.Data.Totals.EnergyKWh*8.0, envelope.Data.Totals.Cost, 1e-9)
	assert.Len(t, envelope.Data.Rows, 3)
}

func TestQueryTelemetry_Errors(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/query?start=2025-11-03&end=2025-11-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/query?start=not-a-time&end=2025-11-03", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/query?start=2025-11-01&end=2025-11-03&granularity=campus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/query?start=2025-11-01&end=2025-11-03&unit_id=F9-999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeviceLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/devices", gin.H{
		"room_id": "F1-101",
		"name":    "Ceiling Fan",
		"kind":    "hvac",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeData(t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "ceiling-fan", created["code"])

	// Duplicate name in the same room conflicts.
	rec = doRequest(t, s, http.MethodPost, "/api/devices", gin.H{
		"room_id": "F1-101",
		"name":    "Ceiling Fan",
		"kind":    "hvac",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, s, http.MethodPatch, "/api/devices/"+id, gin.H{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeData(t, rec)["active"])

	rec = doRequest(t, s, http.MethodGet, "/api/devices?room_id=F1-101", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/devices/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/devices/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportDevices(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/devices/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "devices.json")

	var doc struct {
		Count   int              `json:"count"`
		Devices []map[string]any `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, 9, doc.Count)
	assert.Len(t, doc.Devices, 9)
}
