package db

import (
	"time"

	"github.com/fub-iot/bems/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

// Open builds the registry store. The engine keeps device metadata in an
// in-memory SQLite database scoped to the process; there is no durable
// persistence, a restart reseeds from the building catalog.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:  NewGormLogger(log),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	if err := gdb.Use(otelgorm.NewPlugin(otelgorm.WithDBName("bems"))); err != nil {
		return nil, err
	}
	if err := gdb.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          "bems",
		RefreshInterval: 15,
	})); err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	// A single connection keeps the shared-cache memory database alive for
	// the process lifetime.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	log.Info("registry store opened", zap.String("driver", "sqlite"), zap.String("dsn", "file::memory:?cache=shared"))
	return gdb, nil
}

var Module = fx.Module("db",
	fx.Provide(Open),
)
