package server

import (
	"context"
	"net/http"
	"time"

	"github.com/fub-iot/bems/internal/config"
	"github.com/fub-iot/bems/internal/observability"
	obsmiddleware "github.com/fub-iot/bems/internal/observability/logger"
	obsmetrics "github.com/fub-iot/bems/internal/observability/metrics"
	obstracing "github.com/fub-iot/bems/internal/observability/tracing"
	"github.com/fub-iot/bems/internal/registry"
	registrydomain "github.com/fub-iot/bems/internal/registry/domain"
	"github.com/fub-iot/bems/internal/telemetry"
	telemetrydomain "github.com/fub-iot/bems/internal/telemetry/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	telemetry.Module,
	registry.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	building     *config.Building
	telemetrySvc telemetrydomain.Service
	registrySvc  registrydomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Building     *config.Building
	TelemetrySvc telemetrydomain.Service
	RegistrySvc  registrydomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		building:     p.Building,
		telemetrySvc: p.TelemetrySvc,
		registrySvc:  p.RegistrySvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/meta", s.GetMeta)
	api.GET("/units", s.ListUnits)
	api.GET("/schedule", s.GetSchedule)

	api.GET("/query", s.QueryTelemetry)

	// -------- Devices --------
	api.GET("/devices", s.ListDevices)
	api.POST("/devices", s.CreateDevice)
	api.GET("/devices/export", s.ExportDevices)
	api.GET("/devices/:id", s.GetDeviceByID)
	api.PATCH("/devices/:id", s.UpdateDevice)
	api.DELETE("/devices/:id", s.DeleteDevice)
}
