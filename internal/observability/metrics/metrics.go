package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	queries            metric.Int64Counter
	datasetBuilds      metric.Int64Counter
	samplesSynthesized metric.Int64Counter
	registryChanges    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metric instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "bems"
	}
	meter := provider.Meter(name)

	queries, err := meter.Int64Counter("bems_queries_total")
	if err != nil {
		return nil, err
	}
	datasetBuilds, err := meter.Int64Counter("bems_dataset_builds_total")
	if err != nil {
		return nil, err
	}
	samplesSynthesized, err := meter.Int64Counter("bems_samples_synthesized_total")
	if err != nil {
		return nil, err
	}
	registryChanges, err := meter.Int64Counter("bems_registry_changes_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		queries:            queries,
		datasetBuilds:      datasetBuilds,
		samplesSynthesized: samplesSynthesized,
		registryChanges:    registryChanges,
	}, nil
}

// RecordQuery increments served rollup query counts.
func (m *Metrics) RecordQuery(ctx context.Context, granularity string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("granularity", strings.TrimSpace(granularity)))
	m.queries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDatasetBuild counts cache-epoch dataset builds.
func (m *Metrics) RecordDatasetBuild(ctx context.Context) {
	if m == nil {
		return
	}
	m.datasetBuilds.Add(ctx, 1)
}

// AddSamplesSynthesized accumulates synthesized sample counts.
func (m *Metrics) AddSamplesSynthesized(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.samplesSynthesized.Add(ctx, int64(n))
}

// RecordRegistryChange counts device registry mutations.
func (m *Metrics) RecordRegistryChange(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.registryChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"granularity": {},
	"action":      {},
	"route":       {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
