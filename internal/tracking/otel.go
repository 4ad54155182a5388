package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/motionnets/mptrain/internal/config"
	"github.com/motionnets/mptrain/internal/logger"
)

// OTelTracker exports run metrics to an OTLP HTTP collector. The session
// identifier is issued once at connect time and tags every exported sample,
// so concurrent runs stay distinguishable on the backend.
type OTelTracker struct {
	sessionID string
	runName   string
	project   string

	provider *sdkmetric.MeterProvider
	meter    metric.Meter
	log      *logger.Logger

	mu     sync.Mutex
	gauges map[string]metric.Float64Gauge
}

// NewOTelTracker opens a tracking session for the named run.
func NewOTelTracker(ctx context.Context, runName string, cfg config.TrackingConfig, log *logger.Logger) (*OTelTracker, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	sessionID := uuid.NewString()

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.Project),
		attribute.String("run.name", runName),
		attribute.String("run.id", sessionID),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.IntervalSeconds > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(time.Duration(cfg.IntervalSeconds)*time.Second))
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	t := &OTelTracker{
		sessionID: sessionID,
		runName:   runName,
		project:   cfg.Project,
		provider:  provider,
		meter:     provider.Meter("mptrain"),
		log:       log.WithComponent("tracking"),
		gauges:    make(map[string]metric.Float64Gauge),
	}
	t.log.Info("tracking session opened", logger.Fields(
		"run", runName,
		"project", cfg.Project,
		"session", sessionID,
		"endpoint", cfg.Endpoint,
	))
	return t, nil
}

// SessionID returns the identifier issued for this session.
func (t *OTelTracker) SessionID() string { return t.sessionID }

// LogHyperparams records the resolved configuration. The backend keys runs by
// session, so hyperparameters are emitted once as structured log context.
func (t *OTelTracker) LogHyperparams(hparams map[string]any) {
	t.log.Info("hyperparameters", map[string]interface{}{"hparams": hparams})
}

// LogMetrics records named scalar metrics at a global step.
func (t *OTelTracker) LogMetrics(ctx context.Context, step int, metrics map[string]float64) {
	attrs := metric.WithAttributes(attribute.Int("step", step))
	for name, value := range metrics {
		gauge, err := t.gauge(name)
		if err != nil {
			t.log.Warn("dropping metric", logger.ErrorFields(name, err))
			continue
		}
		gauge.Record(ctx, value, attrs)
	}
}

// Finish flushes pending samples and shuts the provider down.
func (t *OTelTracker) Finish(ctx context.Context) error {
	if err := t.provider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("flushing tracking session: %w", err)
	}
	return t.provider.Shutdown(ctx)
}

func (t *OTelTracker) gauge(name string) (metric.Float64Gauge, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if g, ok := t.gauges[name]; ok {
		return g, nil
	}
	g, err := t.meter.Float64Gauge(name)
	if err != nil {
		return nil, err
	}
	t.gauges[name] = g
	return g, nil
}
