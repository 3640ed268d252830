package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/promoflow/adkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments for the ad lifecycle domain.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	loadTotal         metric.Int64Counter
	loadDuration      metric.Float64Histogram
	presentTotal      metric.Int64Counter
	dismissedTotal    metric.Int64Counter
	discardedTotal    metric.Int64Counter
	sdkOpTotal        metric.Int64Counter
}

// Load outcome attribute values.
const (
	OutcomeLoaded  = "loaded"
	OutcomeFailed  = "failed"
	OutcomeExpired = "expired"

	OutcomePresented = "presented"
	OutcomeNoAd      = "no_ad"
)

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operationTotal, err := meter.Int64Counter("operation.total",
		metric.WithDescription("Total number of operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation.total counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("operation.duration",
		metric.WithDescription("Duration of operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation.duration histogram: %w", err)
	}

	loadTotal, err := meter.Int64Counter("ad.load.total",
		metric.WithDescription("Total load outcomes by tag and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ad.load.total counter: %w", err)
	}

	loadDuration, err := meter.Float64Histogram("ad.load.duration",
		metric.WithDescription("Time from load request to outcome in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ad.load.duration histogram: %w", err)
	}

	presentTotal, err := meter.Int64Counter("ad.present.total",
		metric.WithDescription("Total present attempts by tag and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ad.present.total counter: %w", err)
	}

	dismissedTotal, err := meter.Int64Counter("ad.dismissed.total",
		metric.WithDescription("Total completed presentations by tag"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ad.dismissed.total counter: %w", err)
	}

	discardedTotal, err := meter.Int64Counter("ad.callback.discarded.total",
		metric.WithDescription("SDK callbacks discarded for released handles"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ad.callback.discarded.total counter: %w", err)
	}

	sdkOpTotal, err := meter.Int64Counter("sdk.operation.total",
		metric.WithDescription("SDK operations invoked by operation name"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sdk.operation.total counter: %w", err)
	}

	return &Metrics{
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		loadTotal:         loadTotal,
		loadDuration:      loadDuration,
		presentTotal:      presentTotal,
		dismissedTotal:    dismissedTotal,
		discardedTotal:    discardedTotal,
		sdkOpTotal:        sdkOpTotal,
	}, nil
}

// RecordOperation records an operation execution.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.operationTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
}

// RecordLoad records a load outcome and its duration.
func (m *Metrics) RecordLoad(ctx context.Context, tag, outcome string, duration time.Duration) {
	m.loadTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tag", tag),
		attribute.String("outcome", outcome),
	))
	m.loadDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("tag", tag),
	))
}

// RecordPresent records a present attempt.
func (m *Metrics) RecordPresent(ctx context.Context, tag, outcome string) {
	m.presentTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tag", tag),
		attribute.String("outcome", outcome),
	))
}

// RecordDismissed records a completed presentation.
func (m *Metrics) RecordDismissed(ctx context.Context, tag string) {
	m.dismissedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tag", tag),
	))
}

// RecordCallbackDiscarded records a callback dropped for a stale handle.
func (m *Metrics) RecordCallbackDiscarded(ctx context.Context, tag string) {
	m.discardedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tag", tag),
	))
}

// RecordSDKOp records one SDK operation invocation.
func (m *Metrics) RecordSDKOp(ctx context.Context, op string) {
	m.sdkOpTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
	))
}
