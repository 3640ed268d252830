package observability

import (
	"context"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config is the observability section of the application config.
type Config struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
	Env        string        `yaml:"env" mapstructure:"env"`
}

// ApplyDefaults applies default values to observability configuration.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
	if c.Env == "" {
		c.Env = "development"
	}
}

// Init initializes both providers from the config and returns a single
// shutdown function. When the config is disabled it returns a no-op
// shutdown and leaves the global noop providers in place.
func Init(ctx context.Context, serviceName, serviceVersion string, cfg *Config) (func(context.Context) error, error) {
	if cfg == nil || !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()

	mp, err := InitMeter(ctx, &MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Env,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		Interval:       cfg.Interval,
	})
	if err != nil {
		return nil, err
	}

	tp, err := InitTracer(ctx, &TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Env,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		SampleRate:     cfg.SampleRate,
	})
	if err != nil {
		shutdownProvider(ctx, mp, nil)
		return nil, err
	}

	return func(ctx context.Context) error {
		return shutdownProvider(ctx, mp, tp)
	}, nil
}

func shutdownProvider(ctx context.Context, mp *sdkmetric.MeterProvider, tp *sdktrace.TracerProvider) error {
	var first error
	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			first = err
		}
	}
	if mp != nil {
		if err := mp.Shutdown(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
