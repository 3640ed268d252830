package bootstrap

import (
	"time"

	"github.com/promoflow/adkit/logger"
	"github.com/promoflow/adkit/observability"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	sink            observability.EventSink
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. Without it, the global logger is
// initialized from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithEventSink passes an analytics sink down to every placement's
// controller.
func WithEventSink(s observability.EventSink) Option {
	return func(o *appOptions) {
		o.sink = s
	}
}
