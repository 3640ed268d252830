package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/promoflow/adkit/component"
	"github.com/promoflow/adkit/config"
	"github.com/promoflow/adkit/errors"
	"github.com/promoflow/adkit/logger"
	"github.com/promoflow/adkit/monitor"
	"github.com/promoflow/adkit/observability"
	"github.com/promoflow/adkit/placements"
	"github.com/promoflow/adkit/sdk"
)

// App wires a validated configuration and an SDK adapter into a running
// service: logger, telemetry, the placement registry, the optional
// monitor server and the component lifecycle around them.
type App struct {
	Name       string
	Version    string
	Cfg        *config.Config
	Registry   *placements.Registry
	Monitor    *monitor.Server // nil when monitor.enabled is false
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout   time.Duration
	shutdownTelemetry func(ctx context.Context) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// New builds the application from a configuration and the vendor SDK
// adapter. The config is defaulted and validated first; construction
// initializes the logger and telemetry, builds the placement registry
// and monitor, and registers the components in start order.
func New(cfg *config.Config, port sdk.Interstitial, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.InvalidConfig("config", "configuration must not be nil")
	}
	if port == nil {
		return nil, errors.InvalidConfig("sdk", "port must not be nil")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)

	app := &App{
		Name:            cfg.Service.Name,
		Version:         cfg.Service.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		gracefulTimeout: 15 * time.Second,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&cfg.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	shutdown, err := observability.Init(context.Background(), app.Name, app.Version, &cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}
	app.shutdownTelemetry = shutdown

	regOpts := []placements.Option{
		placements.WithLogger(app.Logger.WithComponent("placements")),
	}
	if cfg.Observability.Enabled {
		metrics, err := observability.NewMetrics(observability.Meter("adkit"))
		if err != nil {
			return nil, fmt.Errorf("metric instruments: %w", err)
		}
		regOpts = append(regOpts, placements.WithMetrics(metrics))
	}
	if o.sink != nil {
		regOpts = append(regOpts, placements.WithEventSink(o.sink))
	}

	registry, err := placements.New(port, cfg.Placements, regOpts...)
	if err != nil {
		return nil, err
	}
	app.Registry = registry
	if err := app.Components.Register(registry); err != nil {
		return nil, err
	}

	if cfg.Monitor.Enabled {
		srv, err := monitor.New(cfg.Monitor, registry,
			monitor.WithLogger(app.Logger.WithComponent("monitor")),
			monitor.WithComponents(app.Components),
			monitor.WithServiceName(cfg.Service.Name))
		if err != nil {
			return nil, err
		}
		app.Monitor = srv
		if err := app.Components.Register(srv); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// RegisterComponent adds an extra component to the lifecycle, started
// after the built-in ones.
func (a *App) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// ReadyCheck verifies that every registered component reports healthy.
func (a *App) ReadyCheck(ctx context.Context) error {
	results := a.Components.HealthAll(ctx)
	var unhealthy []string
	for _, h := range results {
		if h.Status != component.StatusHealthy {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

// Run executes the full lifecycle for a long-running service: start
// components, run hooks, block until a shutdown signal or context
// cancellation, then shut down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}

	a.WaitForSignal(ctx)
	return a.stop()
}

// RunTask executes a finite task with the same lifecycle as Run, then
// shuts down when the task returns. A shutdown signal cancels the
// task's context instead of killing the process mid-flight.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("signal received, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// startup starts the components and runs the start and ready hooks.
func (a *App) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("component start: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("start hook: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("ready hook: %w", err)
	}

	fields := map[string]interface{}{
		"placements": len(a.Registry.Tags()),
		"startup":    time.Since(start).String(),
	}
	if a.Monitor != nil {
		fields["monitor"] = a.Monitor.Addr()
	}
	a.Logger.Info("application ready", fields)
	return nil
}

// WaitForSignal blocks until SIGINT/SIGTERM or context cancellation.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("shutdown signal received", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// Shutdown stops the application. Use it when managing the wait loop
// yourself instead of calling Run.
func (a *App) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop runs the stop hooks, stops every component in reverse order and
// flushes telemetry, all within the graceful timeout.
func (a *App) stop() error {
	a.Logger.Info("shutting down", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("stop hook error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", map[string]interface{}{
			"error": err.Error(),
		})
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			a.Logger.Warn("telemetry shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}

	a.Logger.Info("shutdown complete")
	return shutdownErr
}
