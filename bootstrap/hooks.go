package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback run during startup or shutdown.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run after the components have started,
// before the ready check.
func (a *App) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnReady registers hooks that run once the application passed its
// ready check and is about to begin serving.
func (a *App) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop registers hooks that run during graceful shutdown before the
// components stop. Use them to drain work that needs a live registry.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks executes hooks sequentially, stopping at the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
