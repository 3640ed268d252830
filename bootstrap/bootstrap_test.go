package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/promoflow/adkit/component"
	"github.com/promoflow/adkit/config"
	"github.com/promoflow/adkit/errors"
	"github.com/promoflow/adkit/logger"
	"github.com/promoflow/adkit/placements"
	"github.com/promoflow/adkit/sdk"
	"github.com/promoflow/adkit/sdk/sdktest"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{
			Name:        "adkit-test",
			Version:     "1.2.3",
			Environment: "production",
		},
		Logging: logger.Config{Level: "error", Format: "json"},
		SDK:     sdk.Config{AppID: "app-test"},
		Placements: []placements.Placement{
			{Tag: "home_screen", UnitID: "unit-home"},
			{Tag: "level_end", UnitID: "unit-level"},
		},
	}
}

// newTestApp builds an App on a scripted SDK fake. A private logger
// keeps the tests from reconfiguring the global one.
func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) (*App, *sdktest.Fake) {
	t.Helper()
	fake := sdktest.New()
	fake.SucceedLoads()

	opts = append([]Option{WithLogger(logger.NewDefault("bootstrap-test"))}, opts...)
	app, err := New(cfg, fake, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return app, fake
}

// freePort reserves an ephemeral port and releases it for the monitor
// to bind.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	return nil
}

func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) component.Health {
	h := component.Health{Name: m.name, Status: component.StatusHealthy}
	if !m.started || m.stopped {
		h.Status = component.StatusUnhealthy
	}
	return h
}

type captureSink struct {
	mu     sync.Mutex
	events []string
}

func (s *captureSink) Record(event string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(nil, sdktest.New())
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("New(nil config) error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestNewNilPort(t *testing.T) {
	_, err := New(testConfig(), nil)
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("New(nil port) error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Placements = nil

	_, err := New(cfg, sdktest.New())
	if err == nil || !strings.Contains(err.Error(), "placements") {
		t.Errorf("New() error = %v, want placements validation failure", err)
	}
}

func TestNewBuildsApp(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	if app.Name != "adkit-test" || app.Version != "1.2.3" {
		t.Errorf("app identity = %s/%s, want adkit-test/1.2.3", app.Name, app.Version)
	}
	if app.Registry == nil {
		t.Fatal("expected placement registry")
	}
	if app.Components.Get("placements") == nil {
		t.Error("expected registry in the component lifecycle")
	}
	if app.Monitor != nil || app.Components.Get("monitor") != nil {
		t.Error("expected no monitor when monitor.enabled is false")
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("graceful timeout = %v, want 15s", app.gracefulTimeout)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Service.Environment = ""
	cfg.Logging.Level = ""

	newTestApp(t, cfg)

	if cfg.Service.Environment != "development" {
		t.Errorf("environment = %q, want development", cfg.Service.Environment)
	}
	if cfg.Logging.ServiceName != "adkit-test" {
		t.Errorf("logging service name = %q, want adkit-test", cfg.Logging.ServiceName)
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app, _ := newTestApp(t, testConfig(), WithGracefulTimeout(5*time.Second))
	if app.gracefulTimeout != 5*time.Second {
		t.Errorf("graceful timeout = %v, want 5s", app.gracefulTimeout)
	}
}

func TestWithLogger(t *testing.T) {
	custom := logger.NewDefault("custom")
	app, err := New(testConfig(), sdktest.New(), WithLogger(custom))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if app.Logger != custom {
		t.Error("expected custom logger")
	}
}

func TestWithEventSink(t *testing.T) {
	sink := &captureSink{}
	app, fake := newTestApp(t, testConfig(), WithEventSink(sink))
	fake.OnPresent(sdktest.PresentationCycle)

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		loadSub, err := app.Registry.Load(ctx, "home_screen")
		if err != nil {
			return err
		}
		defer loadSub.Close()
		if _, ok, err := loadSub.Next(ctx); !ok || err != nil {
			return fmt.Errorf("load status: ok=%v err=%v", ok, err)
		}

		sub, err := app.Registry.Present(ctx, "home_screen", nil)
		if err != nil {
			return err
		}
		defer sub.Close()
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask() error: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 || sink.events[0] != "adDidDisappear" {
		t.Errorf("sink events = %v, want [adDidDisappear]", sink.events)
	}
}

func TestRegisterComponent(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	warmup := &mockComponent{name: "warmup"}

	if err := app.RegisterComponent(warmup); err != nil {
		t.Fatalf("RegisterComponent() error: %v", err)
	}
	if app.Components.Get("warmup") == nil {
		t.Fatal("expected warmup component registered")
	}
	if err := app.RegisterComponent(&mockComponent{name: "warmup"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask() error: %v", err)
	}
	if !warmup.started || !warmup.stopped {
		t.Errorf("component lifecycle: started=%v stopped=%v, want both", warmup.started, warmup.stopped)
	}
}

func TestReadyCheck(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	if err := app.ReadyCheck(context.Background()); err == nil {
		t.Error("expected ready check failure before start")
	}

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return app.ReadyCheck(ctx)
	})
	if err != nil {
		t.Fatalf("RunTask() error: %v", err)
	}

	if err := app.ReadyCheck(context.Background()); err == nil {
		t.Error("expected ready check failure after stop")
	}
}

func TestRunTaskLoadsThroughRegistry(t *testing.T) {
	app, fake := newTestApp(t, testConfig())

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		sub, err := app.Registry.Load(ctx, "home_screen")
		if err != nil {
			return err
		}
		defer sub.Close()

		status, ok, err := sub.Next(ctx)
		if !ok || err != nil {
			return fmt.Errorf("load status: ok=%v err=%v", ok, err)
		}
		if !status.Loaded() {
			return fmt.Errorf("load failed: %v", status.Err)
		}
		if status.Tag != "home_screen" {
			return fmt.Errorf("load status tag = %q", status.Tag)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask() error: %v", err)
	}

	if got := fake.LoadCalls(); got != 1 {
		t.Errorf("SDK load calls = %d, want 1", got)
	}
	if h := app.Registry.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("registry health after RunTask = %s, want %s", h.Status, component.StatusUnhealthy)
	}
}

func TestRunTaskError(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	taskErr := stderrors.New("task exploded")

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return taskErr
	})
	if !stderrors.Is(err, taskErr) {
		t.Errorf("RunTask() error = %v, want %v", err, taskErr)
	}
	if h := app.Registry.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Error("expected components stopped after failing task")
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("RunTask() error = %v, want context.Canceled", err)
	}
}

func TestRunTaskHookOrder(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	var order []string
	app.OnStart(func(ctx context.Context) error { order = append(order, "start"); return nil })
	app.OnReady(func(ctx context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(ctx context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask() error: %v", err)
	}

	want := []string{"start", "ready", "task", "stop"}
	if len(order) != len(want) {
		t.Fatalf("hook order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestStartHookFailureStopsComponents(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	app.OnStart(func(ctx context.Context) error {
		return stderrors.New("warmup failed")
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		t.Error("task must not run after failed startup")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "start hook") {
		t.Errorf("RunTask() error = %v, want start hook failure", err)
	}
	if h := app.Registry.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Error("expected started components stopped after failed startup")
	}
}

func TestReadyHookFailure(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	app.OnReady(func(ctx context.Context) error {
		return stderrors.New("cache prime failed")
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		t.Error("task must not run after failed startup")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "ready hook") {
		t.Errorf("RunTask() error = %v, want ready hook failure", err)
	}
}

func TestStopHookError(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	app.OnStop(func(ctx context.Context) error {
		return stderrors.New("drain failed")
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "drain failed") {
		t.Errorf("RunTask() error = %v, want stop hook failure", err)
	}
}

func TestTaskErrorWinsOverStopError(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	app.OnStop(func(ctx context.Context) error {
		return stderrors.New("drain failed")
	})
	taskErr := stderrors.New("task exploded")

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return taskErr
	})
	if !stderrors.Is(err, taskErr) {
		t.Errorf("RunTask() error = %v, want task error to win", err)
	}
}

func TestComponentStartFailureAborts(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	bad := &mockComponent{name: "bad", startErr: stderrors.New("bind failed")}
	if err := app.RegisterComponent(bad); err != nil {
		t.Fatalf("RegisterComponent() error: %v", err)
	}

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		t.Error("task must not run after failed startup")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "component start") {
		t.Errorf("RunTask() error = %v, want component start failure", err)
	}
	if h := app.Registry.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Error("expected registry stopped after aborted startup")
	}
}

func TestRunHooksSequential(t *testing.T) {
	var order []string
	hooks := []Hook{
		func(ctx context.Context) error { order = append(order, "first"); return nil },
		func(ctx context.Context) error { order = append(order, "second"); return nil },
	}
	if err := runHooks(context.Background(), hooks); err != nil {
		t.Fatalf("runHooks() error: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("hook order = %v, want [first second]", order)
	}
}

func TestRunHooksStopsAtFirstError(t *testing.T) {
	secondRan := false
	hooks := []Hook{
		func(ctx context.Context) error { return stderrors.New("fail") },
		func(ctx context.Context) error { secondRan = true; return nil },
	}
	err := runHooks(context.Background(), hooks)
	if err == nil || !strings.Contains(err.Error(), "hook 0") {
		t.Errorf("runHooks() error = %v, want hook 0 failure", err)
	}
	if secondRan {
		t.Error("second hook ran after first failed")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for app.Registry.Health(context.Background()).Status != component.StatusHealthy {
		if time.Now().After(deadline) {
			t.Fatal("registry never became healthy")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	if h := app.Registry.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("registry health after Run = %s, want %s", h.Status, component.StatusUnhealthy)
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("WaitForSignal() = %v, want nil on context cancellation", sig)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask() error: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() after RunTask error: %v", err)
	}
}

func TestMonitorLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.Monitor.Enabled = true
	cfg.Monitor.Host = "127.0.0.1"
	cfg.Monitor.Port = freePort(t)

	app, _ := newTestApp(t, cfg)
	if app.Monitor == nil {
		t.Fatal("expected monitor when monitor.enabled is true")
	}
	if app.Components.Get("monitor") == nil {
		t.Error("expected monitor in the component lifecycle")
	}

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		if got := app.Monitor.Addr(); !strings.HasSuffix(got, fmt.Sprintf(":%d", cfg.Monitor.Port)) {
			t.Errorf("monitor addr = %q, want port %d", got, cfg.Monitor.Port)
		}
		if h := app.Monitor.Health(ctx); h.Status != component.StatusHealthy {
			t.Errorf("monitor health during task = %s, want %s", h.Status, component.StatusHealthy)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask() error: %v", err)
	}

	if h := app.Monitor.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("monitor health after RunTask = %s, want %s", h.Status, component.StatusUnhealthy)
	}
}
