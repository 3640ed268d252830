package placements

import (
	"context"
	"fmt"
	"sync"

	"github.com/promoflow/adkit/component"
	"github.com/promoflow/adkit/errors"
	"github.com/promoflow/adkit/interstitial"
	"github.com/promoflow/adkit/logger"
	"github.com/promoflow/adkit/observability"
	"github.com/promoflow/adkit/sdk"
	"github.com/promoflow/adkit/stream"
)

// entry pairs a controller with the mutex that serializes its
// operations.
type entry struct {
	mu        sync.Mutex
	ctrl      *interstitial.Controller
	placement Placement
}

// Registry owns one interstitial.Controller per configured placement
// and serializes operations per tag, so concurrent callers get the
// controller's single-caller contract without building their own
// scheduling. It also merges every controller's lifecycle events into
// one observable feed and plugs into the component lifecycle.
type Registry struct {
	log     *logger.Logger
	metrics *observability.Metrics

	mu      sync.RWMutex
	entries map[interstitial.Tag]*entry
	order   []interstitial.Tag
	started bool
	closed  bool

	events *stream.Topic[Event]
	wg     sync.WaitGroup
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	log     *logger.Logger
	metrics *observability.Metrics
	sink    observability.EventSink
}

// WithLogger overrides the registry's logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics attaches a metric bundle, shared with every controller.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithEventSink passes an event sink down to every controller.
func WithEventSink(s observability.EventSink) Option {
	return func(o *options) { o.sink = s }
}

// New builds a registry with one controller per placement. Placement
// tags must be unique; duplicate tags fail with PLACEMENT_EXISTS.
// Controllers are live immediately; Start only marks the component
// ready for health reporting.
func New(port sdk.Interstitial, placementList []Placement, opts ...Option) (*Registry, error) {
	if port == nil {
		return nil, errors.InvalidConfig("sdk", "port must not be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("placements")
	}

	r := &Registry{
		log:     o.log,
		metrics: o.metrics,
		entries: make(map[interstitial.Tag]*entry, len(placementList)),
		events:  stream.NewTopic[Event]("placement-events"),
	}

	for _, p := range placementList {
		tag := interstitial.Tag(p.Tag)
		if _, exists := r.entries[tag]; exists {
			return nil, errors.PlacementExists(p.Tag)
		}

		var ctrlOpts []interstitial.Option
		if p.Buffer > 0 {
			ctrlOpts = append(ctrlOpts, interstitial.WithBuffer(p.Buffer))
		}
		if o.metrics != nil {
			ctrlOpts = append(ctrlOpts, interstitial.WithMetrics(o.metrics))
		}
		if o.sink != nil {
			ctrlOpts = append(ctrlOpts, interstitial.WithEventSink(o.sink))
		}

		ctrl, err := interstitial.New(tag, p.UnitID, port, ctrlOpts...)
		if err != nil {
			return nil, fmt.Errorf("placement %q: %w", p.Tag, err)
		}

		r.entries[tag] = &entry{ctrl: ctrl, placement: p}
		r.order = append(r.order, tag)
		r.pump(ctrl)
	}

	r.log.Info("registry created", map[string]interface{}{
		"placements": len(r.order),
	})
	return r, nil
}

// entryFor resolves a tag or fails with PLACEMENT_NOT_FOUND.
func (r *Registry) entryFor(tag interstitial.Tag) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[tag]
	if !ok {
		return nil, errors.PlacementNotFound(string(tag))
	}
	return e, nil
}

// Load requests a load on the placement's controller. The per-tag lock
// is held across the SDK invocation, so concurrent callers are
// serialized.
func (r *Registry) Load(ctx context.Context, tag interstitial.Tag) (*stream.Subscription[interstitial.LoadStatus], error) {
	e, err := r.entryFor(tag)
	if err != nil {
		return nil, err
	}

	op := observability.NewOperationContext("placements", "load", string(tag), r.metrics)
	ctx, span := op.StartSpanForOperation(ctx, observability.SpanAdLoad)

	e.mu.Lock()
	sub := e.ctrl.Load()
	e.mu.Unlock()

	op.EndOperation(ctx, span, "ok", nil)
	return sub, nil
}

// Unload releases the placement's ad.
func (r *Registry) Unload(ctx context.Context, tag interstitial.Tag) (*stream.Subscription[interstitial.Tag], error) {
	e, err := r.entryFor(tag)
	if err != nil {
		return nil, err
	}

	op := observability.NewOperationContext("placements", "unload", string(tag), r.metrics)
	ctx, span := op.StartSpanForOperation(ctx, observability.SpanAdUnload)

	e.mu.Lock()
	sub := e.ctrl.Unload()
	e.mu.Unlock()

	op.EndOperation(ctx, span, "ok", nil)
	return sub, nil
}

// Present presents the placement's loaded ad on the given surface.
func (r *Registry) Present(ctx context.Context, tag interstitial.Tag, surface sdk.Surface) (*stream.Subscription[interstitial.PresentationStatus], error) {
	e, err := r.entryFor(tag)
	if err != nil {
		return nil, err
	}

	op := observability.NewOperationContext("placements", "present", string(tag), r.metrics)
	ctx, span := op.StartSpanForOperation(ctx, observability.SpanAdPresent)

	e.mu.Lock()
	sub := e.ctrl.Present(surface)
	e.mu.Unlock()

	op.EndOperation(ctx, span, "ok", nil)
	return sub, nil
}

// Controller returns the placement's controller for direct subscription
// access. Imperative calls on it bypass the registry's per-tag
// serialization.
func (r *Registry) Controller(tag interstitial.Tag) (*interstitial.Controller, error) {
	e, err := r.entryFor(tag)
	if err != nil {
		return nil, err
	}
	return e.ctrl, nil
}

// Tags returns every placement tag in configuration order.
func (r *Registry) Tags() []interstitial.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]interstitial.Tag, len(r.order))
	copy(out, r.order)
	return out
}

// StatusOf returns a point-in-time view of one placement.
func (r *Registry) StatusOf(tag interstitial.Tag) (Status, error) {
	e, err := r.entryFor(tag)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Tag:    tag,
		UnitID: e.placement.UnitID,
		State:  e.ctrl.State(),
		Ready:  e.ctrl.Ready(),
	}, nil
}

// Snapshot returns the status of every placement in configuration
// order.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	tags := make([]interstitial.Tag, len(r.order))
	copy(tags, r.order)
	r.mu.RUnlock()

	out := make([]Status, 0, len(tags))
	for _, tag := range tags {
		if s, err := r.StatusOf(tag); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Events subscribes to the merged lifecycle feed of every controller.
// The subscription completes when the registry stops.
func (r *Registry) Events() *stream.Subscription[Event] {
	return r.events.Subscribe()
}

// Name implements component.Component.
func (r *Registry) Name() string { return "placements" }

// Start implements component.Component. Controllers are already live;
// Start only flips the readiness flag.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("placement registry already stopped")
	}
	r.started = true
	r.log.Info("placement registry started", map[string]interface{}{
		"placements": len(r.order),
	})
	return nil
}

// Stop implements component.Component. It closes every controller,
// waits for the event pumps to drain, and completes the merged feed.
func (r *Registry) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.started = false
	entries := make([]*entry, 0, len(r.order))
	for _, tag := range r.order {
		entries = append(entries, r.entries[tag])
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.ctrl.Close()
		e.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.events.Complete()
		return ctx.Err()
	}

	r.events.Complete()
	r.log.Info("placement registry stopped")
	return nil
}

// Health implements component.Component.
func (r *Registry) Health(ctx context.Context) component.Health {
	r.mu.RLock()
	started, closed := r.started, r.closed
	count := len(r.order)
	r.mu.RUnlock()

	h := component.Health{Name: r.Name()}
	switch {
	case closed:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	case !started:
		h.Status = component.StatusUnknown
		h.Message = "not started"
	default:
		h.Status = component.StatusHealthy
		h.Message = fmt.Sprintf("%d placements", count)
	}

	ready := 0
	for _, s := range r.Snapshot() {
		if s.Ready {
			ready++
		}
	}
	h.Details = map[string]any{
		"placements": count,
		"ready":      ready,
	}
	return h
}
