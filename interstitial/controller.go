package interstitial

import (
	"context"
	"sync"
	"time"

	"github.com/promoflow/adkit/errors"
	"github.com/promoflow/adkit/logger"
	"github.com/promoflow/adkit/observability"
	"github.com/promoflow/adkit/sdk"
	"github.com/promoflow/adkit/stream"
)

// Controller manages the lifecycle of a single interstitial ad
// placement. It owns at most one SDK handle at a time, drives the SDK
// through its imperative operations, and converts the SDK's delegate
// callbacks into three multicast streams: load-status (replays the
// most recent outcome to late subscribers), presentation-status, and
// dismissed-notification.
//
// Load, Unload, Present and Close must be serialized per controller by
// the caller; placements.Registry does this for multi-placement
// deployments. SDK callbacks may arrive on any goroutine, including
// synchronously inside Load or Present, and are always observed by the
// subscription those methods return: the subscription is registered
// before the SDK operation is invoked.
type Controller struct {
	tag    Tag
	unitID string
	port   sdk.Interstitial

	log     *logger.Logger
	sink    observability.EventSink
	metrics *observability.Metrics
	buffer  int

	mu        sync.Mutex
	state     State
	ready     bool
	handle    sdk.Handle
	gen       uint64
	closed    bool
	loadStart time.Time

	loadTopic    *stream.Replay[LoadStatus]
	presentTopic *stream.Topic[PresentationStatus]
	dismissTopic *stream.Topic[Tag]
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger overrides the controller's base logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithEventSink overrides the structured event sink.
func WithEventSink(s observability.EventSink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithMetrics attaches a metric instrument bundle.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithBuffer overrides the per-subscription buffer of the three output
// streams.
func WithBuffer(n int) Option {
	return func(c *Controller) { c.buffer = n }
}

// New creates a controller for one placement tag backed by the given
// SDK port. The SDK handle is not created until the first Load.
func New(tag Tag, unitID string, port sdk.Interstitial, opts ...Option) (*Controller, error) {
	if tag == "" {
		return nil, errors.InvalidConfig("tag", "must not be empty")
	}
	if unitID == "" {
		return nil, errors.InvalidConfig("unit_id", "must not be empty")
	}
	if port == nil {
		return nil, errors.InvalidConfig("sdk", "port must not be nil")
	}

	c := &Controller{
		tag:    tag,
		unitID: unitID,
		port:   port,
		state:  StateNotLoaded,
		buffer: stream.DefaultBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get("interstitial")
	}
	c.log = c.log.WithTag(string(tag))
	if c.sink == nil {
		c.sink = observability.NewLogSink(c.log)
	}

	c.loadTopic = stream.NewReplay[LoadStatus]("load-status:"+string(tag), stream.WithBuffer(c.buffer))
	c.presentTopic = stream.NewTopic[PresentationStatus]("presentation-status:"+string(tag), stream.WithBuffer(c.buffer))
	c.dismissTopic = stream.NewTopic[Tag]("dismissed:"+string(tag), stream.WithBuffer(c.buffer))

	c.log.Debug("controller created", logger.Fields(logger.FieldUnitID, unitID))
	return c, nil
}

// Load requests an ad load and returns a subscription to the
// load-status stream. The subscription is registered before the SDK's
// load operation runs, so an outcome reported synchronously inside the
// call is still delivered. The stream replays the most recent outcome
// to this and any later subscriber and never completes on its own; a
// failure arrives as an item carrying an error, not as a closed
// channel.
//
// The SDK handle is created on first use; subsequent loads reuse it
// and simply re-trigger the SDK's load operation.
func (c *Controller) Load() *stream.Subscription[LoadStatus] {
	sub := c.loadTopic.Subscribe()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.Close()
		c.log.Warn("load requested on closed controller")
		return stream.Single(NewLoadFailed(c.tag, errors.ControllerClosed(string(c.tag))))
	}
	handle := c.handle
	if c.state != StatePresenting {
		c.state = StateLoading
	}
	c.loadStart = time.Now()
	c.mu.Unlock()

	if handle == nil {
		handle = c.port.CreateOrReuse(c.unitID)
		c.recordSDKOp("create_or_reuse")

		c.mu.Lock()
		c.gen++
		gen := c.gen
		c.handle = handle
		c.mu.Unlock()

		c.port.RegisterTarget(handle, &relay{ctrl: c, gen: gen})
		c.log.Debug("handle created", logger.Fields(logger.FieldHandle, handle.ID()))
	}

	c.log.Info("load requested", logger.Fields(
		logger.FieldUnitID, c.unitID,
		logger.FieldHandle, handle.ID(),
	))
	c.recordSDKOp("load")
	c.port.Load(handle)
	return sub
}

// Unload releases the SDK handle unconditionally, even mid-load or
// mid-presentation, forces ready to false, and returns a stream that
// emits the controller's tag as a single acknowledgement and
// completes. It never errors. Callbacks still in flight for the
// released handle are discarded when they arrive.
func (c *Controller) Unload() *stream.Subscription[Tag] {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.gen++
	c.ready = false
	c.state = StateNotLoaded
	c.mu.Unlock()

	if handle != nil {
		c.recordSDKOp("release")
		c.port.Release(handle)
		c.log.Info("ad unloaded", logger.Fields(logger.FieldHandle, handle.ID()))
	} else {
		c.log.Debug("unload with no handle")
	}
	return stream.Single(c.tag)
}

// Present asks the SDK to present the loaded ad on the given surface
// and returns a subscription that observes the presentation cycle and
// completes after DidDisappear.
//
// When no ad is ready the SDK is not touched at all: the returned
// stream emits a single NoAdLoaded status and completes. When an ad is
// ready, the subscription is registered before the SDK's present
// operation runs, so presentation events fired synchronously inside
// the call are still delivered. After the cycle completes, ready is
// false and the dismissed-notification stream fires.
func (c *Controller) Present(surface sdk.Surface) *stream.Subscription[PresentationStatus] {
	sub := c.presentTopic.SubscribeUntil(func(s PresentationStatus) bool { return s == DidDisappear })

	c.mu.Lock()
	if c.closed || !c.ready || c.handle == nil {
		c.mu.Unlock()
		sub.Close()
		c.log.Warn("present requested without a loaded ad")
		if c.metrics != nil {
			c.metrics.RecordPresent(context.Background(), string(c.tag), observability.OutcomeNoAd)
		}
		return stream.Single(NoAdLoaded)
	}
	c.state = StatePresenting
	handle := c.handle
	c.mu.Unlock()

	c.log.Info("present requested", logger.Fields(logger.FieldHandle, handle.ID()))
	if c.metrics != nil {
		c.metrics.RecordPresent(context.Background(), string(c.tag), observability.OutcomePresented)
	}
	c.recordSDKOp("present")
	c.port.Present(handle, surface)
	return sub
}

// Close releases the handle, detaches callback routing, and completes
// all three output streams. The controller is unusable afterwards:
// Load returns a CONTROLLER_CLOSED failure, Present reports
// NoAdLoaded, Unload still acknowledges. Safe to call multiple times.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	handle := c.handle
	c.handle = nil
	c.gen++
	c.ready = false
	c.state = StateNotLoaded
	c.mu.Unlock()

	if handle != nil {
		c.recordSDKOp("release")
		c.port.Release(handle)
	}
	c.loadTopic.Complete()
	c.presentTopic.Complete()
	c.dismissTopic.Complete()
	c.log.Info("controller closed")
}

// LoadStatus subscribes to the load-status stream without triggering a
// load. The most recent outcome, if any, is replayed.
func (c *Controller) LoadStatus() *stream.Subscription[LoadStatus] {
	return c.loadTopic.Subscribe()
}

// PresentationStatus subscribes to the presentation-status stream
// without driving a presentation. The subscription is infinite and
// observes every presentation cycle until Close.
func (c *Controller) PresentationStatus() *stream.Subscription[PresentationStatus] {
	return c.presentTopic.Subscribe()
}

// Dismissed subscribes to the dismissed-notification stream: one tag
// item per completed presentation. Meant for observers that schedule
// follow-up loads without driving the presentation themselves.
func (c *Controller) Dismissed() *stream.Subscription[Tag] {
	return c.dismissTopic.Subscribe()
}

// Tag returns the placement tag.
func (c *Controller) Tag() Tag { return c.tag }

// UnitID returns the configured ad unit.
func (c *Controller) UnitID() string { return c.unitID }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready reports whether a loaded ad is available to present.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// --- SDK callback handling (via relay) ---

// callbackValidLocked reports whether a callback for generation gen
// may still act on the controller. Callers hold c.mu.
func (c *Controller) callbackValidLocked(gen uint64) bool {
	return !c.closed && c.handle != nil && gen == c.gen
}

// discardLocked logs and counts a dropped callback. Callers hold c.mu.
func (c *Controller) discardLocked(gen uint64, event string) {
	c.log.Debug("callback discarded", logger.Fields(
		logger.FieldEvent, event,
		logger.FieldState, string(c.state),
		"callback_gen", gen,
		"current_gen", c.gen,
	))
	if c.metrics != nil {
		c.metrics.RecordCallbackDiscarded(context.Background(), string(c.tag))
	}
}

func (c *Controller) onLoadSuccess(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.callbackValidLocked(gen) {
		c.discardLocked(gen, "load_success")
		return
	}
	c.ready = true
	if c.state != StatePresenting {
		c.state = StateReady
	}
	d := time.Since(c.loadStart)
	c.loadTopic.Publish(NewLoaded(c.tag))
	c.log.Info("ad loaded", logger.Fields(logger.FieldDuration, d.Milliseconds()))
	if c.metrics != nil {
		c.metrics.RecordLoad(context.Background(), string(c.tag), observability.OutcomeLoaded, d)
	}
}

func (c *Controller) onLoadFailure(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.callbackValidLocked(gen) {
		c.discardLocked(gen, "load_failure")
		return
	}
	c.ready = false
	if c.state != StatePresenting {
		c.state = StateNotLoaded
	}
	d := time.Since(c.loadStart)
	adErr := errors.LoadFailed(string(c.tag), err)
	c.loadTopic.Publish(NewLoadFailed(c.tag, adErr))
	c.log.Warn("ad load failed", logger.ErrorFields("load", adErr))
	if c.metrics != nil {
		c.metrics.RecordLoad(context.Background(), string(c.tag), observability.OutcomeFailed, d)
	}
}

func (c *Controller) onExpire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.callbackValidLocked(gen) {
		c.discardLocked(gen, "expire")
		return
	}
	c.ready = false
	if c.state != StatePresenting {
		c.state = StateNotLoaded
	}
	adErr := errors.Expired(string(c.tag))
	c.loadTopic.Publish(NewLoadFailed(c.tag, adErr))
	c.log.Warn("ad expired")
	if c.metrics != nil {
		// Time since the load gives the ad's effective lifetime.
		c.metrics.RecordLoad(context.Background(), string(c.tag), observability.OutcomeExpired, time.Since(c.loadStart))
	}
}

func (c *Controller) onPresentation(gen uint64, status PresentationStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.callbackValidLocked(gen) || c.state != StatePresenting {
		c.discardLocked(gen, string(status))
		return
	}
	if status == DidDisappear {
		c.ready = false
		c.state = StateNotLoaded
	}
	c.presentTopic.Publish(status)
	c.log.Debug("presentation event", logger.Fields(logger.FieldEvent, string(status)))
	if status == DidDisappear {
		c.dismissTopic.Publish(c.tag)
		c.sink.Record("adDidDisappear", map[string]any{"tag": string(c.tag)})
		if c.metrics != nil {
			c.metrics.RecordDismissed(context.Background(), string(c.tag))
		}
		c.log.Info("ad dismissed")
	}
}

func (c *Controller) recordSDKOp(op string) {
	if c.metrics != nil {
		c.metrics.RecordSDKOp(context.Background(), op)
	}
}
