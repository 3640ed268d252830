package stream

import (
	"sync"

	"github.com/google/uuid"

	"github.com/promoflow/adkit/logger"
)

// DefaultBuffer is the per-subscription channel buffer used when no
// override is given.
const DefaultBuffer = 64

// TopicOption configures a Topic.
type TopicOption func(*topicConfig)

type topicConfig struct {
	buffer int
}

// WithBuffer overrides the per-subscription channel buffer size.
func WithBuffer(n int) TopicOption {
	return func(c *topicConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// Topic is a hot multicast channel. Every subscriber registered at the
// time of a Publish receives the published item in order; subscribers
// registered later see only later items. Delivery is synchronous into
// each subscriber's buffered channel, so a Publish completes before the
// publishing call returns. A subscriber whose buffer is full has the
// item dropped with a warning rather than blocking the publisher.
type Topic[T any] struct {
	name   string
	buffer int

	mu        sync.Mutex
	subs      map[string]*Subscription[T]
	completed bool

	replayLast bool
	last       T
	hasLast    bool
}

// NewTopic creates a hot multicast topic. The name appears in log fields.
func NewTopic[T any](name string, opts ...TopicOption) *Topic[T] {
	cfg := topicConfig{buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Topic[T]{
		name:   name,
		buffer: cfg.buffer,
		subs:   make(map[string]*Subscription[T]),
	}
}

// Subscribe registers a new subscriber and returns its subscription.
// The subscription observes every item published after this call
// returns (and the retained last item, for replay topics).
func (t *Topic[T]) Subscribe() *Subscription[T] {
	return t.subscribe(nil)
}

// SubscribeUntil registers a subscriber whose subscription completes
// automatically after delivering an item for which terminal returns
// true. The terminal item is delivered first, then the subscription is
// removed from the topic and its channel closed.
func (t *Topic[T]) SubscribeUntil(terminal func(T) bool) *Subscription[T] {
	return t.subscribe(terminal)
}

func (t *Topic[T]) subscribe(terminal func(T) bool) *Subscription[T] {
	s := &Subscription[T]{
		id:       uuid.NewString(),
		ch:       make(chan T, t.buffer),
		done:     make(chan struct{}),
		terminal: terminal,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.replayLast && t.hasLast {
		s.ch <- t.last
		if terminal != nil && terminal(t.last) {
			s.finish()
			return s
		}
	}

	if t.completed {
		s.finish()
		return s
	}

	s.topic = t
	t.subs[s.id] = s
	return s
}

// Publish delivers v to every current subscriber and returns the number
// of subscribers it reached. For replay topics the item is retained and
// handed to future subscribers. Publishing to a completed topic is a
// no-op.
func (t *Topic[T]) Publish(v T) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed {
		return 0
	}
	if t.replayLast {
		t.last = v
		t.hasLast = true
	}

	delivered := 0
	for id, s := range t.subs {
		select {
		case s.ch <- v:
			delivered++
		default:
			logger.Warn("subscriber buffer full, dropping item", map[string]interface{}{
				"topic":        t.name,
				"subscription": id,
				"subscribers":  len(t.subs),
			})
		}
		// A terminal item completes the subscription even if the
		// delivery itself was dropped; otherwise the subscriber would
		// wait forever for an item that will never arrive.
		if s.terminal != nil && s.terminal(v) {
			delete(t.subs, id)
			s.finish()
		}
	}
	return delivered
}

// Complete closes the topic: every current subscription is completed
// and future subscribers receive an already-completed subscription
// (after the retained item, for replay topics). Safe to call multiple
// times.
func (t *Topic[T]) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed {
		return
	}
	t.completed = true
	for id, s := range t.subs {
		delete(t.subs, id)
		s.finish()
	}
}

// Completed reports whether Complete has been called.
func (t *Topic[T]) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// SubscriberCount returns the number of active subscriptions.
func (t *Topic[T]) SubscriberCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// unsubscribe removes s from the topic and completes it. Removal and
// channel close happen under the topic lock so no Publish can be
// sending into the channel concurrently.
func (t *Topic[T]) unsubscribe(s *Subscription[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[s.id]; ok {
		delete(t.subs, s.id)
		s.finish()
	}
}

// Replay is a Topic that retains the most recently published item and
// delivers it to each new subscriber before live items. Used for
// outcome channels where a subscriber attaching just after the outcome
// still needs to observe it.
type Replay[T any] struct {
	*Topic[T]
}

// NewReplay creates a replay-last topic.
func NewReplay[T any](name string, opts ...TopicOption) *Replay[T] {
	t := NewTopic[T](name, opts...)
	t.replayLast = true
	return &Replay[T]{Topic: t}
}
