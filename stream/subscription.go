package stream

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Subscription is one subscriber's view of a Topic. Items arrive on
// Events() in publish order; the channel is closed when the
// subscription completes (topic completed, terminal item delivered, or
// Close called). Next and Collect offer pull-style access over the same
// channel.
type Subscription[T any] struct {
	id       string
	topic    *Topic[T]
	ch       chan T
	done     chan struct{}
	terminal func(T) bool

	mu     sync.Mutex
	closed bool
}

// ID returns the subscription's unique identifier.
func (s *Subscription[T]) ID() string {
	return s.id
}

// Events returns the receive channel. It is closed when the
// subscription completes; items buffered before completion remain
// readable after close.
func (s *Subscription[T]) Events() <-chan T {
	return s.ch
}

// Done returns a channel closed when the subscription has completed.
// Buffered items may still be pending on Events() at that point.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Next blocks until the next item, completion, or context cancellation.
// The boolean reports whether an item was received; false with a nil
// error means the subscription completed.
func (s *Subscription[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case v, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return v, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Collect drains the subscription until completion and returns every
// received item. On context cancellation it returns the items received
// so far along with the context error.
func (s *Subscription[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for {
		v, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Close detaches the subscription from its topic and completes it.
// Safe to call multiple times and safe concurrently with Publish.
func (s *Subscription[T]) Close() {
	if s.topic != nil {
		s.topic.unsubscribe(s)
		return
	}
	s.finish()
}

// finish completes the subscription exactly once. For attached
// subscriptions the caller must hold the topic lock so close cannot
// race a Publish send.
func (s *Subscription[T]) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	close(s.done)
}

// Single returns a detached, already-completed subscription carrying
// exactly one item.
func Single[T any](v T) *Subscription[T] {
	return newDetached([]T{v})
}

// Completed returns a detached subscription that completes without
// emitting anything.
func Completed[T any]() *Subscription[T] {
	return newDetached[T](nil)
}

func newDetached[T any](items []T) *Subscription[T] {
	ch := make(chan T, len(items))
	for _, v := range items {
		ch <- v
	}
	close(ch)
	done := make(chan struct{})
	close(done)
	return &Subscription[T]{
		id:     uuid.NewString(),
		ch:     ch,
		done:   done,
		closed: true,
	}
}
