// Package stream provides hot multicast event channels with
// subscribe-before-publish ordering guarantees.
//
// A Topic delivers each published item to every subscriber registered
// before the publish, synchronously into per-subscriber buffered
// channels. This makes the subscribe-then-invoke pattern safe against
// callbacks that fire before the invoking call returns: once Subscribe
// has returned, no subsequent Publish can be missed, regardless of
// which goroutine publishes.
//
// A Replay topic additionally retains the most recent item and hands it
// to each new subscriber first, so an observer attaching just after an
// outcome still sees that outcome.
//
// Subscriptions support both channel-style consumption (Events) and
// pull-style consumption (Next, Collect). SubscribeUntil produces
// subscriptions that complete themselves after a terminal item, used
// for finite flows such as a single presentation cycle.
package stream
