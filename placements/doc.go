// Package placements manages a set of interstitial controllers, one
// per configured placement tag.
//
// The Registry serializes imperative operations per tag, resolves tags
// to controllers, exposes point-in-time status snapshots, and merges
// every controller's lifecycle events into a single feed for the
// monitor's event stream. It implements component.Component so
// applications can run it under a component.Registry.
package placements
