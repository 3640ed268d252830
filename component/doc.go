// Package component defines the lifecycle interface for the kit's
// long-lived parts and a registry that manages them.
//
// The placement registry and the monitor server both implement
// Component. Applications register them with a Registry, which starts
// them in registration order, stops them in reverse, and aggregates
// their health.
package component
