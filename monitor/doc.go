// Package monitor exposes a read-only HTTP surface for observing ad
// placements at runtime.
//
// The server serves component health on /healthz, build information on
// /version, and the placement API under /api/v1: a snapshot of every
// placement, a single placement by tag, and the merged lifecycle event
// feed as a Server-Sent Events stream on /api/v1/events. When an auth
// secret is configured, the /api/v1 routes require a Bearer token signed
// with HS256.
//
// The server implements component.Component, so it is normally started
// and stopped through a component.Registry alongside the placement
// registry it observes:
//
//	reg, _ := placements.New(port, cfg.Placements)
//	srv, _ := monitor.New(cfg.Monitor, reg, monitor.WithComponents(components))
//	components.Register(reg)
//	components.Register(srv)
//	components.StartAll(ctx)
package monitor
