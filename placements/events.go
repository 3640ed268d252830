package placements

import (
	"time"

	"github.com/promoflow/adkit/interstitial"
)

// EventKind classifies a registry event.
type EventKind string

const (
	EventLoad         EventKind = "load"
	EventPresentation EventKind = "presentation"
	EventDismissed    EventKind = "dismissed"
)

// Event is one lifecycle event on the registry's merged feed. Load
// events carry "loaded" or "failed" (with the error text), presentation
// events carry the presentation status value, dismissed events carry
// "dismissed".
type Event struct {
	Tag    interstitial.Tag `json:"tag"`
	Kind   EventKind        `json:"kind"`
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	Time   time.Time        `json:"time"`
}

// pump mirrors one controller's three passive streams onto the merged
// event topic. The goroutines exit when the controller closes and its
// streams complete. Events of different kinds may interleave in
// arbitrary order; within one kind, publish order is preserved.
func (r *Registry) pump(ctrl *interstitial.Controller) {
	loads := ctrl.LoadStatus()
	presents := ctrl.PresentationStatus()
	dismissed := ctrl.Dismissed()

	r.wg.Add(3)
	go func() {
		defer r.wg.Done()
		for s := range loads.Events() {
			ev := Event{Tag: s.Tag, Kind: EventLoad, Status: "loaded", Time: time.Now()}
			if !s.Loaded() {
				ev.Status = "failed"
				ev.Error = s.Err.Error()
			}
			r.events.Publish(ev)
		}
	}()
	go func() {
		defer r.wg.Done()
		for s := range presents.Events() {
			r.events.Publish(Event{
				Tag:    ctrl.Tag(),
				Kind:   EventPresentation,
				Status: string(s),
				Time:   time.Now(),
			})
		}
	}()
	go func() {
		defer r.wg.Done()
		for tag := range dismissed.Events() {
			r.events.Publish(Event{
				Tag:    tag,
				Kind:   EventDismissed,
				Status: "dismissed",
				Time:   time.Now(),
			})
		}
	}()
}
