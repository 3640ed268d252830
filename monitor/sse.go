package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/promoflow/adkit/interstitial"
)

// keepAliveInterval is how often the event stream emits keep-alive
// comments. It must stay below typical proxy idle timeouts.
const keepAliveInterval = 30 * time.Second

// connectedEvent is the handshake frame sent when an event stream opens.
type connectedEvent struct {
	Placements []interstitial.Tag `json:"placements"`
	Time       time.Time          `json:"time"`
}

// handleEvents streams the registry's merged lifecycle feed as
// Server-Sent Events. Each placement event is one JSON data frame. The
// stream ends when the client disconnects, the registry's feed
// completes, or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.log.Error("Event streaming not supported", map[string]interface{}{
			"remote_addr": r.RemoteAddr,
		})
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's WriteTimeout, so clear the write
	// deadline for this connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.log.Warn("Could not disable write deadline", map[string]interface{}{
			"error": err.Error(),
		})
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := s.registry.Events()
	defer sub.Close()

	handshake, _ := json.Marshal(connectedEvent{
		Placements: s.registry.Tags(),
		Time:       time.Now().UTC(),
	})
	_, _ = fmt.Fprintf(w, "event: connected\n")
	_, _ = fmt.Fprintf(w, "data: %s\n\n", handshake)
	flusher.Flush()

	s.log.Debug("Event stream client connected", map[string]interface{}{
		"remote_addr": r.RemoteAddr,
	})

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Event stream client disconnected", map[string]interface{}{
				"remote_addr": r.RemoteAddr,
				"reason":      ctx.Err().Error(),
			})
			return

		case <-s.streamsDone:
			return

		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			frame, _ := json.Marshal(ev)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()

		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
