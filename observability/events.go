package observability

import (
	"sync"

	"github.com/promoflow/adkit/logger"
)

// EventSink receives structured domain events. Implementations must be
// safe for concurrent use and must not block: controllers record
// events from inside SDK callbacks.
type EventSink interface {
	Record(event string, fields map[string]any)
}

// NopSink discards every event.
type NopSink struct{}

// Record does nothing.
func (NopSink) Record(string, map[string]any) {}

// LogSink writes each event as a structured log line.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink logging through l, or through the global
// logger if l is nil.
func NewLogSink(l *logger.Logger) *LogSink {
	if l == nil {
		l = logger.GetGlobalLogger()
	}
	return &LogSink{log: l}
}

// Record logs the event name and fields at info level.
func (s *LogSink) Record(event string, fields map[string]any) {
	m := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		m[k] = v
	}
	m[logger.FieldEvent] = event
	s.log.Info("event recorded", m)
}

// MultiSink fans each event out to every registered sink.
type MultiSink struct {
	mu    sync.RWMutex
	sinks []EventSink
}

// NewMultiSink creates a fan-out sink.
func NewMultiSink(sinks ...EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add registers another sink.
func (s *MultiSink) Add(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Record delivers the event to every sink in registration order.
func (s *MultiSink) Record(event string, fields map[string]any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sink := range s.sinks {
		sink.Record(event, fields)
	}
}
