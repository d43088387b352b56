// Package events provides outbound event sink implementations. Sinks fan
// domain events out to logs, HTTP webhooks, WebSocket subscribers, and the
// metrics registry; publishing is fire-and-forget relative to the state
// mutations that trigger it.
package events

import (
	"context"

	"github.com/plantline/plantline/internal/core/ports"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	logger ports.Logger
}

// NewLogSink creates a sink that logs events at debug level.
func NewLogSink(logger ports.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs the event.
func (s *LogSink) Publish(_ context.Context, topic string, payload interface{}) error {
	s.logger.Debug("Event published", "topic", topic, "payload", payload)
	return nil
}

// MultiSink fans an event out to several sinks. Every sink sees every event;
// the first error is returned after all sinks ran.
type MultiSink struct {
	sinks []ports.EventSink
}

// NewMultiSink creates a fan-out sink.
func NewMultiSink(sinks ...ports.EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Publish delivers the event to every sink.
func (s *MultiSink) Publish(ctx context.Context, topic string, payload interface{}) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, topic, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ ports.EventSink = (*LogSink)(nil)
	_ ports.EventSink = (*MultiSink)(nil)
)
