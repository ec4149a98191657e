package telemetry

import (
	"context"
	"time"
)

// Event is a single onboarding telemetry event. It is written to Kafka as JSON and to OTel Logs as a record.
type Event struct {
	IdentityID string            `json:"identityId,omitempty"`
	SessionID  string            `json:"sessionId,omitempty"`
	EventType  string            `json:"eventType"`
	Source     string            `json:"source,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// NewEvent returns an Event stamped with the current UTC time.
func NewEvent(eventType, identityID, source string, metadata map[string]string) *Event {
	return &Event{
		IdentityID: identityID,
		EventType:  eventType,
		Source:     source,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
}

// EventEmitter emits telemetry events (e.g. to OTel Logs or Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// MultiEmitter sends every event to each non-nil emitter and returns the first error.
type MultiEmitter []EventEmitter

// Emit implements EventEmitter.
func (m MultiEmitter) Emit(ctx context.Context, event *Event) error {
	var first error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
