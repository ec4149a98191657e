// Package producer publishes onboarding telemetry events to a message broker.
package producer

import (
	"context"

	"linkerai/backend/internal/telemetry"
)

// Producer emits telemetry events. It satisfies telemetry.EventEmitter so it can sit in a MultiEmitter.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; use telemetry.EmitAsync from request paths.
	Emit(ctx context.Context, event *telemetry.Event) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
