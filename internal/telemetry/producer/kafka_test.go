package producer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"

	"linkerai/backend/internal/telemetry"
)

type memWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestNewKafkaProducer_Disabled(t *testing.T) {
	p, err := NewKafkaProducer(nil, "topic")
	if err != nil || p != nil {
		t.Errorf("NewKafkaProducer(nil brokers) = (%v, %v), want (nil, nil)", p, err)
	}
	p, err = NewKafkaProducer([]string{"localhost:9092"}, "")
	if err != nil || p != nil {
		t.Errorf("NewKafkaProducer(empty topic) = (%v, %v), want (nil, nil)", p, err)
	}
}

func TestKafkaProducer_NilSafe(t *testing.T) {
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &telemetry.Event{EventType: "x"}); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}

func TestKafkaProducer_Emit_KeyedByIdentity(t *testing.T) {
	w := &memWriter{}
	p := &KafkaProducer{writer: w, topic: "linkerai-telemetry"}
	ev := telemetry.NewEvent("onboarding.role_claimed", "id-1", "resolver", map[string]string{"role": "client"})

	if err := p.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "id-1" {
		t.Errorf("key = %q, want id-1", w.msgs[0].Key)
	}
	var got telemetry.Event
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.EventType != "onboarding.role_claimed" || got.Metadata["role"] != "client" {
		t.Errorf("payload = %+v", got)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: err=%v closed=%v", err, w.closed)
	}
}

func TestKafkaProducer_Emit_WriteError(t *testing.T) {
	w := &memWriter{err: errors.New("broker unavailable")}
	p := &KafkaProducer{writer: w, topic: "t"}
	if err := p.Emit(context.Background(), &telemetry.Event{EventType: "x"}); err == nil {
		t.Fatal("expected write error")
	}
}
