// Package audit emits operational events for remediation runs so downstream
// consumers can track who changed school records and when.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the validation engine.
const (
	EventRunStarted     = "validation.run.started"
	EventRunCompleted   = "validation.run.completed"
	EventRunFailed      = "validation.run.failed"
	EventRolledBack     = "validation.session.rolled_back"
	EventSessionsPurged = "validation.sessions.purged"
)

// Event is one operational audit record. SessionID keys the Kafka partition
// so events for a run stay ordered.
type Event struct {
	Type       string    `json:"type"`
	SessionID  uuid.UUID `json:"session_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	ClientIP   string    `json:"client_ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Publisher delivers audit events. Publishing is best-effort: the engine
// never fails a run because the audit pipeline is down.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}

// Nop discards all events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
