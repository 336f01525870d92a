package events

import (
	"context"
	"sync"
)

// Event types, one per observable state transition. Downstream indexers
// reconstruct the full settlement state from this stream alone.
const (
	TypeRuleCreated        = "RuleCreated"
	TypeCommitted          = "Committed"
	TypeRevealed           = "Revealed"
	TypeFeeQuoted          = "FeeQuoted"
	TypeFeeUpdateScheduled = "FeeUpdateScheduled"
	TypeFeeUpdateExecuted  = "FeeUpdateExecuted"
	TypeOutcomeFinalized   = "OutcomeFinalized"
)

// Event is one append-only stream entry. Payload is a JSON-serializable
// struct from payloads.go.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Sink receives events in emission order. The core writes to sinks but never
// reads from them; emission failures are logged and do not abort the
// operation that produced the event.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// Multi fans an event out to every sink in order.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}

// Recorder collects events in memory. Test helper.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) ByType(eventType string) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}
