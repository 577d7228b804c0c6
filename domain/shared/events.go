package shared

import (
	"time"

	"github.com/google/uuid"

	cbus "github.com/next-trace/stashit/contract/bus"
)

// Meta is the envelope data common to every domain event. Event structs embed it by value.
type Meta struct {
	ID          string    `json:"event_id"`
	At          time.Time `json:"occurred_at"`
	Correlation string    `json:"correlation_id,omitempty"`
	Causation   string    `json:"causation_id,omitempty"`
}

func (m Meta) EventID() string       { return m.ID }
func (m Meta) OccurredAt() time.Time { return m.At }
func (m Meta) CorrelationID() string { return m.Correlation }
func (m Meta) CausationID() string   { return m.Causation }

// Events is the pending-event buffer embedded in aggregates.
//
// It is not safe for concurrent use: the owning service holds the aggregate exclusively
// for the duration of one use case.
type Events struct {
	pending []cbus.DomainEvent
	cause   cbus.Cause
	last    time.Time
	now     func() time.Time
}

// Trace stamps every event recorded from now on with c.
func (b *Events) Trace(c cbus.Cause) { b.cause = c }

// Meta returns fresh metadata for the next event. OccurredAt never goes backwards within one buffer.
func (b *Events) Meta() Meta {
	now := time.Now
	if b.now != nil {
		now = b.now
	}

	at := now().UTC()
	if at.Before(b.last) {
		at = b.last
	}

	b.last = at

	return Meta{
		ID:          uuid.NewString(),
		At:          at,
		Correlation: b.cause.CorrelationID,
		Causation:   b.cause.CausationID,
	}
}

// Record appends e to the buffer.
func (b *Events) Record(e cbus.DomainEvent) { b.pending = append(b.pending, e) }

// DrainEvents removes and returns all pending events in FIFO order.
func (b *Events) DrainEvents() []cbus.DomainEvent {
	out := b.pending
	b.pending = nil

	if out == nil {
		return []cbus.DomainEvent{}
	}

	return out
}

// PendingEvents returns how many events wait for the next drain.
func (b *Events) PendingEvents() int { return len(b.pending) }

// SetClock replaces the time source. Intended for tests.
func (b *Events) SetClock(now func() time.Time) { b.now = now }
