package bus

import "time"

// DomainEvent is an immutable record of a state transition on one aggregate instance.
//
// EventType is a stable literal per event shape ("UserStatusUpdated"); the bus routes on it.
// CorrelationID and CausationID return "" when absent.
type DomainEvent interface {
	EventType() string
	EventID() string
	AggregateID() string
	OccurredAt() time.Time
	CorrelationID() string
	CausationID() string
}

// EventSource is implemented by every aggregate that buffers domain events.
// DrainEvents returns the pending events in append order and empties the buffer.
type EventSource interface {
	DrainEvents() []DomainEvent
}
