package bus

import "context"

// EventHandler reacts to domain events of exactly one type.
// EventType is read once at subscription time for routing; it is not re-checked per dispatch.
// Handle may call application services, which may publish further events (saga step).
type EventHandler interface {
	EventType() string
	Handle(ctx context.Context, e DomainEvent) error
}

// NamedHandler lets a handler provide a stable identity used for duplicate detection and logs.
type NamedHandler interface {
	HandlerName() string
}
