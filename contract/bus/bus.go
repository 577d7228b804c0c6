package bus

import "context"

// Publisher is the side of the bus that application services depend on.
type Publisher interface {
	Publish(ctx context.Context, e DomainEvent) error
	PublishMany(ctx context.Context, events []DomainEvent) error
}

// Bus is a minimal, tech-agnostic interface that mirrors the capabilities of the
// concrete service bus. This interface is intended for consumers that want to depend only on contracts.
type Bus interface {
	Publisher

	// Subscribe registers a handler under the event type it declares.
	Subscribe(h EventHandler) error
}
