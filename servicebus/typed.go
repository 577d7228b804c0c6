package servicebus

import (
	"context"
	"fmt"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
)

type typedHandler[E cbus.DomainEvent] struct {
	name      string
	eventType string
	fn        func(ctx context.Context, e E) error
}

// On builds a handler for the concrete event type E. The routing key is taken from E's zero value,
// so E must be a value event type. A dispatched event that is not an E is reported as
// ErrHandlerTypeMismatch instead of being ignored.
func On[E cbus.DomainEvent](name string, fn func(ctx context.Context, e E) error) cbus.EventHandler {
	var zero E

	return &typedHandler[E]{name: name, eventType: zero.EventType(), fn: fn}
}

func (h *typedHandler[E]) EventType() string   { return h.eventType }
func (h *typedHandler[E]) HandlerName() string { return h.name }

func (h *typedHandler[E]) Handle(ctx context.Context, e cbus.DomainEvent) error {
	ev, ok := e.(E)
	if !ok {
		return fmt.Errorf("%s expects %s, got %T: %w", h.name, h.eventType, e, berr.ErrHandlerTypeMismatch)
	}

	return h.fn(ctx, ev)
}

// Expect recovers the concrete event shape inside a hand-written handler.
func Expect[E cbus.DomainEvent](handler string, e cbus.DomainEvent) (E, error) {
	ev, ok := e.(E)
	if !ok {
		var zero E
		return zero, fmt.Errorf("%s expects %T, got %T: %w", handler, zero, e, berr.ErrHandlerTypeMismatch)
	}

	return ev, nil
}

// Subscribe registers several handlers in order, stopping at the first error.
func Subscribe(b cbus.Bus, handlers ...cbus.EventHandler) error {
	for _, h := range handlers {
		if err := b.Subscribe(h); err != nil {
			return err
		}
	}

	return nil
}
