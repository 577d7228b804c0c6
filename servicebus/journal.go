package servicebus

import (
	"context"
	"sync"

	cbus "github.com/next-trace/stashit/contract/bus"
)

// Journal records every event offered to the bus, in publish order, before it is dispatched.
// Nested publishes therefore appear right after the event whose handler caused them.
type Journal struct {
	mu     sync.Mutex
	events []cbus.DomainEvent
}

// NewJournal returns an empty journal. Install it with WithPublishMiddleware(j.Middleware()).
func NewJournal() *Journal { return &Journal{} }

// Middleware returns the recording middleware.
func (j *Journal) Middleware() PublishMiddleware {
	return func(next PublishFunc) PublishFunc {
		return func(ctx context.Context, e cbus.DomainEvent) error {
			j.mu.Lock()
			j.events = append(j.events, e)
			j.mu.Unlock()

			return next(ctx, e)
		}
	}
}

// Events returns a copy of the recorded events.
func (j *Journal) Events() []cbus.DomainEvent {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]cbus.DomainEvent(nil), j.events...)
}

// Types returns the recorded event types in order.
func (j *Journal) Types() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]string, 0, len(j.events))
	for _, e := range j.events {
		out = append(out, e.EventType())
	}

	return out
}

// Reset forgets everything recorded so far.
func (j *Journal) Reset() {
	j.mu.Lock()
	j.events = nil
	j.mu.Unlock()
}
