package servicebus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
)

// DefaultMaxDepth bounds how deeply handlers may nest publishes before the bus refuses.
const DefaultMaxDepth = 16

// Bus is an in-process domain event dispatcher.
// Publishing is synchronous: every handler subscribed to the event type runs on the caller's
// goroutine, in registration order, and nested publishes complete before the handler returns.
//
// Bus is concurrency-safe and contains no global state.
type Bus struct {
	mu sync.RWMutex

	handlers map[string][]entry

	// publish middleware executed in registration order (outermost first)
	mw []PublishMiddleware

	maxDepth int
	logger   *slog.Logger
}

type entry struct {
	key  string
	name string
	h    cbus.EventHandler
}

var _ cbus.Bus = (*Bus)(nil)

// PublishFunc delivers one event.
type PublishFunc func(ctx context.Context, e cbus.DomainEvent) error

// PublishMiddleware wraps delivery of every single event. Middlewares are executed in registration order.
type PublishMiddleware func(next PublishFunc) PublishFunc

// BusOption configures a Bus instance.
type BusOption func(*Bus)

// WithPublishMiddleware registers publish middleware via an option.
func WithPublishMiddleware(mw ...PublishMiddleware) BusOption {
	return func(b *Bus) { b.mw = append(b.mw, mw...) }
}

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.maxDepth = n
		}
	}
}

// New constructs a new Bus. A nil logger discards output.
func New(logger *slog.Logger, opts ...BusOption) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &Bus{
		handlers: make(map[string][]entry),
		maxDepth: DefaultMaxDepth,
		logger:   logger,
	}

	for _, o := range opts {
		o(b)
	}

	return b
}

// Subscribe registers h under the event type it declares. Multiple handlers per type are allowed;
// subscribing the same handler twice for a type is rejected with ErrHandlerExists.
func (b *Bus) Subscribe(h cbus.EventHandler) error {
	if h == nil || isNilPointer(h) {
		return fmt.Errorf("subscribe: %w", berr.ErrInvalidHandler)
	}

	typ := h.EventType()
	if typ == "" {
		return fmt.Errorf("subscribe %s: empty event type: %w", handlerName(h), berr.ErrInvalidHandler)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := handlerKey(h)
	for _, ent := range b.handlers[typ] {
		if ent.key == key {
			return fmt.Errorf("subscribe %s to %s: %w", ent.name, typ, berr.ErrHandlerExists)
		}
	}

	b.handlers[typ] = append(b.handlers[typ], entry{key: key, name: handlerName(h), h: h})

	b.logger.Debug("handler subscribed", "event_type", typ, "handler", handlerName(h))

	return nil
}

// Handlers returns the names of the handlers registered for eventType in dispatch order.
func (b *Bus) Handlers(eventType string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.handlers[eventType]))
	for _, ent := range b.handlers[eventType] {
		names = append(names, ent.name)
	}

	return names
}

// Publish delivers e to every handler registered for its type, in registration order.
// The first handler error stops dispatch and is returned as a *HandlerError; later handlers are not invoked.
func (b *Bus) Publish(ctx context.Context, e cbus.DomainEvent) error {
	if e == nil || isNilPointer(e) {
		return fmt.Errorf("publish: %w", berr.ErrInvalidEvent)
	}

	depth := cbus.DepthFrom(ctx)
	if depth >= b.maxDepth {
		b.logger.ErrorContext(ctx, "publish refused: recursion limit",
			"event_type", e.EventType(), "event_id", e.EventID(), "depth", depth)

		return fmt.Errorf("publish %s at depth %d: %w", e.EventType(), depth, berr.ErrRecursionLimit)
	}

	final := b.dispatch
	for i := len(b.mw) - 1; i >= 0; i-- {
		final = b.mw[i](final)
	}

	return final(ctx, e)
}

// PublishMany publishes events one at a time, in order, stopping at the first failure.
// Cancellation of ctx is observed between events.
func (b *Bus) PublishMany(ctx context.Context, events []cbus.DomainEvent) error {
	for i, e := range events {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("publish many: stopped before event %d of %d: %w", i+1, len(events), err)
		}

		if err := b.Publish(ctx, e); err != nil {
			return err
		}
	}

	return nil
}

func (b *Bus) dispatch(ctx context.Context, e cbus.DomainEvent) error {
	b.mu.RLock()
	entries := slices.Clone(b.handlers[e.EventType()])
	b.mu.RUnlock()

	depth := cbus.DepthFrom(ctx)

	b.logger.DebugContext(ctx, "publish",
		"event_type", e.EventType(),
		"event_id", e.EventID(),
		"aggregate_id", e.AggregateID(),
		"handlers", len(entries),
		"depth", depth,
	)

	if len(entries) == 0 {
		return nil
	}

	hctx := cbus.WithCause(cbus.WithDepth(ctx, depth+1), cbus.CauseOf(e))

	for _, ent := range entries {
		if err := ent.h.Handle(hctx, e); err != nil {
			b.logFailure(ctx, e, ent, err)

			return &HandlerError{
				EventType: e.EventType(),
				EventID:   e.EventID(),
				Handler:   ent.name,
				Err:       err,
			}
		}
	}

	return nil
}

func (b *Bus) logFailure(ctx context.Context, e cbus.DomainEvent, ent entry, err error) {
	level := slog.LevelWarn
	msg := "handler failed"

	if errors.Is(err, berr.ErrHandlerTypeMismatch) {
		level = slog.LevelError
		msg = "handler received an event of the wrong shape"
	}

	b.logger.Log(ctx, level, msg,
		"event_type", e.EventType(),
		"event_id", e.EventID(),
		"handler", ent.name,
		"err", err,
	)
}

// HandlerError reports the handler that failed while an event was being dispatched.
// errors.Is(err, ErrHandlerFailed) holds, and the handler's own error stays reachable.
type HandlerError struct {
	EventType string
	EventID   string
	Handler   string
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handle %s (%s) by %s: %v", e.EventType, e.EventID, e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() []error { return []error{berr.ErrHandlerFailed, e.Err} }

func handlerName(h cbus.EventHandler) string {
	if n, ok := h.(cbus.NamedHandler); ok {
		return n.HandlerName()
	}

	return reflect.TypeOf(h).String()
}

// handlerKey identifies a handler for duplicate detection: its name when it has one,
// the pointer identity for pointer handlers, the dynamic type otherwise.
func handlerKey(h cbus.EventHandler) string {
	if n, ok := h.(cbus.NamedHandler); ok {
		return "name:" + n.HandlerName()
	}

	v := reflect.ValueOf(h)
	if v.Kind() == reflect.Pointer {
		return fmt.Sprintf("ptr:%s@%x", v.Type().String(), v.Pointer())
	}

	return "type:" + v.Type().String()
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
