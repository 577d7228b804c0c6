package bus

import "context"

// HeaderPropagator abstracts injecting tracing context into headers.
// Implementations may bridge to OpenTelemetry or any other propagation standard.
// This keeps adapters decoupled from concrete tracing libraries (code-to-interface).
// Implementors should mutate the provided headers map by inserting keys that
// carry the context across process boundaries. Implementations must be safe for concurrent use.
type HeaderPropagator interface {
	Inject(ctx context.Context, headers map[string]string)
}

// NopHeaderPropagator is a no-op implementation useful for tests or when tracing is disabled.
type NopHeaderPropagator struct{}

func (NopHeaderPropagator) Inject(ctx context.Context, headers map[string]string) {
	_ = ctx
	_ = headers
}

// Cause links an event to the chain that produced it.
// CorrelationID names the whole chain (the id of its first event); CausationID is the direct parent event.
type Cause struct {
	CorrelationID string
	CausationID   string
}

// IsZero reports whether no cause is set.
func (c Cause) IsZero() bool { return c.CorrelationID == "" && c.CausationID == "" }

// CauseOf returns the cause for events raised while handling e.
func CauseOf(e DomainEvent) Cause {
	corr := e.CorrelationID()
	if corr == "" {
		corr = e.EventID()
	}

	return Cause{CorrelationID: corr, CausationID: e.EventID()}
}

type (
	causeKey struct{}
	depthKey struct{}
)

// WithCause returns a context carrying c.
func WithCause(ctx context.Context, c Cause) context.Context {
	return context.WithValue(ctx, causeKey{}, c)
}

// CauseFrom returns the cause carried by ctx, or the zero Cause.
func CauseFrom(ctx context.Context) Cause {
	c, _ := ctx.Value(causeKey{}).(Cause)
	return c
}

// WithDepth returns a context carrying the dispatch depth.
func WithDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}

// DepthFrom returns the dispatch depth carried by ctx; 0 outside any handler.
func DepthFrom(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}
