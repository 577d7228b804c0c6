package tracing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/servicebus"
	"github.com/next-trace/stashit/servicebus/tracing"
)

type evt struct{ kind, id string }

func (e evt) EventType() string     { return e.kind }
func (e evt) EventID() string       { return e.id }
func (e evt) AggregateID() string   { return "agg" }
func (e evt) OccurredAt() time.Time { return time.Time{} }
func (e evt) CorrelationID() string { return "" }
func (e evt) CausationID() string   { return "" }

type handler struct {
	typ string
	fn  func(ctx context.Context, e cbus.DomainEvent) error
}

func (h handler) EventType() string                                    { return h.typ }
func (h handler) HandlerName() string                                  { return "h:" + h.typ }
func (h handler) Handle(ctx context.Context, e cbus.DomainEvent) error { return h.fn(ctx, e) }

func newProvider() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)), rec
}

func TestMiddlewareNestsSpans(t *testing.T) {
	tp, rec := newProvider()
	b := servicebus.New(nil, servicebus.WithPublishMiddleware(tracing.Middleware(tp.Tracer("test"))))

	_ = b.Subscribe(handler{typ: "Parent", fn: func(ctx context.Context, _ cbus.DomainEvent) error {
		return b.Publish(ctx, evt{kind: "Child", id: "2"})
	}})

	if err := b.Publish(context.Background(), evt{kind: "Parent", id: "1"}); err != nil {
		t.Fatal(err)
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d", len(spans))
	}

	child, parent := spans[0], spans[1]
	if parent.Name() != "publish Parent" || child.Name() != "publish Child" {
		t.Fatalf("names = %s, %s", parent.Name(), child.Name())
	}

	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Fatal("child span is not nested under parent")
	}
}

func TestMiddlewareRecordsError(t *testing.T) {
	tp, rec := newProvider()
	b := servicebus.New(nil, servicebus.WithPublishMiddleware(tracing.Middleware(tp.Tracer("test"))))

	boom := errors.New("boom")
	_ = b.Subscribe(handler{typ: "X", fn: func(context.Context, cbus.DomainEvent) error { return boom }})

	if err := b.Publish(context.Background(), evt{kind: "X", id: "1"}); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("unexpected spans %+v", spans)
	}
}

func TestPropagatorInjectsTraceparent(t *testing.T) {
	tp, _ := newProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "root")
	defer span.End()

	p := tracing.NewPropagator(nil)

	headers := map[string]string{}
	p.Inject(ctx, headers)

	if headers["traceparent"] == "" {
		t.Fatalf("missing traceparent: %v", headers)
	}

	p.Inject(ctx, nil)

	back := p.Extract(context.Background(), headers)
	if got := trace.SpanContextFromContext(back).TraceID().String(); got != span.SpanContext().TraceID().String() {
		t.Fatalf("trace id = %s", got)
	}
}
