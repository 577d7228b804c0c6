// Package tracing bridges the service bus to OpenTelemetry: one span per published event, and
// W3C trace-context propagation into broker headers.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/servicebus"
)

// TracerName is used when no tracer is supplied.
const TracerName = "github.com/next-trace/stashit/servicebus"

// Middleware starts a span around the delivery of every event. Nested publishes become child spans,
// so a saga cascade shows up as one trace.
func Middleware(tracer trace.Tracer) servicebus.PublishMiddleware {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}

	return func(next servicebus.PublishFunc) servicebus.PublishFunc {
		return func(ctx context.Context, e cbus.DomainEvent) error {
			ctx, span := tracer.Start(ctx, "publish "+e.EventType(),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.String("event.type", e.EventType()),
					attribute.String("event.id", e.EventID()),
					attribute.String("event.aggregate_id", e.AggregateID()),
					attribute.String("event.correlation_id", e.CorrelationID()),
					attribute.Int("bus.depth", cbus.DepthFrom(ctx)),
				),
			)
			defer span.End()

			err := next(ctx, e)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())

				return err
			}

			span.SetStatus(codes.Ok, "")

			return nil
		}
	}
}

// Propagator injects the span context carried by ctx into message headers.
type Propagator struct {
	p propagation.TextMapPropagator
}

var _ cbus.HeaderPropagator = Propagator{}

// NewPropagator uses the W3C trace-context and baggage formats when p is nil.
func NewPropagator(p propagation.TextMapPropagator) Propagator {
	if p == nil {
		p = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}

	return Propagator{p: p}
}

func (pr Propagator) Inject(ctx context.Context, headers map[string]string) {
	if headers == nil || pr.p == nil {
		return
	}

	pr.p.Inject(ctx, propagation.MapCarrier(headers))
}

// Extract is the consumer-side counterpart of Inject.
func (pr Propagator) Extract(ctx context.Context, headers map[string]string) context.Context {
	if pr.p == nil {
		return ctx
	}

	return pr.p.Extract(ctx, propagation.MapCarrier(headers))
}
