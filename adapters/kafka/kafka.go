// Package kafka relays integration events to Kafka topics.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
)

// Writer is a minimal Kafka-like writer interface.
// Users can adapt franz-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Publisher implements cbus.EventPublisher using an injected Writer.
type Publisher struct {
	Writer     Writer
	Propagator cbus.HeaderPropagator
}

var _ cbus.EventPublisher = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithPropagator injects trace context into every record's headers.
func WithPropagator(p cbus.HeaderPropagator) Option {
	return func(pub *Publisher) { pub.Propagator = p }
}

// New creates a new Kafka publisher with the provided writer.
func New(w Writer, opts ...Option) *Publisher {
	p := &Publisher{Writer: w, Propagator: cbus.NopHeaderPropagator{}}
	for _, o := range opts {
		o(p)
	}

	return p
}

// PublishIntegration writes e as a JSON record keyed by opts.Key, so that events of one aggregate
// stay in one partition.
func (p *Publisher) PublishIntegration(ctx context.Context, e cbus.IntegrationEvent, opts cbus.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.Writer == nil {
		return fmt.Errorf("kafka publish: %w", berr.ErrPublishFailed)
	}

	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	topic := topicFor(e, opts)
	headers := maps.Clone(opts.Headers)

	if headers == nil {
		headers = map[string]string{}
	}

	if p.Propagator != nil {
		p.Propagator.Inject(ctx, headers)
	}

	var key []byte
	if opts.Key != "" {
		key = []byte(opts.Key)
	}

	if err = p.Writer.Write(ctx, topic, key, val, headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("kafka publish to %q: %w", topic, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func topicFor(e cbus.IntegrationEvent, o cbus.PublishOptions) string {
	if o.TopicOverride != "" {
		return o.TopicOverride
	}

	return e.Topic()
}
