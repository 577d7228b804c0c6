// Package nats relays integration events to NATS subjects.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
)

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error
}

// Publisher implements cbus.EventPublisher using an injected NATS-like Client.
type Publisher struct {
	Client     Client
	Propagator cbus.HeaderPropagator
}

var _ cbus.EventPublisher = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithPropagator injects trace context into every message's headers.
func WithPropagator(p cbus.HeaderPropagator) Option {
	return func(pub *Publisher) { pub.Propagator = p }
}

// New creates a new NATS publisher with the provided client.
func New(c Client, opts ...Option) *Publisher {
	p := &Publisher{Client: c, Propagator: cbus.NopHeaderPropagator{}}
	for _, o := range opts {
		o(p)
	}

	return p
}

// PublishIntegration sends e as JSON to its topic, or to opts.TopicOverride when set.
// The message key travels in the "key" header since NATS has no native key.
func (p *Publisher) PublishIntegration(ctx context.Context, e cbus.IntegrationEvent, opts cbus.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.Client == nil {
		return fmt.Errorf("nats publish: %w", berr.ErrPublishFailed)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("nats publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	headers := publishHeaders(opts)
	if p.Propagator != nil {
		p.Propagator.Inject(ctx, headers)
	}

	if err := p.Client.Publish(ctx, subjectFor(e, opts), body, headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats publish: %w", errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func subjectFor(e cbus.IntegrationEvent, o cbus.PublishOptions) string {
	if o.TopicOverride != "" {
		return o.TopicOverride
	}

	return e.Topic()
}

func publishHeaders(o cbus.PublishOptions) map[string]string {
	h := make(map[string]string, len(o.Headers)+1)
	maps.Copy(h, o.Headers)

	if o.Key != "" {
		h["key"] = o.Key
	}

	return h
}
