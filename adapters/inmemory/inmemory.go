// Package inmemory holds process-local implementations of the repositories, the mailer and the
// integration publisher. They back tests, the example and the CLI.
package inmemory

import (
	"context"
	"maps"
	"sync"

	cbus "github.com/next-trace/stashit/contract/bus"
)

// Publisher is a thread-safe in-memory implementation of cbus.EventPublisher.
// Set Err to make every publish fail.
type Publisher struct {
	mu         sync.Mutex
	Events     []cbus.IntegrationEvent
	Opts       []cbus.PublishOptions
	Err        error
	Propagator cbus.HeaderPropagator
}

var _ cbus.EventPublisher = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithPropagator injects trace context into the headers of every recorded publish.
func WithPropagator(p cbus.HeaderPropagator) Option {
	return func(pub *Publisher) { pub.Propagator = p }
}

// NewPublisher returns an empty recorder.
func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{Propagator: cbus.NopHeaderPropagator{}}
	for _, o := range opts {
		o(p)
	}

	return p
}

func (p *Publisher) PublishIntegration(
	ctx context.Context,
	e cbus.IntegrationEvent,
	opts cbus.PublishOptions,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}

	headers := make(map[string]string, len(opts.Headers))
	maps.Copy(headers, opts.Headers)

	if p.Propagator != nil {
		p.Propagator.Inject(ctx, headers)
	}

	opts.Headers = headers

	p.Events = append(p.Events, e)
	p.Opts = append(p.Opts, opts)

	return nil
}

// Topics returns the topic of every recorded event, in order.
func (p *Publisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Topic())
	}

	return out
}

// Mailer records outgoing mail instead of sending it.
type Mailer struct {
	mu   sync.Mutex
	Sent []Sent
	Err  error
}

// Sent is one recorded message.
type Sent struct {
	To      string
	Subject string
	Text    string
	HTML    string
}
