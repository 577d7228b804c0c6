package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	amqp "github.com/rabbitmq/amqp091-go"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
)

// DefaultExchange is the topic exchange events are published to.
const DefaultExchange = "stashit.integration"

// Message is one AMQP publishing as handed to a Sender.
type Message struct {
	Exchange   string
	RoutingKey string
	MessageID  string
	Body       []byte
	Headers    map[string]string
}

// Sender delivers messages to the broker.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Publisher implements cbus.EventPublisher over a Sender.
type Publisher struct {
	Sender     Sender
	Exchange   string
	Propagator cbus.HeaderPropagator
}

var _ cbus.EventPublisher = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithPropagator injects trace context into every message's headers.
func WithPropagator(hp cbus.HeaderPropagator) Option {
	return func(p *Publisher) { p.Propagator = hp }
}

// WithExchange overrides DefaultExchange.
func WithExchange(name string) Option {
	return func(p *Publisher) { p.Exchange = name }
}

func New(s Sender, opts ...Option) *Publisher {
	p := &Publisher{Sender: s, Exchange: DefaultExchange}
	for _, o := range opts {
		o(p)
	}

	return p
}

// PublishIntegration publishes e as JSON with its topic as routing key. The message id is taken
// from the "event-id" header when the relay set one.
func (p *Publisher) PublishIntegration(ctx context.Context, e cbus.IntegrationEvent, opts cbus.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.Sender == nil {
		return fmt.Errorf("rabbitmq publish: %w", berr.ErrPublishFailed)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("rabbitmq publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	// copy headers to avoid mutating caller-provided map
	hdrs := make(map[string]string, len(opts.Headers)+4)
	maps.Copy(hdrs, opts.Headers)

	if opts.Key != "" {
		hdrs["key"] = opts.Key
	}

	if p.Propagator != nil {
		p.Propagator.Inject(ctx, hdrs)
	}

	msg := Message{
		Exchange:   p.Exchange,
		RoutingKey: routingKey(e, opts),
		MessageID:  hdrs["event-id"],
		Body:       body,
		Headers:    hdrs,
	}

	if err := p.Sender.Send(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq publish %s: %w", msg.RoutingKey, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func routingKey(e cbus.IntegrationEvent, o cbus.PublishOptions) string {
	if o.TopicOverride != "" {
		return o.TopicOverride
	}

	return e.Topic()
}

func publishing(m Message) amqp.Publishing {
	var h amqp.Table
	if len(m.Headers) > 0 {
		h = amqp.Table{}
		for k, v := range m.Headers {
			h[k] = v
		}
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Headers:      h,
		MessageId:    m.MessageID,
		ContentType:  "application/json",
		Body:         m.Body,
	}
}

type channelSender struct{ ch *amqp.Channel }

func (s channelSender) Send(ctx context.Context, m Message) error {
	return s.ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, publishing(m))
}

// NewWithChannel publishes over an existing channel. The exchange must already exist.
func NewWithChannel(ch *amqp.Channel, opts ...Option) *Publisher {
	return New(channelSender{ch: ch}, opts...)
}
