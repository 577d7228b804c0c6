package servicebus

import (
	"context"
	"errors"
	"fmt"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
)

// DefaultTopicPrefix prefixes relayed topics: "stashit.StashCreated".
const DefaultTopicPrefix = "stashit"

type relay struct {
	pub       cbus.EventPublisher
	eventType string
	prefix    string
	headers   map[string]string
}

// RelayOption configures a relay handler.
type RelayOption func(*relay)

// WithTopicPrefix replaces DefaultTopicPrefix.
func WithTopicPrefix(p string) RelayOption { return func(r *relay) { r.prefix = p } }

// WithRelayHeaders adds static headers to every relayed message.
func WithRelayHeaders(h map[string]string) RelayOption {
	return func(r *relay) {
		for k, v := range h {
			r.headers[k] = v
		}
	}
}

// NewRelay returns a handler that forwards events of eventType to pub as integration envelopes.
// It is an ordinary subscriber: a broker error fails the publish like any other handler error.
func NewRelay(pub cbus.EventPublisher, eventType string, opts ...RelayOption) cbus.EventHandler {
	r := &relay{pub: pub, eventType: eventType, prefix: DefaultTopicPrefix, headers: map[string]string{}}
	for _, o := range opts {
		o(r)
	}

	return r
}

func (r *relay) EventType() string   { return r.eventType }
func (r *relay) HandlerName() string { return "relay:" + r.eventType }

func (r *relay) topic() string {
	if r.prefix == "" {
		return r.eventType
	}

	return r.prefix + "." + r.eventType
}

func (r *relay) Handle(ctx context.Context, e cbus.DomainEvent) error {
	if r.pub == nil {
		return fmt.Errorf("relay %s: %w", r.eventType, berr.ErrPublishFailed)
	}

	env, err := cbus.NewEnvelope(r.topic(), e)
	if err != nil {
		return fmt.Errorf("relay %s serialize: %w", r.eventType, errors.Join(berr.ErrSerializationFailed, err))
	}

	headers := make(map[string]string, len(r.headers)+2)
	for k, v := range r.headers {
		headers[k] = v
	}

	headers["event-type"] = e.EventType()
	headers["event-id"] = e.EventID()

	return r.pub.PublishIntegration(ctx, env, cbus.PublishOptions{Key: e.AggregateID(), Headers: headers})
}

// RelayAll subscribes one relay per event type.
func RelayAll(b cbus.Bus, pub cbus.EventPublisher, eventTypes []string, opts ...RelayOption) error {
	for _, t := range eventTypes {
		if err := b.Subscribe(NewRelay(pub, t, opts...)); err != nil {
			return err
		}
	}

	return nil
}
