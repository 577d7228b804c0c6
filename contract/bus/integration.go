package bus

import (
	"context"
	"encoding/json"
	"time"
)

// EventPublisher hands integration events to a broker. The relay maps domain events onto it;
// the kafka, nats and rabbitmq adapters implement it.
type EventPublisher interface {
	PublishIntegration(ctx context.Context, evt IntegrationEvent, opts PublishOptions) error
}

// PublishOptions controls one integration publish. Key is the partition or message key where the
// transport has one; the relay sets it to the aggregate id. Adapters copy Headers before adding to them.
type PublishOptions struct {
	TopicOverride string
	Key           string
	Headers       map[string]string
}

// IntegrationEvent is anything relayable to a broker. Topic names the destination.
type IntegrationEvent interface{ Topic() string }

// Envelope is the integration form of a domain event as relayed to a broker.
type Envelope struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CausationID   string          `json:"causation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`

	topic string
}

// NewEnvelope wraps a domain event for the given topic. The event itself is serialized as the payload.
func NewEnvelope(topic string, e DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		ID:            e.EventID(),
		Type:          e.EventType(),
		AggregateID:   e.AggregateID(),
		OccurredAt:    e.OccurredAt(),
		CorrelationID: e.CorrelationID(),
		CausationID:   e.CausationID(),
		Payload:       payload,
		topic:         topic,
	}, nil
}

// Topic implements IntegrationEvent.
func (e Envelope) Topic() string { return e.topic }

var _ IntegrationEvent = Envelope{}
