package app

import (
	"context"
	"fmt"

	"github.com/next-trace/stashit/adapters/inmemory"
	"github.com/next-trace/stashit/adapters/kafka"
	"github.com/next-trace/stashit/adapters/nats"
	"github.com/next-trace/stashit/adapters/rabbitmq"
	"github.com/next-trace/stashit/config"
	cbus "github.com/next-trace/stashit/contract/bus"
)

// relayPublisher returns nil when relaying is off.
func (a *App) relayPublisher(_ context.Context, cfg config.Config, prop cbus.HeaderPropagator) (cbus.EventPublisher, error) {
	switch cfg.Bus.Relay {
	case "none", "":
		return nil, nil
	case "memory":
		a.Relayed = inmemory.NewPublisher(inmemory.WithPropagator(prop))
		return a.Relayed, nil
	case "nats":
		pub, cleanup, err := nats.Connect(nats.Config{
			URL:    cfg.NATS.URL,
			Name:   cfg.NATS.Name,
			Logger: a.logger.With("component", "nats"),
		}, nats.WithPropagator(prop))
		if err != nil {
			return nil, err
		}

		a.onClose(cleanup)

		return pub, nil
	case "kafka":
		pub, cleanup, err := kafka.Connect(kafka.Config{
			Brokers:     cfg.Kafka.Brokers,
			ClientID:    cfg.Kafka.ClientID,
			Acks:        cfg.Kafka.Acks,
			Compression: cfg.Kafka.Compression,
		}, kafka.WithPropagator(prop))
		if err != nil {
			return nil, err
		}

		a.onClose(cleanup)

		return pub, nil
	case "rabbitmq":
		pub, cleanup, err := rabbitmq.Connect(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange}, rabbitmq.WithPropagator(prop))
		if err != nil {
			return nil, err
		}

		a.onClose(cleanup)

		return pub, nil
	default:
		return nil, fmt.Errorf("relay %q not supported", cfg.Bus.Relay)
	}
}
