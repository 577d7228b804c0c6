package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	berr "github.com/next-trace/stashit/contract/errors"
)

// DefaultFlushTimeout bounds the flush after a publish when ctx carries no deadline.
const DefaultFlushTimeout = 5 * time.Second

// Config describes the NATS connection used by the relay.
type Config struct {
	URL           string
	Name          string
	ConnTimeout   time.Duration
	ReconnectWait time.Duration
	MaxReconnects int
	FlushTimeout  time.Duration

	// Logger receives connection state changes. Nil discards them.
	Logger *slog.Logger
}

type conn struct {
	nc           *nats.Conn
	flushTimeout time.Duration
}

// Publish sends one message and waits for the server to acknowledge the flush, so a relay
// failure surfaces on the publishing call.
func (c conn) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = data

	for k, v := range headers {
		msg.Header.Set(k, v)
	}

	if err := c.nc.PublishMsg(msg); err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); ok {
		return c.nc.FlushWithContext(ctx)
	}

	return c.nc.FlushTimeout(c.flushTimeout)
}

// Connect dials NATS and returns a Publisher over the connection and a cleanup that drains it.
func Connect(cfg Config, opts ...Option) (*Publisher, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("nats connect: url required: %w", berr.ErrPublishFailed)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	nc, err := nats.Connect(cfg.URL, connOptions(cfg, logger)...)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect %s: %w", cfg.URL, errors.Join(berr.ErrPublishFailed, err))
	}

	logger.Info("nats connected", "url", nc.ConnectedUrl())

	flush := cfg.FlushTimeout
	if flush <= 0 {
		flush = DefaultFlushTimeout
	}

	cleanup := func() {
		if nc.IsClosed() {
			return
		}

		if err := nc.Drain(); err != nil {
			logger.Warn("nats drain failed", "err", err)
			nc.Close()
		}
	}

	return New(conn{nc: nc, flushTimeout: flush}, opts...), cleanup, nil
}

func connOptions(cfg Config, logger *slog.Logger) []nats.Option {
	nopts := []nats.Option{
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	if cfg.Name != "" {
		nopts = append(nopts, nats.Name(cfg.Name))
	}

	if cfg.ConnTimeout > 0 {
		nopts = append(nopts, nats.Timeout(cfg.ConnTimeout))
	}

	if cfg.ReconnectWait > 0 {
		nopts = append(nopts, nats.ReconnectWait(cfg.ReconnectWait))
	}

	if cfg.MaxReconnects != 0 {
		nopts = append(nopts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	return nopts
}
