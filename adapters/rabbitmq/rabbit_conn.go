package rabbitmq

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/stashit/contract/errors"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Config describes the broker connection. An empty Exchange means DefaultExchange.
type Config struct {
	URL         string
	Exchange    string
	ConnTimeout time.Duration
}

// reconnectingSender owns one connection and channel and replaces both whenever the broker
// closes the connection.
type reconnectingSender struct {
	cfg Config

	mu    sync.RWMutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	ready chan struct{} // closed while ch is usable

	closed chan struct{}
	once   sync.Once
}

func newReconnectingSender(cfg Config) *reconnectingSender {
	rs := &reconnectingSender{
		cfg:    cfg,
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}

	go rs.run()

	return rs
}

func (rs *reconnectingSender) Send(ctx context.Context, m Message) error {
	rs.mu.RLock()
	ch, ready := rs.ch, rs.ready
	rs.mu.RUnlock()

	if ch == nil {
		select {
		case <-ready:
		case <-rs.closed:
			return fmt.Errorf("%w: rabbitmq sender closed", berr.ErrPublishFailed)
		case <-ctx.Done():
			return ctx.Err()
		}

		rs.mu.RLock()
		ch = rs.ch
		rs.mu.RUnlock()

		if ch == nil {
			return fmt.Errorf("%w: rabbitmq not connected", berr.ErrPublishFailed)
		}
	}

	return ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, publishing(m))
}

func (rs *reconnectingSender) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(rs.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "stashit"},
		Dial:       amqp.DefaultDial(rs.cfg.ConnTimeout),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if err := ch.ExchangeDeclare(rs.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, nil, err
	}

	return conn, ch, nil
}

func (rs *reconnectingSender) run() {
	backoff := minBackoff

	for {
		select {
		case <-rs.closed:
			return
		default:
		}

		conn, ch, err := rs.dial()
		if err != nil {
			if !rs.sleep(jittered(backoff)) {
				return
			}

			backoff = min(backoff*2, maxBackoff)

			continue
		}

		backoff = minBackoff
		notify := conn.NotifyClose(make(chan *amqp.Error, 1))

		rs.mu.Lock()
		rs.conn, rs.ch = conn, ch
		close(rs.ready)
		rs.mu.Unlock()

		select {
		case <-rs.closed:
			_ = ch.Close()
			_ = conn.Close()

			return
		case <-notify:
		}

		rs.mu.Lock()
		rs.conn, rs.ch = nil, nil
		rs.ready = make(chan struct{})
		rs.mu.Unlock()

		_ = ch.Close()
		_ = conn.Close()
	}
}

// sleep waits for d and reports false when the sender was closed meanwhile.
func (rs *reconnectingSender) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-rs.closed:
		return false
	case <-t.C:
		return true
	}
}

func jittered(d time.Duration) time.Duration {
	// #nosec G404 -- non-crypto RNG is acceptable for backoff jitter
	j := time.Duration(rand.Int64N(int64(d/4) + 1)) //nolint:gosec // backoff jitter

	return min(d+j, maxBackoff)
}

func (rs *reconnectingSender) close() {
	rs.once.Do(func() {
		close(rs.closed)

		rs.mu.Lock()
		defer rs.mu.Unlock()

		if rs.ch != nil {
			_ = rs.ch.Close()
			rs.ch = nil
		}

		if rs.conn != nil {
			_ = rs.conn.Close()
			rs.conn = nil
		}
	})
}

// Connect dials RabbitMQ in the background with auto-reconnect, declares the topic exchange and
// returns a Publisher and a cleanup. Publishes wait for the first connection or ctx.
func Connect(cfg Config, opts ...Option) (*Publisher, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrPublishFailed)
	}

	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}

	sender := newReconnectingSender(cfg)
	pub := New(sender, append([]Option{WithExchange(cfg.Exchange)}, opts...)...)

	return pub, sender.close, nil
}
