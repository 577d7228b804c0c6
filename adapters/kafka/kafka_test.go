package kafka_test

import (
	"context"
	"errors"
	"testing"

	"github.com/next-trace/stashit/adapters/kafka"
	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
)

type record struct {
	topic   string
	key     []byte
	value   []byte
	headers map[string]string
}

type fakeWriter struct {
	calls []record
	err   error
}

func (f *fakeWriter) Write(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	f.calls = append(f.calls, record{topic, key, value, headers})

	return f.err
}

type ev struct{ Name string }

func (ev) Topic() string { return "stashit.StashCreated" }

type traceProp struct{}

func (traceProp) Inject(_ context.Context, h map[string]string) { h["traceparent"] = "00-abc-def-01" }

func TestKafka_PublishIntegration(t *testing.T) {
	fw := &fakeWriter{}
	pub := kafka.New(fw, kafka.WithPropagator(traceProp{}))

	po := cbus.PublishOptions{TopicOverride: "evt.orders", Key: "key1", Headers: map[string]string{"ph": "pv"}}

	if err := pub.PublishIntegration(t.Context(), ev{Name: "E"}, po); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fw.calls) != 1 {
		t.Fatalf("want 1, got %d", len(fw.calls))
	}

	p := fw.calls[0]
	if p.topic != "evt.orders" {
		t.Fatalf("topic: %s", p.topic)
	}

	if string(p.key) != "key1" {
		t.Fatalf("key: %s", string(p.key))
	}

	if p.headers["ph"] != "pv" || p.headers["traceparent"] == "" {
		t.Fatalf("pub headers: %+v", p.headers)
	}

	if _, ok := po.Headers["traceparent"]; ok {
		t.Fatalf("caller headers were mutated")
	}
}

func TestKafka_Publish_DefaultTopic_WithPointerEvent(t *testing.T) {
	fw := &fakeWriter{}
	pub := kafka.New(fw)

	if err := pub.PublishIntegration(t.Context(), &ev{Name: "E"}, cbus.PublishOptions{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fw.calls) != 1 {
		t.Fatalf("calls: %d", len(fw.calls))
	}

	if fw.calls[0].topic != "stashit.StashCreated" {
		t.Fatalf("topic: %s", fw.calls[0].topic)
	}

	if fw.calls[0].key != nil {
		t.Fatalf("no key expected, got %q", fw.calls[0].key)
	}
}

func TestKafka_NilWriterError(t *testing.T) {
	pub := kafka.New(nil)

	err := pub.PublishIntegration(t.Context(), ev{Name: "E"}, cbus.PublishOptions{})
	if !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}
}

func TestKafka_WriteErrors(t *testing.T) {
	pub := kafka.New(&fakeWriter{err: errors.New("broker down")})

	if err := pub.PublishIntegration(t.Context(), ev{}, cbus.PublishOptions{}); !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}

	pub = kafka.New(&fakeWriter{err: context.DeadlineExceeded})

	if err := pub.PublishIntegration(t.Context(), ev{}, cbus.PublishOptions{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

func TestConnect_ConfigErrors(t *testing.T) {
	cases := map[string]kafka.Config{
		"no brokers":      {},
		"bad acks":        {Brokers: []string{"localhost:9092"}, Acks: "some"},
		"bad compression": {Brokers: []string{"localhost:9092"}, Compression: "brotli"},
		"bad sasl":        {Brokers: []string{"localhost:9092"}, SASL: &kafka.SASLConfig{Mechanism: "GSSAPI"}},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := kafka.Connect(cfg)
			if !errors.Is(err, berr.ErrPublishFailed) {
				t.Fatalf("want ErrPublishFailed, got %v", err)
			}
		})
	}
}

func TestConnect_BuildsClientWithoutDialing(t *testing.T) {
	cfg := kafka.Config{
		Brokers:     []string{"127.0.0.1:1"},
		Acks:        "leader",
		Compression: "zstd",
		SASL:        &kafka.SASLConfig{Mechanism: kafka.MechanismScramSHA512, Username: "u", Password: "p"},
	}

	pub, cleanup, err := kafka.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	defer cleanup()

	if pub.Writer == nil {
		t.Fatalf("writer not set")
	}
}
