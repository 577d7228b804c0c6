package nats_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/next-trace/stashit/adapters/nats"
	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
)

type call struct {
	subject string
	data    []byte
	headers map[string]string
}

type fakeClient struct {
	calls []call
	err   error
}

func (f *fakeClient) Publish(_ context.Context, subject string, data []byte, headers map[string]string) error {
	f.calls = append(f.calls, call{subject, data, headers})

	return f.err
}

type integ struct {
	T    string `json:"-"`
	Name string `json:"name"`
}

func (i integ) Topic() string { return i.T }

type traceProp struct{}

func (traceProp) Inject(_ context.Context, h map[string]string) { h["traceparent"] = "00-abc-def-01" }

type unserializable struct{ C chan int }

func (unserializable) Topic() string { return "bad" }

func TestNATS_PublishIntegration(t *testing.T) {
	fc := &fakeClient{}
	pub := nats.New(fc, nats.WithPropagator(traceProp{}))

	if err := pub.PublishIntegration(t.Context(), integ{T: "stashit.StashCreated", Name: "x"}, cbus.PublishOptions{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	po := cbus.PublishOptions{TopicOverride: "orders", Key: "k", Headers: map[string]string{"ph": "pv"}}
	if err := pub.PublishIntegration(t.Context(), integ{T: "unused"}, po); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fc.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(fc.calls))
	}

	first := fc.calls[0]
	if first.subject != "stashit.StashCreated" {
		t.Fatalf("subject mismatch: %s", first.subject)
	}

	var body map[string]string
	if err := json.Unmarshal(first.data, &body); err != nil || body["name"] != "x" {
		t.Fatalf("body=%s err=%v", first.data, err)
	}

	if first.headers["traceparent"] == "" {
		t.Fatalf("trace context not injected: %+v", first.headers)
	}

	p := fc.calls[1]
	if p.subject != "orders" {
		t.Fatalf("topic mismatch: %s", p.subject)
	}

	if p.headers["key"] != "k" || p.headers["ph"] != "pv" {
		t.Fatalf("publish headers mismatch: %+v", p.headers)
	}

	if _, ok := po.Headers["traceparent"]; ok {
		t.Fatalf("caller headers were mutated")
	}
}

func TestNATS_NilClientError(t *testing.T) {
	pub := nats.New(nil)

	err := pub.PublishIntegration(t.Context(), integ{T: "t"}, cbus.PublishOptions{})
	if !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}
}

func TestNATS_SerializationFailure(t *testing.T) {
	fc := &fakeClient{}
	pub := nats.New(fc)

	err := pub.PublishIntegration(t.Context(), unserializable{}, cbus.PublishOptions{})
	if !errors.Is(err, berr.ErrSerializationFailed) {
		t.Fatalf("want ErrSerializationFailed, got %v", err)
	}

	if len(fc.calls) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestNATS_Publish_ErrorWrapping_And_ContextCancel(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	pub := nats.New(fc)

	if err := pub.PublishIntegration(t.Context(), integ{T: "t"}, cbus.PublishOptions{}); !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	fc2 := &fakeClient{err: context.Canceled}
	pub2 := nats.New(fc2)

	err := pub2.PublishIntegration(t.Context(), integ{T: "t"}, cbus.PublishOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if err := pub.PublishIntegration(ctx, integ{T: "t"}, cbus.PublishOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled before send, got %v", err)
	}
}
