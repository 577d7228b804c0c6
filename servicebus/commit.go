package servicebus

import (
	"context"

	cbus "github.com/next-trace/stashit/contract/bus"
)

// Commit runs one persistence cycle for agg: save, then drain and publish its events in order.
// Nothing is drained when save fails, so the pending events stay with the aggregate.
// A publish error is returned after the save took effect; the caller decides whether to retry.
func Commit(ctx context.Context, pub cbus.Publisher, agg cbus.EventSource, save func(ctx context.Context) error) error {
	if err := save(ctx); err != nil {
		return err
	}

	return pub.PublishMany(ctx, agg.DrainEvents())
}
