package stashsvc

import (
	"context"

	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/domain/stash"
	"github.com/next-trace/stashit/domain/user"
	"github.com/next-trace/stashit/servicebus"
)

const (
	HandlerOnUserStatusUpdated  = "stashsvc.OnUserStatusUpdated"
	HandlerOnLedgerEntryCreated = "stashsvc.OnLedgerEntryCreated"
)

// OnUserStatusUpdated cascades an owner's status change to their stashes.
func (s *Service) OnUserStatusUpdated() cbus.EventHandler {
	return servicebus.On(HandlerOnUserStatusUpdated, func(ctx context.Context, e user.UserStatusUpdated) error {
		return s.CascadeUserStatus(ctx, e.UserID, e.NewStatus)
	})
}

// OnLedgerEntryCreated books a new entry on the stash balance.
func (s *Service) OnLedgerEntryCreated() cbus.EventHandler {
	return servicebus.On(HandlerOnLedgerEntryCreated, func(ctx context.Context, e stash.LedgerEntryCreated) error {
		return s.ApplyLedgerEntry(ctx, e)
	})
}

// Handlers returns the service's subscribers in subscription order.
func (s *Service) Handlers() []cbus.EventHandler {
	return []cbus.EventHandler{s.OnUserStatusUpdated(), s.OnLedgerEntryCreated()}
}
