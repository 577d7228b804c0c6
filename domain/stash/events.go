package stash

import (
	"github.com/next-trace/stashit/domain/shared"
)

const (
	EventStashCreated        = "StashCreated"
	EventStashRenamed        = "StashRenamed"
	EventStashStatusUpdated  = "StashStatusUpdated"
	EventStashBalanceUpdated = "StashBalanceUpdated"
	EventLedgerEntryCreated  = "LedgerEntryCreated"
)

var EventTypes = []string{
	EventStashCreated,
	EventStashRenamed,
	EventStashStatusUpdated,
	EventStashBalanceUpdated,
	EventLedgerEntryCreated,
}

type StashCreated struct {
	shared.Meta
	StashID shared.ID `json:"stash_id"`
	OwnerID shared.ID `json:"owner_id"`
	Name    string    `json:"name"`
}

func (StashCreated) EventType() string     { return EventStashCreated }
func (e StashCreated) AggregateID() string { return e.StashID.String() }

type StashRenamed struct {
	shared.Meta
	StashID shared.ID `json:"stash_id"`
	OldName string    `json:"old_name"`
	NewName string    `json:"new_name"`
}

func (StashRenamed) EventType() string     { return EventStashRenamed }
func (e StashRenamed) AggregateID() string { return e.StashID.String() }

type StashStatusUpdated struct {
	shared.Meta
	StashID   shared.ID `json:"stash_id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
}

func (StashStatusUpdated) EventType() string     { return EventStashStatusUpdated }
func (e StashStatusUpdated) AggregateID() string { return e.StashID.String() }

type StashBalanceUpdated struct {
	shared.Meta
	StashID shared.ID   `json:"stash_id"`
	Balance shared.Mula `json:"balance"`
}

func (StashBalanceUpdated) EventType() string     { return EventStashBalanceUpdated }
func (e StashBalanceUpdated) AggregateID() string { return e.StashID.String() }

// LedgerEntryCreated carries what balance bookkeeping needs so handlers do not reload the entry.
type LedgerEntryCreated struct {
	shared.Meta
	EntryID shared.ID   `json:"entry_id"`
	StashID shared.ID   `json:"stash_id"`
	Type    EntryType   `json:"entry_type"`
	Amount  shared.Mula `json:"amount"`
}

func (LedgerEntryCreated) EventType() string     { return EventLedgerEntryCreated }
func (e LedgerEntryCreated) AggregateID() string { return e.EntryID.String() }
