package stash

import (
	"fmt"
	"maps"
	"time"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
)

type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(s); t {
	case Debit, Credit:
		return t, nil
	default:
		return "", fmt.Errorf("ledger entry type %q: %w", s, berr.ErrInvalidValue)
	}
}

// LedgerEntry books an amount against a stash. Entries are immutable once created.
type LedgerEntry struct {
	id            shared.ID
	stashID       shared.ID
	entryType     EntryType
	amount        shared.Mula
	upstreamRefID shared.ID
	metadata      Metadata
	createdAt     time.Time

	events shared.Events
}

func NewLedgerEntry(stashID shared.ID, t EntryType, amount shared.Mula, upstreamRef shared.ID, md Metadata) *LedgerEntry {
	e := &LedgerEntry{
		id:            shared.NewID(),
		stashID:       stashID,
		entryType:     t,
		amount:        amount,
		upstreamRefID: upstreamRef,
		metadata:      maps.Clone(md),
	}

	if e.metadata == nil {
		e.metadata = Metadata{}
	}

	meta := e.events.Meta()
	e.createdAt = meta.At
	e.events.Record(LedgerEntryCreated{Meta: meta, EntryID: e.id, StashID: stashID, Type: t, Amount: amount})

	return e
}

func (e *LedgerEntry) ID() shared.ID            { return e.id }
func (e *LedgerEntry) StashID() shared.ID       { return e.stashID }
func (e *LedgerEntry) Type() EntryType          { return e.entryType }
func (e *LedgerEntry) Amount() shared.Mula      { return e.amount }
func (e *LedgerEntry) Asset() shared.Asset      { return e.amount.Asset() }
func (e *LedgerEntry) UpstreamRefID() shared.ID { return e.upstreamRefID }
func (e *LedgerEntry) Metadata() Metadata       { return maps.Clone(e.metadata) }
func (e *LedgerEntry) CreatedAt() time.Time     { return e.createdAt }

func (e *LedgerEntry) Trace(c cbus.Cause)              { e.events.Trace(c) }
func (e *LedgerEntry) DrainEvents() []cbus.DomainEvent { return e.events.DrainEvents() }

type EntrySnapshot struct {
	ID            shared.ID   `json:"id"`
	StashID       shared.ID   `json:"stash_id"`
	Type          EntryType   `json:"type"`
	Amount        shared.Mula `json:"amount"`
	UpstreamRefID shared.ID   `json:"upstream_ref_id"`
	Metadata      Metadata    `json:"metadata"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (e *LedgerEntry) Snapshot() EntrySnapshot {
	return EntrySnapshot{
		ID:            e.id,
		StashID:       e.stashID,
		Type:          e.entryType,
		Amount:        e.amount,
		UpstreamRefID: e.upstreamRefID,
		Metadata:      maps.Clone(e.metadata),
		CreatedAt:     e.createdAt,
	}
}

func RestoreLedgerEntry(s EntrySnapshot) *LedgerEntry {
	md := maps.Clone(s.Metadata)
	if md == nil {
		md = Metadata{}
	}

	return &LedgerEntry{
		id:            s.ID,
		stashID:       s.StashID,
		entryType:     s.Type,
		amount:        s.Amount,
		upstreamRefID: s.UpstreamRefID,
		metadata:      md,
		createdAt:     s.CreatedAt,
	}
}
