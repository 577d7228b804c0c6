package stash

import (
	"maps"
	"slices"
	"time"

	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/domain/shared"
)

// Metadata is free-form JSON-compatible data attached to stashes and entries.
type Metadata map[string]any

// Stash is a wallet owned by a user. It holds one balance per asset.
type Stash struct {
	id        shared.ID
	ownerID   shared.ID
	name      Name
	status    Status
	tags      []Tag
	balances  []shared.Mula
	metadata  Metadata
	createdAt time.Time
	updatedAt time.Time

	events shared.Events
}

// New creates an ACTIVE stash and records StashCreated. Tag count is checked by the service.
func New(ownerID shared.ID, name Name, tags []Tag) *Stash {
	s := &Stash{
		id:       shared.NewID(),
		ownerID:  ownerID,
		name:     name,
		status:   StatusActive,
		tags:     slices.Clone(tags),
		metadata: Metadata{},
	}

	meta := s.events.Meta()
	s.createdAt, s.updatedAt = meta.At, meta.At
	s.events.Record(StashCreated{Meta: meta, StashID: s.id, OwnerID: ownerID, Name: name.String()})

	return s
}

func (s *Stash) ID() shared.ID        { return s.id }
func (s *Stash) OwnerID() shared.ID   { return s.ownerID }
func (s *Stash) Name() Name           { return s.name }
func (s *Stash) Status() Status       { return s.status }
func (s *Stash) Tags() []Tag          { return slices.Clone(s.tags) }
func (s *Stash) Metadata() Metadata   { return maps.Clone(s.metadata) }
func (s *Stash) CreatedAt() time.Time { return s.createdAt }
func (s *Stash) UpdatedAt() time.Time { return s.updatedAt }

func (s *Stash) Trace(c cbus.Cause)              { s.events.Trace(c) }
func (s *Stash) DrainEvents() []cbus.DomainEvent { return s.events.DrainEvents() }

// Balances returns the balances in the order their assets were first seen.
func (s *Stash) Balances() []shared.Mula { return slices.Clone(s.balances) }

// Balance returns the balance held for asset, zero when none.
func (s *Stash) Balance(asset shared.Asset) shared.Mula {
	for _, b := range s.balances {
		if b.Asset().Equal(asset) {
			return b
		}
	}

	return shared.ZeroOf(asset)
}

func (s *Stash) Rename(name Name) {
	meta := s.events.Meta()
	old := s.name
	s.name, s.updatedAt = name, meta.At

	s.events.Record(StashRenamed{Meta: meta, StashID: s.id, OldName: old.String(), NewName: name.String()})
}

// UpdateStatus records StashStatusUpdated even when the status does not change.
func (s *Stash) UpdateStatus(status Status) {
	meta := s.events.Meta()
	old := s.status
	s.status, s.updatedAt = status, meta.At

	s.events.Record(StashStatusUpdated{Meta: meta, StashID: s.id, OldStatus: old, NewStatus: status})
}

// UpdateBalance sets the balance of the amount's asset, adding it when the stash has none yet.
func (s *Stash) UpdateBalance(balance shared.Mula) {
	meta := s.events.Meta()

	i := slices.IndexFunc(s.balances, func(b shared.Mula) bool { return b.Asset().Equal(balance.Asset()) })
	if i < 0 {
		s.balances = append(s.balances, balance)
	} else {
		s.balances[i] = balance
	}

	s.updatedAt = meta.At
	s.events.Record(StashBalanceUpdated{Meta: meta, StashID: s.id, Balance: balance})
}

// Snapshot is the persisted form of a Stash.
type Snapshot struct {
	ID        shared.ID     `json:"id"`
	OwnerID   shared.ID     `json:"owner_id"`
	Name      Name          `json:"name"`
	Status    Status        `json:"status"`
	Tags      []Tag         `json:"tags"`
	Balances  []shared.Mula `json:"balances"`
	Metadata  Metadata      `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (s *Stash) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.id,
		OwnerID:   s.ownerID,
		Name:      s.name,
		Status:    s.status,
		Tags:      slices.Clone(s.tags),
		Balances:  slices.Clone(s.balances),
		Metadata:  maps.Clone(s.metadata),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// Restore rebuilds a stash from storage without recording events.
func Restore(snap Snapshot) *Stash {
	md := maps.Clone(snap.Metadata)
	if md == nil {
		md = Metadata{}
	}

	return &Stash{
		id:        snap.ID,
		ownerID:   snap.OwnerID,
		name:      snap.Name,
		status:    snap.Status,
		tags:      slices.Clone(snap.Tags),
		balances:  slices.Clone(snap.Balances),
		metadata:  md,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
	}
}
