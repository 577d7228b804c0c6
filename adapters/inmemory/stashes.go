package inmemory

import (
	"context"

	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
)

type StashRepository struct{ rows *store[shared.ID, stash.Snapshot] }

var _ stash.Repository = (*StashRepository)(nil)

func NewStashRepository() *StashRepository {
	return &StashRepository{rows: newStore[shared.ID, stash.Snapshot]()}
}

func (r *StashRepository) FindByID(ctx context.Context, id shared.ID) (*stash.Stash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, ok := r.rows.get(id)
	if !ok {
		return nil, nil
	}

	return stash.Restore(snap), nil
}

func (r *StashRepository) FindMany(ctx context.Context, q stash.FindManyQuery) ([]*stash.Stash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snaps := r.rows.filter(func(s stash.Snapshot) bool { return q.OwnerID.IsZero() || s.OwnerID == q.OwnerID })

	snaps = page(snaps, q.Offset(), q.Limit)

	out := make([]*stash.Stash, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, stash.Restore(s))
	}

	return out, nil
}

func (r *StashRepository) ExistsWithName(ctx context.Context, ownerID shared.ID, name stash.Name) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found := r.rows.filter(func(s stash.Snapshot) bool { return s.OwnerID == ownerID && s.Name == name })

	return len(found) > 0, nil
}

func (r *StashRepository) Save(ctx context.Context, s *stash.Stash) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.rows.put(s.ID(), s.Snapshot())

	return nil
}

func (r *StashRepository) ownedBy(ownerID shared.ID) map[shared.ID]bool {
	ids := map[shared.ID]bool{}
	for _, s := range r.rows.filter(func(s stash.Snapshot) bool { return s.OwnerID == ownerID }) {
		ids[s.ID] = true
	}

	return ids
}

// LedgerRepository resolves owner filters through the stash repository.
type LedgerRepository struct {
	rows    *store[shared.ID, stash.EntrySnapshot]
	stashes *StashRepository
}

var _ stash.LedgerRepository = (*LedgerRepository)(nil)

func NewLedgerRepository(stashes *StashRepository) *LedgerRepository {
	return &LedgerRepository{rows: newStore[shared.ID, stash.EntrySnapshot](), stashes: stashes}
}

func (r *LedgerRepository) FindByID(ctx context.Context, id shared.ID) (*stash.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, ok := r.rows.get(id)
	if !ok {
		return nil, nil
	}

	return stash.RestoreLedgerEntry(snap), nil
}

func (r *LedgerRepository) FindMany(ctx context.Context, q stash.LedgerQuery) ([]*stash.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var owned map[shared.ID]bool
	if !q.OwnerID.IsZero() && r.stashes != nil {
		owned = r.stashes.ownedBy(q.OwnerID)
	}

	snaps := r.rows.filter(func(e stash.EntrySnapshot) bool {
		switch {
		case !q.StashID.IsZero() && e.StashID != q.StashID:
			return false
		case q.Type != "" && e.Type != q.Type:
			return false
		case !q.OwnerID.IsZero() && !owned[e.StashID]:
			return false
		}

		return true
	})

	snaps = page(snaps, q.Offset(), q.Limit)

	out := make([]*stash.LedgerEntry, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, stash.RestoreLedgerEntry(s))
	}

	return out, nil
}

func (r *LedgerRepository) Save(ctx context.Context, e *stash.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.rows.put(e.ID(), e.Snapshot())

	return nil
}
