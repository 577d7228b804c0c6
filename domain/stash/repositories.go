package stash

import (
	"context"

	"github.com/next-trace/stashit/domain/shared"
)

// FindManyQuery pages through stashes in insertion order. Page is 1-based; a zero OwnerID matches all.
type FindManyQuery struct {
	OwnerID shared.ID
	Limit   int
	Page    int
}

// Offset returns the number of rows to skip, treating pages below 1 as the first page.
func (q FindManyQuery) Offset() int { return offset(q.Page, q.Limit) }

// LedgerQuery pages through ledger entries in insertion order. Zero fields match everything.
type LedgerQuery struct {
	StashID shared.ID
	OwnerID shared.ID
	Type    EntryType
	Limit   int
	Page    int
}

func (q LedgerQuery) Offset() int { return offset(q.Page, q.Limit) }

// offset is 0 for unpaged queries (limit <= 0).
func offset(page, limit int) int {
	if limit <= 0 {
		return 0
	}

	if page < 1 {
		page = 1
	}

	return (page - 1) * limit
}

// Finders return (nil, nil) when nothing matches.

type Repository interface {
	FindByID(ctx context.Context, id shared.ID) (*Stash, error)
	FindMany(ctx context.Context, q FindManyQuery) ([]*Stash, error)
	ExistsWithName(ctx context.Context, ownerID shared.ID, name Name) (bool, error)
	Save(ctx context.Context, s *Stash) error
}

type LedgerRepository interface {
	FindByID(ctx context.Context, id shared.ID) (*LedgerEntry, error)
	FindMany(ctx context.Context, q LedgerQuery) ([]*LedgerEntry, error)
	Save(ctx context.Context, e *LedgerEntry) error
}
