package stashsvc

import (
	"context"
	"fmt"
	"log/slog"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
	"github.com/next-trace/stashit/servicebus"
)

// LedgerService books ledger entries. Balances follow through OnLedgerEntryCreated.
type LedgerService struct {
	entries stash.LedgerRepository
	stashes stash.Repository
	pub     cbus.Publisher
	logger  *slog.Logger
}

func NewLedgerService(entries stash.LedgerRepository, stashes stash.Repository, pub cbus.Publisher, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &LedgerService{entries: entries, stashes: stashes, pub: pub, logger: logger}
}

type CreateLedgerEntry struct {
	StashID       shared.ID
	Type          stash.EntryType
	Amount        shared.Mula
	UpstreamRefID shared.ID
	Metadata      stash.Metadata
}

// CreateLedgerEntry books an entry against an open stash. A debit larger than the balance is
// refused before anything is stored.
func (l *LedgerService) CreateLedgerEntry(ctx context.Context, cmd CreateLedgerEntry) (*stash.LedgerEntry, error) {
	if _, err := stash.ParseEntryType(string(cmd.Type)); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	st, err := l.stashes.FindByID(ctx, cmd.StashID)
	if err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	if st == nil {
		return nil, fmt.Errorf("create ledger entry: stash %s: %w", cmd.StashID, berr.ErrEntityNotFound)
	}

	if st.Status() == stash.StatusClosed {
		return nil, fmt.Errorf("create ledger entry: stash %s is closed: %w", cmd.StashID, berr.ErrAssertionFailed)
	}

	if cmd.Type == stash.Debit {
		if _, err := st.Balance(cmd.Amount.Asset()).Sub(cmd.Amount); err != nil {
			return nil, fmt.Errorf("create ledger entry: %w", err)
		}
	}

	e := stash.NewLedgerEntry(cmd.StashID, cmd.Type, cmd.Amount, cmd.UpstreamRefID, cmd.Metadata)
	e.Trace(cbus.CauseFrom(ctx))

	if err := servicebus.Commit(ctx, l.pub, e, func(ctx context.Context) error { return l.entries.Save(ctx, e) }); err != nil {
		return nil, fmt.Errorf("create ledger entry %s: %w", e.ID(), err)
	}

	l.logger.InfoContext(ctx, "ledger entry created",
		"entry_id", e.ID().String(), "stash_id", cmd.StashID.String(), "type", string(cmd.Type), "amount", cmd.Amount.String())

	return e, nil
}

// GetLedgerEntry fails with ErrEntityNotFound when id is unknown.
func (l *LedgerService) GetLedgerEntry(ctx context.Context, id shared.ID) (*stash.LedgerEntry, error) {
	e, err := l.entries.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ledger entry %s: %w", id, err)
	}

	if e == nil {
		return nil, fmt.Errorf("get ledger entry %s: %w", id, berr.ErrEntityNotFound)
	}

	return e, nil
}

func (l *LedgerService) GetLedgerEntries(ctx context.Context, q stash.LedgerQuery) ([]*stash.LedgerEntry, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}

	out, err := l.entries.FindMany(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get ledger entries: %w", err)
	}

	return out, nil
}

// ApplyLedgerEntry moves the stash balance by the entry amount: credits add, debits subtract.
func (s *Service) ApplyLedgerEntry(ctx context.Context, e stash.LedgerEntryCreated) error {
	st, err := s.GetStash(ctx, e.StashID)
	if err != nil {
		return fmt.Errorf("apply ledger entry %s: %w", e.EntryID, err)
	}

	current := st.Balance(e.Amount.Asset())

	var next shared.Mula

	switch e.Type {
	case stash.Credit:
		next, err = current.Add(e.Amount)
	case stash.Debit:
		next, err = current.Sub(e.Amount)
	default:
		err = fmt.Errorf("entry type %q: %w", e.Type, berr.ErrInvalidValue)
	}

	if err != nil {
		return fmt.Errorf("apply ledger entry %s to stash %s: %w", e.EntryID, e.StashID, err)
	}

	st.Trace(cbus.CauseFrom(ctx))
	st.UpdateBalance(next)

	if err := s.commit(ctx, st); err != nil {
		return fmt.Errorf("apply ledger entry %s to stash %s: %w", e.EntryID, e.StashID, err)
	}

	return nil
}
