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

// DefaultPageSize applies when a listing asks for no limit.
const DefaultPageSize = 20

// Service runs the stash use cases: load, mutate, save, then drain and publish.
type Service struct {
	repo   stash.Repository
	pub    cbus.Publisher
	logger *slog.Logger
}

// New constructs the stash service. A nil logger discards output.
func New(repo stash.Repository, pub cbus.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{repo: repo, pub: pub, logger: logger}
}

type CreateStash struct {
	OwnerID shared.ID
	Name    stash.Name
	Tags    []stash.Tag
}

func (s *Service) CreateStash(ctx context.Context, cmd CreateStash) (*stash.Stash, error) {
	if n := len(cmd.Tags); n > stash.MaxTags {
		return nil, fmt.Errorf("create stash: %d tags, max %d: %w", n, stash.MaxTags, berr.ErrAssertionFailed)
	}

	if err := s.assertNameFree(ctx, cmd.OwnerID, cmd.Name); err != nil {
		return nil, fmt.Errorf("create stash: %w", err)
	}

	st := stash.New(cmd.OwnerID, cmd.Name, cmd.Tags)
	st.Trace(cbus.CauseFrom(ctx))

	if err := s.commit(ctx, st); err != nil {
		return nil, fmt.Errorf("create stash %s: %w", st.ID(), err)
	}

	s.logger.InfoContext(ctx, "stash created", "stash_id", st.ID().String(), "owner_id", cmd.OwnerID.String())

	return st, nil
}

// GetStash fails with ErrEntityNotFound when id is unknown.
func (s *Service) GetStash(ctx context.Context, id shared.ID) (*stash.Stash, error) {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get stash %s: %w", id, err)
	}

	if st == nil {
		return nil, fmt.Errorf("get stash %s: %w", id, berr.ErrEntityNotFound)
	}

	return st, nil
}

type GetStashes struct {
	OwnerID shared.ID
	Limit   int
	Page    int
}

func (s *Service) GetStashes(ctx context.Context, q GetStashes) ([]*stash.Stash, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}

	out, err := s.repo.FindMany(ctx, stash.FindManyQuery{OwnerID: q.OwnerID, Limit: q.Limit, Page: q.Page})
	if err != nil {
		return nil, fmt.Errorf("get stashes: %w", err)
	}

	return out, nil
}

func (s *Service) RenameStash(ctx context.Context, id shared.ID, name stash.Name) (*stash.Stash, error) {
	st, err := s.GetStash(ctx, id)
	if err != nil {
		return nil, err
	}

	if st.Name() != name {
		if err := s.assertNameFree(ctx, st.OwnerID(), name); err != nil {
			return nil, fmt.Errorf("rename stash %s: %w", id, err)
		}
	}

	st.Trace(cbus.CauseFrom(ctx))
	st.Rename(name)

	if err := s.commit(ctx, st); err != nil {
		return nil, fmt.Errorf("rename stash %s: %w", id, err)
	}

	return st, nil
}

func (s *Service) UpdateStashStatus(ctx context.Context, id shared.ID, status stash.Status) (*stash.Stash, error) {
	st, err := s.GetStash(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.ApplyStatus(ctx, st, status); err != nil {
		return nil, err
	}

	return st, nil
}

// UpdateStashBalance sets the balance held for the amount's asset.
func (s *Service) UpdateStashBalance(ctx context.Context, id shared.ID, balance shared.Mula) (*stash.Stash, error) {
	st, err := s.GetStash(ctx, id)
	if err != nil {
		return nil, err
	}

	st.Trace(cbus.CauseFrom(ctx))
	st.UpdateBalance(balance)

	if err := s.commit(ctx, st); err != nil {
		return nil, fmt.Errorf("update stash %s balance: %w", id, err)
	}

	return st, nil
}

// ApplyStatus changes the status of an already-loaded stash and runs one persistence cycle for it.
func (s *Service) ApplyStatus(ctx context.Context, st *stash.Stash, status stash.Status) error {
	st.Trace(cbus.CauseFrom(ctx))
	st.UpdateStatus(status)

	if err := s.commit(ctx, st); err != nil {
		return fmt.Errorf("update stash %s status to %s: %w", st.ID(), status, err)
	}

	return nil
}

func (s *Service) commit(ctx context.Context, st *stash.Stash) error {
	return servicebus.Commit(ctx, s.pub, st, func(ctx context.Context) error { return s.repo.Save(ctx, st) })
}

func (s *Service) assertNameFree(ctx context.Context, owner shared.ID, name stash.Name) error {
	taken, err := s.repo.ExistsWithName(ctx, owner, name)
	if err != nil {
		return err
	}

	if taken {
		return fmt.Errorf("stash named %q already exists for owner: %w", name, berr.ErrAssertionFailed)
	}

	return nil
}
