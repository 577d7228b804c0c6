package stashsvc

import (
	"context"
	"fmt"

	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
)

// CascadeLimit is how many stashes one cascade fetches.
const CascadeLimit = 1000

// StatusForUser maps an owner's status to the status their stashes take.
func StatusForUser(s shared.UserStatus) stash.Status {
	switch s {
	case shared.UserActive:
		return stash.StatusActive
	case shared.UserDeleted:
		return stash.StatusClosed
	default: // suspended, pending profile
		return stash.StatusPaused
	}
}

// CascadeUserStatus moves every stash of userID to the status matching userStatus, one stash at a
// time in storage order. Each stash is saved and its events published before the next one is touched.
// The first failure aborts the cascade with a *CascadeError; stashes already updated stay updated.
func (s *Service) CascadeUserStatus(ctx context.Context, userID shared.ID, userStatus shared.UserStatus) error {
	target := StatusForUser(userStatus)

	stashes, err := s.repo.FindMany(ctx, stash.FindManyQuery{OwnerID: userID, Limit: CascadeLimit, Page: 1})
	if err != nil {
		return fmt.Errorf("cascade %s to stashes of %s: %w", target, userID, err)
	}

	applied := make([]shared.ID, 0, len(stashes))

	for i, st := range stashes {
		if err := s.ApplyStatus(ctx, st, target); err != nil {
			cerr := &CascadeError{
				UserID:    userID,
				Target:    target,
				Applied:   applied,
				Failed:    st.ID(),
				Remaining: ids(stashes[i+1:]),
				Err:       err,
			}

			s.logger.WarnContext(ctx, "status cascade aborted",
				"user_id", userID.String(),
				"target", target.String(),
				"applied", len(applied),
				"failed", st.ID().String(),
				"remaining", len(cerr.Remaining),
				"err", err,
			)

			return cerr
		}

		applied = append(applied, st.ID())
	}

	s.logger.InfoContext(ctx, "status cascade applied",
		"user_id", userID.String(), "target", target.String(), "stashes", len(applied))

	return nil
}

func ids(stashes []*stash.Stash) []shared.ID {
	out := make([]shared.ID, 0, len(stashes))
	for _, s := range stashes {
		out = append(out, s.ID())
	}

	return out
}

// CascadeError reports a status cascade that stopped part way.
type CascadeError struct {
	UserID    shared.ID
	Target    stash.Status
	Applied   []shared.ID
	Failed    shared.ID
	Remaining []shared.ID
	Err       error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade %s for user %s: %d applied, failed at %s, %d not attempted: %v",
		e.Target, e.UserID, len(e.Applied), e.Failed, len(e.Remaining), e.Err)
}

func (e *CascadeError) Unwrap() []error { return []error{berr.ErrCascadePartial, e.Err} }
