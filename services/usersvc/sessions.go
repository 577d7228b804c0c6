package usersvc

import (
	"context"
	"fmt"
	"log/slog"

	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/user"
	"github.com/next-trace/stashit/servicebus"
)

// SessionManagement owns login sessions.
type SessionManagement struct {
	sessions user.SessionRepository
	pub      cbus.Publisher
	logger   *slog.Logger
}

func NewSessionManagement(sessions user.SessionRepository, pub cbus.Publisher, logger *slog.Logger) *SessionManagement {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &SessionManagement{sessions: sessions, pub: pub, logger: logger}
}

func (m *SessionManagement) CreateSession(ctx context.Context, userID shared.ID) (*user.Session, error) {
	s := user.NewSession(userID)
	s.Trace(cbus.CauseFrom(ctx))

	if err := m.commit(ctx, s); err != nil {
		return nil, fmt.Errorf("create session for %s: %w", userID, err)
	}

	return s, nil
}

// ExpireUnusedSessions terminates every live session of the user.
func (m *SessionManagement) ExpireUnusedSessions(ctx context.Context, userID shared.ID) error {
	live, err := m.sessions.FindUnused(ctx, userID)
	if err != nil {
		return fmt.Errorf("expire sessions of %s: %w", userID, err)
	}

	for _, s := range live {
		if err := m.ExpireSession(ctx, s); err != nil {
			return err
		}
	}

	if len(live) > 0 {
		m.logger.DebugContext(ctx, "unused sessions expired", "user_id", userID.String(), "count", len(live))
	}

	return nil
}

func (m *SessionManagement) ExpireSession(ctx context.Context, s *user.Session) error {
	s.Trace(cbus.CauseFrom(ctx))
	s.Expire()

	if err := m.commit(ctx, s); err != nil {
		return fmt.Errorf("expire session %s: %w", s.ID(), err)
	}

	return nil
}

// GetSession returns (nil, nil) when id is unknown.
func (m *SessionManagement) GetSession(ctx context.Context, id shared.ID) (*user.Session, error) {
	s, err := m.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	return s, nil
}

func (m *SessionManagement) commit(ctx context.Context, s *user.Session) error {
	return servicebus.Commit(ctx, m.pub, s, func(ctx context.Context) error { return m.sessions.Save(ctx, s) })
}
