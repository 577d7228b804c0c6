package usersvc

import (
	"context"
	"fmt"
	"time"

	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/user"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID shared.ID) (string, error)
}

// Authentication runs the OTP login flow.
type Authentication struct {
	users    *UserManagement
	sessions *SessionManagement
	mailing  *Mailing
	tokens   TokenIssuer
	now      func() time.Time
}

func NewAuthentication(users *UserManagement, sessions *SessionManagement, mailing *Mailing, tokens TokenIssuer) *Authentication {
	return &Authentication{users: users, sessions: sessions, mailing: mailing, tokens: tokens, now: time.Now}
}

// RequestAuthenticationCode finds or creates the user, expires their unused sessions, opens a new
// one and mails its code. It returns the session id the code must be presented with.
func (a *Authentication) RequestAuthenticationCode(ctx context.Context, email user.Email) (shared.ID, error) {
	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return shared.ID{}, err
	}

	if u == nil {
		if u, err = a.users.CreateUser(ctx, email); err != nil {
			return shared.ID{}, err
		}
	}

	if err := a.sessions.ExpireUnusedSessions(ctx, u.ID()); err != nil {
		return shared.ID{}, err
	}

	s, err := a.sessions.CreateSession(ctx, u.ID())
	if err != nil {
		return shared.ID{}, err
	}

	if err := a.mailing.SendAuthenticationMail(ctx, u, s); err != nil {
		return shared.ID{}, err
	}

	return s.ID(), nil
}

// Authenticate exchanges a live session and its code for an access token. The session is
// terminated on success.
func (a *Authentication) Authenticate(ctx context.Context, sessionID shared.ID, code string) (string, error) {
	s, err := a.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if s == nil {
		return "", fmt.Errorf("authenticate: session %s: %w", sessionID, berr.ErrEntityNotFound)
	}

	if s.HasExpired(a.now()) || !s.IsValidCode(code) {
		return "", fmt.Errorf("authenticate: session %s: %w", sessionID, berr.ErrEntityInvalid)
	}

	if err := a.sessions.ExpireSession(ctx, s); err != nil {
		return "", err
	}

	u, err := a.users.UpdateUserLastLogin(ctx, s.UserID())
	if err != nil {
		return "", err
	}

	tok, err := a.tokens.Issue(u.ID())
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	return tok, nil
}

// SetClock replaces the time source. Intended for tests.
func (a *Authentication) SetClock(now func() time.Time) { a.now = now }
