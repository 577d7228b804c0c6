package user

import (
	"time"

	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/domain/shared"
)

// SessionTTL is how long a login code stays usable.
const SessionTTL = 10 * time.Minute

// Session is a pending login: the code mailed to the user and its expiry.
type Session struct {
	id        shared.ID
	userID    shared.ID
	code      OTPCode
	expiresAt time.Time
	expired   bool

	events shared.Events
}

func NewSession(userID shared.ID) *Session {
	s := &Session{
		id:     shared.NewID(),
		userID: userID,
		code:   NewOTPCode(),
	}

	meta := s.events.Meta()
	s.expiresAt = meta.At.Add(SessionTTL)
	s.events.Record(SessionActivated{Meta: meta, UserID: userID, SessionID: s.id})

	return s
}

func (s *Session) ID() shared.ID        { return s.id }
func (s *Session) UserID() shared.ID    { return s.userID }
func (s *Session) Code() OTPCode        { return s.code }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }
func (s *Session) Expired() bool        { return s.expired }

func (s *Session) Trace(c cbus.Cause)              { s.events.Trace(c) }
func (s *Session) DrainEvents() []cbus.DomainEvent { return s.events.DrainEvents() }

// HasExpired reports whether the session was terminated or its TTL elapsed at now.
func (s *Session) HasExpired(now time.Time) bool {
	return s.expired || !now.Before(s.expiresAt)
}

func (s *Session) IsValidCode(code string) bool { return s.code.Matches(code) }

// Expire terminates the session and records SessionTerminated.
func (s *Session) Expire() {
	s.expired = true

	s.events.Record(SessionTerminated{Meta: s.events.Meta(), UserID: s.userID, SessionID: s.id})
}

type SessionSnapshot struct {
	ID        shared.ID `json:"id"`
	UserID    shared.ID `json:"user_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

func (s *Session) Snapshot() SessionSnapshot {
	return SessionSnapshot{ID: s.id, UserID: s.userID, Code: s.code.String(), ExpiresAt: s.expiresAt, Expired: s.expired}
}

func RestoreSession(snap SessionSnapshot) *Session {
	return &Session{
		id:        snap.ID,
		userID:    snap.UserID,
		code:      OTPCode{v: snap.Code},
		expiresAt: snap.ExpiresAt,
		expired:   snap.Expired,
	}
}
