package user

import (
	"time"

	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/domain/shared"
)

// User is the account aggregate. New users wait in PendingProfile until a profile exists.
type User struct {
	id          shared.ID
	email       Email
	status      shared.UserStatus
	createdAt   time.Time
	lastLoginAt time.Time

	events shared.Events
}

func NewUser(email Email) *User {
	now := time.Now().UTC()
	u := &User{
		id:          shared.NewID(),
		email:       email,
		status:      shared.UserPendingProfile,
		createdAt:   now,
		lastLoginAt: now,
	}

	u.events.Record(UserCreated{Meta: u.events.Meta(), UserID: u.id, Email: email.String()})

	return u
}

func (u *User) ID() shared.ID                   { return u.id }
func (u *User) Email() Email                    { return u.email }
func (u *User) Status() shared.UserStatus       { return u.status }
func (u *User) CreatedAt() time.Time            { return u.createdAt }
func (u *User) LastLoginAt() time.Time          { return u.lastLoginAt }
func (u *User) Trace(c cbus.Cause)              { u.events.Trace(c) }
func (u *User) DrainEvents() []cbus.DomainEvent { return u.events.DrainEvents() }

// UpdateStatus records UserStatusUpdated even when the status does not change.
func (u *User) UpdateStatus(s shared.UserStatus) {
	old := u.status
	u.status = s

	u.events.Record(UserStatusUpdated{Meta: u.events.Meta(), UserID: u.id, OldStatus: old, NewStatus: s})
}

func (u *User) UpdateLastLogin() {
	meta := u.events.Meta()
	u.lastLoginAt = meta.At

	u.events.Record(UserLoggedIn{Meta: meta, UserID: u.id, At: meta.At})
}

// UserSnapshot is the persisted form of a User.
type UserSnapshot struct {
	ID          shared.ID
	Email       Email
	Status      shared.UserStatus
	CreatedAt   time.Time
	LastLoginAt time.Time
}

func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{ID: u.id, Email: u.email, Status: u.status, CreatedAt: u.createdAt, LastLoginAt: u.lastLoginAt}
}

// RestoreUser rebuilds a user from storage without recording events.
func RestoreUser(s UserSnapshot) *User {
	return &User{id: s.ID, email: s.Email, status: s.Status, createdAt: s.CreatedAt, lastLoginAt: s.LastLoginAt}
}
