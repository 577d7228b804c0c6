package user

import (
	"time"

	"github.com/next-trace/stashit/domain/shared"
)

const (
	EventUserCreated       = "UserCreated"
	EventUserStatusUpdated = "UserStatusUpdated"
	EventUserLoggedIn      = "UserLoggedIn"
	EventProfileCreated    = "ProfileCreated"
	EventSessionActivated  = "SessionActivated"
	EventSessionTerminated = "SessionTerminated"
)

// EventTypes lists every event type raised by this package.
var EventTypes = []string{
	EventUserCreated,
	EventUserStatusUpdated,
	EventUserLoggedIn,
	EventProfileCreated,
	EventSessionActivated,
	EventSessionTerminated,
}

type UserCreated struct {
	shared.Meta
	UserID shared.ID `json:"user_id"`
	Email  string    `json:"email"`
}

func (UserCreated) EventType() string     { return EventUserCreated }
func (e UserCreated) AggregateID() string { return e.UserID.String() }

// UserStatusUpdated drives the stash status cascade.
type UserStatusUpdated struct {
	shared.Meta
	UserID    shared.ID         `json:"user_id"`
	OldStatus shared.UserStatus `json:"old_status"`
	NewStatus shared.UserStatus `json:"new_status"`
}

func (UserStatusUpdated) EventType() string     { return EventUserStatusUpdated }
func (e UserStatusUpdated) AggregateID() string { return e.UserID.String() }

type UserLoggedIn struct {
	shared.Meta
	UserID shared.ID `json:"user_id"`
	At     time.Time `json:"at"`
}

func (UserLoggedIn) EventType() string     { return EventUserLoggedIn }
func (e UserLoggedIn) AggregateID() string { return e.UserID.String() }

// ProfileCreated is keyed by the owning user.
type ProfileCreated struct {
	shared.Meta
	UserID    shared.ID `json:"user_id"`
	ProfileID shared.ID `json:"profile_id"`
}

func (ProfileCreated) EventType() string     { return EventProfileCreated }
func (e ProfileCreated) AggregateID() string { return e.UserID.String() }

type SessionActivated struct {
	shared.Meta
	UserID    shared.ID `json:"user_id"`
	SessionID shared.ID `json:"session_id"`
}

func (SessionActivated) EventType() string     { return EventSessionActivated }
func (e SessionActivated) AggregateID() string { return e.UserID.String() }

type SessionTerminated struct {
	shared.Meta
	UserID    shared.ID `json:"user_id"`
	SessionID shared.ID `json:"session_id"`
}

func (SessionTerminated) EventType() string     { return EventSessionTerminated }
func (e SessionTerminated) AggregateID() string { return e.UserID.String() }
