package user

import (
	"context"

	"github.com/next-trace/stashit/domain/shared"
)

// Finders return (nil, nil) when nothing matches.

type UserRepository interface {
	FindByEmail(ctx context.Context, email Email) (*User, error)
	FindByID(ctx context.Context, id shared.ID) (*User, error)
	Save(ctx context.Context, u *User) error
}

type SessionRepository interface {
	FindByID(ctx context.Context, id shared.ID) (*Session, error)
	// FindUnused returns the user's sessions that are neither expired nor terminated.
	FindUnused(ctx context.Context, userID shared.ID) ([]*Session, error)
	Save(ctx context.Context, s *Session) error
}

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID shared.ID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
