package inmemory

import (
	"context"
	"time"

	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/user"
)

type UserRepository struct{ rows *store[shared.ID, user.UserSnapshot] }

var _ user.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{rows: newStore[shared.ID, user.UserSnapshot]()}
}

func (r *UserRepository) FindByID(ctx context.Context, id shared.ID) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, ok := r.rows.get(id)
	if !ok {
		return nil, nil
	}

	return user.RestoreUser(snap), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email user.Email) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := r.rows.filter(func(s user.UserSnapshot) bool { return s.Email == email })
	if len(found) == 0 {
		return nil, nil
	}

	return user.RestoreUser(found[0]), nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.rows.put(u.ID(), u.Snapshot())

	return nil
}

type SessionRepository struct {
	rows *store[shared.ID, user.SessionSnapshot]
	now  func() time.Time
}

var _ user.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{rows: newStore[shared.ID, user.SessionSnapshot](), now: time.Now}
}

func (r *SessionRepository) FindByID(ctx context.Context, id shared.ID) (*user.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, ok := r.rows.get(id)
	if !ok {
		return nil, nil
	}

	return user.RestoreSession(snap), nil
}

func (r *SessionRepository) FindUnused(ctx context.Context, userID shared.ID) ([]*user.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := r.now()
	snaps := r.rows.filter(func(s user.SessionSnapshot) bool {
		return s.UserID == userID && !s.Expired && now.Before(s.ExpiresAt)
	})

	out := make([]*user.Session, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, user.RestoreSession(s))
	}

	return out, nil
}

func (r *SessionRepository) Save(ctx context.Context, s *user.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.rows.put(s.ID(), s.Snapshot())

	return nil
}

type ProfileRepository struct{ rows *store[shared.ID, user.ProfileSnapshot] }

var _ user.ProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{rows: newStore[shared.ID, user.ProfileSnapshot]()}
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID shared.ID) (*user.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := r.rows.filter(func(s user.ProfileSnapshot) bool { return s.UserID == userID })
	if len(found) == 0 {
		return nil, nil
	}

	return user.RestoreProfile(found[0]), nil
}

func (r *ProfileRepository) Save(ctx context.Context, p *user.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.rows.put(p.ID(), p.Snapshot())

	return nil
}
