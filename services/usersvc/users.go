package usersvc

import (
	"context"
	"fmt"
	"log/slog"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/user"
	"github.com/next-trace/stashit/servicebus"
)

// HandlerOnProfileCreated activates users whose profile was just created.
const HandlerOnProfileCreated = "usersvc.OnProfileCreated"

// UserManagement owns users and their profiles.
type UserManagement struct {
	users    user.UserRepository
	profiles user.ProfileRepository
	pub      cbus.Publisher
	logger   *slog.Logger
}

func NewUserManagement(users user.UserRepository, profiles user.ProfileRepository, pub cbus.Publisher, logger *slog.Logger) *UserManagement {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &UserManagement{users: users, profiles: profiles, pub: pub, logger: logger}
}

// GetByEmail returns (nil, nil) when no user has the address.
func (m *UserManagement) GetByEmail(ctx context.Context, email user.Email) (*user.User, error) {
	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return u, nil
}

// GetByID fails with ErrEntityNotFound when id is unknown.
func (m *UserManagement) GetByID(ctx context.Context, id shared.ID) (*user.User, error) {
	u, err := m.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	if u == nil {
		return nil, fmt.Errorf("get user %s: %w", id, berr.ErrEntityNotFound)
	}

	return u, nil
}

func (m *UserManagement) CreateUser(ctx context.Context, email user.Email) (*user.User, error) {
	existing, err := m.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, fmt.Errorf("create user %s: %w", email, berr.ErrEntityAlreadyExists)
	}

	u := user.NewUser(email)
	u.Trace(cbus.CauseFrom(ctx))

	if err := m.commitUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	m.logger.InfoContext(ctx, "user created", "user_id", u.ID().String())

	return u, nil
}

// UpdateUserStatus saves the new status and publishes UserStatusUpdated, which cascades to the
// user's stashes. The call fails if any part of the cascade fails, even though earlier stashes
// were already updated.
func (m *UserManagement) UpdateUserStatus(ctx context.Context, id shared.ID, status shared.UserStatus) (*user.User, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Trace(cbus.CauseFrom(ctx))
	u.UpdateStatus(status)

	if err := m.commitUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user %s status to %s: %w", id, status, err)
	}

	m.logger.InfoContext(ctx, "user status updated", "user_id", id.String(), "status", status.String())

	return u, nil
}

func (m *UserManagement) UpdateUserLastLogin(ctx context.Context, id shared.ID) (*user.User, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Trace(cbus.CauseFrom(ctx))
	u.UpdateLastLogin()

	if err := m.commitUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user %s last login: %w", id, err)
	}

	return u, nil
}

// CreateUserProfile fails with ErrEntityAlreadyExists when the user has a profile.
func (m *UserManagement) CreateUserProfile(ctx context.Context, userID shared.ID, name user.DisplayName, wallet shared.WalletAddress) (*user.Profile, error) {
	u, err := m.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := m.profiles.FindByUserID(ctx, u.ID())
	if err != nil {
		return nil, fmt.Errorf("create profile for %s: %w", userID, err)
	}

	if existing != nil {
		return nil, fmt.Errorf("create profile for %s: %w", userID, berr.ErrEntityAlreadyExists)
	}

	p := user.NewProfile(u.ID(), name, wallet)
	p.Trace(cbus.CauseFrom(ctx))

	err = servicebus.Commit(ctx, m.pub, p, func(ctx context.Context) error { return m.profiles.Save(ctx, p) })
	if err != nil {
		return nil, fmt.Errorf("create profile for %s: %w", userID, err)
	}

	return p, nil
}

// GetProfile returns (nil, nil) when the user has no profile yet.
func (m *UserManagement) GetProfile(ctx context.Context, userID shared.ID) (*user.Profile, error) {
	p, err := m.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile for %s: %w", userID, err)
	}

	return p, nil
}

// OnProfileCreated moves a PendingProfile user to Active. Users in any other status are left alone.
func (m *UserManagement) OnProfileCreated() cbus.EventHandler {
	return servicebus.On(HandlerOnProfileCreated, func(ctx context.Context, e user.ProfileCreated) error {
		u, err := m.GetByID(ctx, e.UserID)
		if err != nil {
			return err
		}

		if u.Status() != shared.UserPendingProfile {
			m.logger.DebugContext(ctx, "profile created for non-pending user", "user_id", e.UserID.String(), "status", u.Status().String())
			return nil
		}

		_, err = m.UpdateUserStatus(ctx, e.UserID, shared.UserActive)

		return err
	})
}

// Handlers returns the service's subscribers in subscription order.
func (m *UserManagement) Handlers() []cbus.EventHandler {
	return []cbus.EventHandler{m.OnProfileCreated()}
}

func (m *UserManagement) commitUser(ctx context.Context, u *user.User) error {
	return servicebus.Commit(ctx, m.pub, u, func(ctx context.Context) error { return m.users.Save(ctx, u) })
}
