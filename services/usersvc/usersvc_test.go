package usersvc_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/stashit/adapters/inmemory"
	"github.com/next-trace/stashit/adapters/token"
	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/user"
	"github.com/next-trace/stashit/servicebus"
	"github.com/next-trace/stashit/services/usersvc"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

type fixture struct {
	journal  *servicebus.Journal
	users    *usersvc.UserManagement
	sessions *usersvc.SessionManagement
	auth     *usersvc.Authentication
	mailer   *inmemory.Mailer
	tokens   *token.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{journal: servicebus.NewJournal(), mailer: &inmemory.Mailer{}}
	bus := servicebus.New(nil, servicebus.WithPublishMiddleware(f.journal.Middleware()))

	tokens, err := token.New(token.Config{Secret: "test-secret"})
	require.NoError(t, err)

	f.tokens = tokens
	f.users = usersvc.NewUserManagement(inmemory.NewUserRepository(), inmemory.NewProfileRepository(), bus, nil)
	f.sessions = usersvc.NewSessionManagement(inmemory.NewSessionRepository(), bus, nil)
	f.auth = usersvc.NewAuthentication(f.users, f.sessions, usersvc.NewMailing(f.mailer), tokens)

	require.NoError(t, servicebus.Subscribe(bus, f.users.Handlers()...))

	return f
}

func mustEmail(t *testing.T, s string) user.Email {
	t.Helper()

	e, err := user.ParseEmail(s)
	require.NoError(t, err)

	return e
}

func codeFromMail(t *testing.T, m *inmemory.Mailer) string {
	t.Helper()

	last, ok := m.Last()
	require.True(t, ok)

	fields := strings.Fields(last.Text)
	require.NotEmpty(t, fields)

	return fields[len(fields)-1]
}

func TestCreateUser_RejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, mustEmail(t, "ana@stash.it"))
	require.NoError(t, err)
	assert.Equal(t, shared.UserPendingProfile, u.Status())

	_, err = f.users.CreateUser(ctx, mustEmail(t, "ana@stash.it"))
	require.ErrorIs(t, err, berr.ErrEntityAlreadyExists)

	assert.Equal(t, []string{user.EventUserCreated}, f.journal.Types())
}

func TestGetByID_Unknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.GetByID(context.Background(), shared.NewID())
	require.ErrorIs(t, err, berr.ErrEntityNotFound)
}

func TestCreateUserProfile_ActivatesPendingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, mustEmail(t, "ana@stash.it"))
	require.NoError(t, err)

	name, err := user.ParseDisplayName("ana")
	require.NoError(t, err)
	wallet, err := shared.ParseWalletAddress(testWallet)
	require.NoError(t, err)

	f.journal.Reset()

	p, err := f.users.CreateUserProfile(ctx, u.ID(), name, wallet)
	require.NoError(t, err)
	assert.Equal(t, u.ID(), p.UserID())

	got, err := f.users.GetByID(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, shared.UserActive, got.Status())

	assert.Equal(t, []string{user.EventProfileCreated, user.EventUserStatusUpdated}, f.journal.Types())

	events := f.journal.Events()
	assert.Equal(t, events[0].EventID(), events[1].CausationID())

	_, err = f.users.CreateUserProfile(ctx, u.ID(), name, wallet)
	require.ErrorIs(t, err, berr.ErrEntityAlreadyExists)
}

func TestOnProfileCreated_LeavesNonPendingUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, mustEmail(t, "ana@stash.it"))
	require.NoError(t, err)

	_, err = f.users.UpdateUserStatus(ctx, u.ID(), shared.UserSuspended)
	require.NoError(t, err)

	name, _ := user.ParseDisplayName("ana")
	wallet, _ := shared.ParseWalletAddress(testWallet)

	_, err = f.users.CreateUserProfile(ctx, u.ID(), name, wallet)
	require.NoError(t, err)

	got, err := f.users.GetByID(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, shared.UserSuspended, got.Status())
}

func TestCreateUserProfile_UnknownUser(t *testing.T) {
	f := newFixture(t)

	name, _ := user.ParseDisplayName("ana")
	wallet, _ := shared.ParseWalletAddress(testWallet)

	_, err := f.users.CreateUserProfile(context.Background(), shared.NewID(), name, wallet)
	require.ErrorIs(t, err, berr.ErrEntityNotFound)
}

func TestAuthentication_Flow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sid, err := f.auth.RequestAuthenticationCode(ctx, mustEmail(t, "ana@stash.it"))
	require.NoError(t, err)

	last, _ := f.mailer.Last()
	assert.Equal(t, "ana@stash.it", last.To)
	assert.Equal(t, "OTP Request", last.Subject)
	assert.Contains(t, last.HTML, "<strong>")

	code := codeFromMail(t, f.mailer)

	_, err = f.auth.Authenticate(ctx, sid, "000000")
	require.ErrorIs(t, err, berr.ErrEntityInvalid)

	tok, err := f.auth.Authenticate(ctx, sid, code)
	require.NoError(t, err)

	uid, err := f.tokens.Validate(tok)
	require.NoError(t, err)

	u, err := f.users.GetByEmail(ctx, mustEmail(t, "ana@stash.it"))
	require.NoError(t, err)
	assert.Equal(t, u.ID(), uid)
	assert.False(t, u.LastLoginAt().IsZero())

	_, err = f.auth.Authenticate(ctx, sid, code)
	require.ErrorIs(t, err, berr.ErrEntityInvalid, "a session authenticates once")

	assert.Contains(t, f.journal.Types(), user.EventUserLoggedIn)
}

func TestRequestAuthenticationCode_ExpiresPreviousSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "ana@stash.it")

	first, err := f.auth.RequestAuthenticationCode(ctx, email)
	require.NoError(t, err)
	firstCode := codeFromMail(t, f.mailer)

	second, err := f.auth.RequestAuthenticationCode(ctx, email)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = f.auth.Authenticate(ctx, first, firstCode)
	require.ErrorIs(t, err, berr.ErrEntityInvalid)

	s, err := f.sessions.GetSession(ctx, first)
	require.NoError(t, err)
	assert.True(t, s.Expired())

	assert.Equal(t, []string{
		user.EventUserCreated,
		user.EventSessionActivated,
		user.EventSessionTerminated,
		user.EventSessionActivated,
	}, f.journal.Types())
}

func TestAuthenticate_ExpiredByTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sid, err := f.auth.RequestAuthenticationCode(ctx, mustEmail(t, "ana@stash.it"))
	require.NoError(t, err)
	code := codeFromMail(t, f.mailer)

	f.auth.SetClock(func() time.Time { return time.Now().Add(user.SessionTTL + time.Second) })

	_, err = f.auth.Authenticate(ctx, sid, code)
	require.ErrorIs(t, err, berr.ErrEntityInvalid)
}

func TestAuthenticate_UnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Authenticate(context.Background(), shared.NewID(), "123456")
	require.ErrorIs(t, err, berr.ErrEntityNotFound)
}

func TestRequestAuthenticationCode_MailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.Err = errors.New("smtp down")

	_, err := f.auth.RequestAuthenticationCode(context.Background(), mustEmail(t, "ana@stash.it"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}
