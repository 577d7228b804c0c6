package app_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/stashit/adapters/inmemory"
	"github.com/next-trace/stashit/adapters/sqlite"
	"github.com/next-trace/stashit/app"
	"github.com/next-trace/stashit/config"
	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/governance"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
	"github.com/next-trace/stashit/domain/user"
	"github.com/next-trace/stashit/services/stashsvc"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Environment = config.Test
	cfg.JWT.Secret = config.DevelopmentSecret

	return cfg
}

func TestBuild_SQLiteStorage(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = config.Storage{Driver: "sqlite", DSN: sqlite.MemoryDSN}
	cfg.Bus.Relay = "memory"

	a, err := app.Build(t.Context(), cfg, nil, app.WithMailer(&inmemory.Mailer{}))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close(context.Background())) })

	email, err := user.ParseEmail("ana@stash.it")
	require.NoError(t, err)

	u, err := a.Users.CreateUser(t.Context(), email)
	require.NoError(t, err)

	name, _ := stash.ParseName("savings")
	s, err := a.Stashes.CreateStash(t.Context(), stashsvc.CreateStash{OwnerID: u.ID(), Name: name})
	require.NoError(t, err)

	_, err = a.Users.UpdateUserStatus(t.Context(), u.ID(), shared.UserDeleted)
	require.NoError(t, err)

	got, err := a.Stashes.GetStash(t.Context(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, stash.StatusClosed, got.Status())

	assert.Equal(t, []string{
		"stashit." + user.EventUserCreated,
		"stashit." + stash.EventStashCreated,
		"stashit." + user.EventUserStatusUpdated,
		"stashit." + stash.EventStashStatusUpdated,
	}, a.Relayed.Topics())
}

func TestBuild_RelayOffRecordsNothing(t *testing.T) {
	a, err := app.Build(t.Context(), testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Nil(t, a.Relayed)
	assert.Empty(t, a.Bus.Handlers(user.EventUserCreated))
	assert.Equal(t, []string{"stashsvc.OnUserStatusUpdated"}, a.Bus.Handlers(user.EventUserStatusUpdated))
}

func TestBuild_HandlerOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Bus.Relay = "memory"

	a, err := app.Build(t.Context(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	handlers := a.Bus.Handlers(user.EventUserStatusUpdated)
	require.Len(t, handlers, 2)
	assert.Equal(t, "relay:"+user.EventUserStatusUpdated, handlers[0])
}

func TestBuild_NATSWithoutURL(t *testing.T) {
	cfg := testConfig()
	cfg.Bus.Relay = "nats"

	_, err := app.Build(t.Context(), cfg, nil)
	require.ErrorIs(t, err, berr.ErrPublishFailed)
}

func TestBuild_UnknownDrivers(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "postgres"

	_, err := app.Build(t.Context(), cfg, nil)
	require.ErrorContains(t, err, `storage driver "postgres"`)

	cfg = testConfig()
	cfg.Sessions.Driver = "memcached"

	_, err = app.Build(t.Context(), cfg, nil)
	require.ErrorContains(t, err, `session driver "memcached"`)

	cfg = testConfig()
	cfg.Bus.Relay = "sqs"

	_, err = app.Build(t.Context(), cfg, nil)
	require.ErrorContains(t, err, `relay "sqs"`)
}

func TestBuild_StdoutTracing(t *testing.T) {
	cfg := testConfig()
	cfg.Tracing = config.Tracing{Enabled: true, Exporter: "stdout"}

	var out bytes.Buffer

	a, err := app.Build(t.Context(), cfg, nil, app.WithTraceWriter(&out))
	require.NoError(t, err)

	email, _ := user.ParseEmail("ana@stash.it")
	_, err = a.Users.CreateUser(t.Context(), email)
	require.NoError(t, err)

	require.NoError(t, a.Close(context.Background()))
	assert.Contains(t, out.String(), "publish "+user.EventUserCreated)
}

func TestEventTypes(t *testing.T) {
	types := app.EventTypes()

	assert.Contains(t, types, user.EventUserStatusUpdated)
	assert.Contains(t, types, stash.EventLedgerEntryCreated)
	assert.Len(t, types, len(user.EventTypes)+len(stash.EventTypes)+len(governance.EventTypes))
}
