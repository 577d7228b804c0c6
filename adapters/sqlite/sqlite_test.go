package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/stashit/adapters/sqlite"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(t.Context(), sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newStash(t *testing.T, owner shared.ID, name string) *stash.Stash {
	t.Helper()

	n, err := stash.ParseName(name)
	require.NoError(t, err)

	tags, err := stash.ParseTags("daily")
	require.NoError(t, err)

	return stash.New(owner, n, tags)
}

func TestOpen_RejectsEmptyDSN(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ")
	require.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stashit.db")

	first, err := sqlite.Open(t.Context(), path)
	require.NoError(t, err)

	st := newStash(t, shared.NewID(), "savings")
	require.NoError(t, first.Stashes().Save(t.Context(), st))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(t.Context(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	got, err := second.Stashes().FindByID(t.Context(), st.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "savings", got.Name().String())
}

func TestStashRepository_RoundTrip(t *testing.T) {
	repo := openStore(t).Stashes()
	ctx := t.Context()
	owner := shared.NewID()

	st := newStash(t, owner, "savings")
	st.UpdateBalance(shared.NewMula(1500, shared.USDT()))
	require.NoError(t, repo.Save(ctx, st))

	got, err := repo.FindByID(ctx, st.ID())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, st.ID(), got.ID())
	assert.Equal(t, owner, got.OwnerID())
	assert.Equal(t, stash.StatusActive, got.Status())
	assert.True(t, got.Balance(shared.USDT()).Equal(shared.NewMula(1500, shared.USDT())))
	assert.Equal(t, []string{"daily"}, tagStrings(got.Tags()))
	assert.Empty(t, got.DrainEvents(), "restored aggregates carry no events")

	missing, err := repo.FindByID(ctx, shared.NewID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStashRepository_UpsertKeepsOrder(t *testing.T) {
	repo := openStore(t).Stashes()
	ctx := t.Context()
	owner := shared.NewID()

	a := newStash(t, owner, "alpha")
	b := newStash(t, owner, "bravo")
	c := newStash(t, shared.NewID(), "charlie")

	for _, s := range []*stash.Stash{a, b, c} {
		require.NoError(t, repo.Save(ctx, s))
	}

	a.UpdateStatus(stash.StatusPaused)
	require.NoError(t, repo.Save(ctx, a))

	all, err := repo.FindMany(ctx, stash.FindManyQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, a.ID(), all[0].ID())
	assert.Equal(t, stash.StatusPaused, all[0].Status())

	owned, err := repo.FindMany(ctx, stash.FindManyQuery{OwnerID: owner, Limit: 1, Page: 2})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, b.ID(), owned[0].ID())

	exists, err := repo.ExistsWithName(ctx, owner, a.Name())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsWithName(ctx, owner, c.Name())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLedgerRepository_Filters(t *testing.T) {
	store := openStore(t)
	stashes, ledger := store.Stashes(), store.Ledger()
	ctx := t.Context()
	owner := shared.NewID()

	mine := newStash(t, owner, "mine")
	theirs := newStash(t, shared.NewID(), "theirs")
	require.NoError(t, stashes.Save(ctx, mine))
	require.NoError(t, stashes.Save(ctx, theirs))

	amount := shared.NewMula(10, shared.USDT())
	credit := stash.NewLedgerEntry(mine.ID(), stash.Credit, amount, shared.NewID(), stash.Metadata{"memo": "salary"})
	debit := stash.NewLedgerEntry(mine.ID(), stash.Debit, amount, shared.NewID(), nil)
	other := stash.NewLedgerEntry(theirs.ID(), stash.Credit, amount, shared.NewID(), nil)

	for _, e := range []*stash.LedgerEntry{credit, debit, other} {
		require.NoError(t, ledger.Save(ctx, e))
	}

	got, err := ledger.FindByID(ctx, credit.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "salary", got.Metadata()["memo"])
	assert.True(t, got.Amount().Equal(amount))

	byOwner, err := ledger.FindMany(ctx, stash.LedgerQuery{OwnerID: owner})
	require.NoError(t, err)
	assert.Equal(t, []shared.ID{credit.ID(), debit.ID()}, entryIDs(byOwner))

	credits, err := ledger.FindMany(ctx, stash.LedgerQuery{Type: stash.Credit})
	require.NoError(t, err)
	assert.Equal(t, []shared.ID{credit.ID(), other.ID()}, entryIDs(credits))

	paged, err := ledger.FindMany(ctx, stash.LedgerQuery{StashID: mine.ID(), Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []shared.ID{debit.ID()}, entryIDs(paged))
}

func tagStrings(tags []stash.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}

	return out
}

func entryIDs(entries []*stash.LedgerEntry) []shared.ID {
	out := make([]shared.ID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID())
	}

	return out
}
