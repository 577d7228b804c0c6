package stashsvc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/stashit/adapters/inmemory"
	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
	"github.com/next-trace/stashit/domain/user"
	"github.com/next-trace/stashit/servicebus"
	"github.com/next-trace/stashit/services/stashsvc"
)

// failingRepo fails Save for one stash id.
type failingRepo struct {
	stash.Repository
	failOn shared.ID
	err    error
}

func (r *failingRepo) Save(ctx context.Context, s *stash.Stash) error {
	if s.ID() == r.failOn {
		return r.err
	}

	return r.Repository.Save(ctx, s)
}

type fixture struct {
	bus     *servicebus.Bus
	journal *servicebus.Journal
	repo    *inmemory.StashRepository
	ledger  *inmemory.LedgerRepository
	svc     *stashsvc.Service
	entries *stashsvc.LedgerService
}

func newFixture(t *testing.T, wrap func(stash.Repository) stash.Repository) *fixture {
	t.Helper()

	f := &fixture{journal: servicebus.NewJournal(), repo: inmemory.NewStashRepository()}
	f.ledger = inmemory.NewLedgerRepository(f.repo)
	f.bus = servicebus.New(nil, servicebus.WithPublishMiddleware(f.journal.Middleware()))

	var repo stash.Repository = f.repo
	if wrap != nil {
		repo = wrap(repo)
	}

	f.svc = stashsvc.New(repo, f.bus, nil)
	f.entries = stashsvc.NewLedgerService(f.ledger, repo, f.bus, nil)

	require.NoError(t, servicebus.Subscribe(f.bus, f.svc.Handlers()...))

	return f
}

func (f *fixture) create(t *testing.T, owner shared.ID, name string, tags ...string) *stash.Stash {
	t.Helper()

	n, err := stash.ParseName(name)
	require.NoError(t, err)

	tt, err := stash.ParseTags(tags...)
	require.NoError(t, err)

	s, err := f.svc.CreateStash(t.Context(), stashsvc.CreateStash{OwnerID: owner, Name: n, Tags: tt})
	require.NoError(t, err)

	return s
}

func (f *fixture) status(t *testing.T, id shared.ID) stash.Status {
	t.Helper()

	s, err := f.svc.GetStash(t.Context(), id)
	require.NoError(t, err)

	return s.Status()
}

func statusChanged(owner shared.ID, from, to shared.UserStatus) user.UserStatusUpdated {
	return user.UserStatusUpdated{Meta: shared.Meta{ID: shared.NewID().String()}, UserID: owner, OldStatus: from, NewStatus: to}
}

func TestStatusForUser(t *testing.T) {
	assert.Equal(t, stash.StatusActive, stashsvc.StatusForUser(shared.UserActive))
	assert.Equal(t, stash.StatusPaused, stashsvc.StatusForUser(shared.UserSuspended))
	assert.Equal(t, stash.StatusPaused, stashsvc.StatusForUser(shared.UserPendingProfile))
	assert.Equal(t, stash.StatusClosed, stashsvc.StatusForUser(shared.UserDeleted))
}

func TestCreateStash(t *testing.T) {
	f := newFixture(t, nil)
	owner := shared.NewID()

	s := f.create(t, owner, "savings", "daily")
	assert.Equal(t, stash.StatusActive, s.Status())
	assert.Equal(t, []string{stash.EventStashCreated}, f.journal.Types())
	assert.Empty(t, s.DrainEvents(), "service drains after save")

	name, _ := stash.ParseName("savings")
	_, err := f.svc.CreateStash(t.Context(), stashsvc.CreateStash{OwnerID: owner, Name: name})
	require.ErrorIs(t, err, berr.ErrAssertionFailed, "name unique per owner")

	_, err = f.svc.CreateStash(t.Context(), stashsvc.CreateStash{OwnerID: shared.NewID(), Name: name})
	require.NoError(t, err, "other owners may reuse a name")

	tags := make([]stash.Tag, stash.MaxTags+1)
	for i := range tags {
		tags[i], _ = stash.ParseTag("tag" + string(rune('a'+i)))
	}

	other, _ := stash.ParseName("spending")
	_, err = f.svc.CreateStash(t.Context(), stashsvc.CreateStash{OwnerID: owner, Name: other, Tags: tags})
	require.ErrorIs(t, err, berr.ErrAssertionFailed)
}

func TestGetStashesDefaultsAndPaging(t *testing.T) {
	f := newFixture(t, nil)
	owner := shared.NewID()

	for i := range 25 {
		f.create(t, owner, "stash"+string(rune('a'+i)))
	}

	first, err := f.svc.GetStashes(t.Context(), stashsvc.GetStashes{OwnerID: owner})
	require.NoError(t, err)
	assert.Len(t, first, stashsvc.DefaultPageSize)

	second, err := f.svc.GetStashes(t.Context(), stashsvc.GetStashes{OwnerID: owner, Page: 2})
	require.NoError(t, err)
	assert.Len(t, second, 5)

	_, err = f.svc.GetStash(t.Context(), shared.NewID())
	require.ErrorIs(t, err, berr.ErrEntityNotFound)
}

func TestRenameAndUpdate(t *testing.T) {
	f := newFixture(t, nil)
	owner := shared.NewID()

	s := f.create(t, owner, "savings")
	f.create(t, owner, "holiday")

	taken, _ := stash.ParseName("holiday")
	_, err := f.svc.RenameStash(t.Context(), s.ID(), taken)
	require.ErrorIs(t, err, berr.ErrAssertionFailed)

	fresh, _ := stash.ParseName("rainy")
	renamed, err := f.svc.RenameStash(t.Context(), s.ID(), fresh)
	require.NoError(t, err)
	assert.Equal(t, "rainy", renamed.Name().String())

	_, err = f.svc.UpdateStashStatus(t.Context(), s.ID(), stash.StatusPaused)
	require.NoError(t, err)
	assert.Equal(t, stash.StatusPaused, f.status(t, s.ID()))

	_, err = f.svc.UpdateStashBalance(t.Context(), s.ID(), shared.NewMula(7, shared.USDT()))
	require.NoError(t, err)

	got, _ := f.svc.GetStash(t.Context(), s.ID())
	assert.True(t, got.Balance(shared.USDT()).Equal(shared.NewMula(7, shared.USDT())))

	_, err = f.svc.UpdateStashStatus(t.Context(), shared.NewID(), stash.StatusPaused)
	require.ErrorIs(t, err, berr.ErrEntityNotFound)
}

func TestCascadeSuspendedPausesEveryStash(t *testing.T) {
	f := newFixture(t, nil)
	owner := shared.NewID()

	w1 := f.create(t, owner, "wallet1")
	w2 := f.create(t, owner, "wallet2")
	bystander := f.create(t, shared.NewID(), "wallet3")
	f.journal.Reset()

	ev := statusChanged(owner, shared.UserPendingProfile, shared.UserSuspended)
	require.NoError(t, f.bus.Publish(t.Context(), ev))

	assert.Equal(t, stash.StatusPaused, f.status(t, w1.ID()))
	assert.Equal(t, stash.StatusPaused, f.status(t, w2.ID()))
	assert.Equal(t, stash.StatusActive, f.status(t, bystander.ID()))

	assert.Equal(t, []string{
		user.EventUserStatusUpdated,
		stash.EventStashStatusUpdated,
		stash.EventStashStatusUpdated,
	}, f.journal.Types())

	events := f.journal.Events()
	assert.Equal(t, w1.ID().String(), events[1].AggregateID())
	assert.Equal(t, w2.ID().String(), events[2].AggregateID())

	for _, e := range events[1:] {
		assert.Equal(t, ev.EventID(), e.CausationID())
		assert.Equal(t, ev.EventID(), e.CorrelationID())
	}
}

func TestCascadeDeletedClosesRegardless(t *testing.T) {
	f := newFixture(t, nil)
	owner := shared.NewID()

	active := f.create(t, owner, "wallet1")
	paused := f.create(t, owner, "wallet2")
	_, err := f.svc.UpdateStashStatus(t.Context(), paused.ID(), stash.StatusPaused)
	require.NoError(t, err)

	closed := f.create(t, owner, "wallet3")
	_, err = f.svc.UpdateStashStatus(t.Context(), closed.ID(), stash.StatusClosed)
	require.NoError(t, err)

	require.NoError(t, f.bus.Publish(t.Context(), statusChanged(owner, shared.UserActive, shared.UserDeleted)))

	for _, id := range []shared.ID{active.ID(), paused.ID(), closed.ID()} {
		assert.Equal(t, stash.StatusClosed, f.status(t, id))
	}
}

func TestCascadeWithoutStashesIsNoop(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.svc.CascadeUserStatus(t.Context(), shared.NewID(), shared.UserSuspended))
	assert.Empty(t, f.journal.Types())
}

func TestCascadeSaveFailureIsPartial(t *testing.T) {
	saveErr := errors.New("disk full")
	owner := shared.NewID()

	var failing *failingRepo

	f := newFixture(t, func(r stash.Repository) stash.Repository {
		failing = &failingRepo{Repository: r, err: saveErr}
		return failing
	})

	w1 := f.create(t, owner, "wallet1")
	w2 := f.create(t, owner, "wallet2")
	w3 := f.create(t, owner, "wallet3")
	failing.failOn = w2.ID()
	f.journal.Reset()

	err := f.bus.Publish(t.Context(), statusChanged(owner, shared.UserActive, shared.UserSuspended))
	require.Error(t, err)
	require.ErrorIs(t, err, berr.ErrCascadePartial)
	require.ErrorIs(t, err, berr.ErrHandlerFailed)
	require.ErrorIs(t, err, saveErr)

	var cerr *stashsvc.CascadeError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, owner, cerr.UserID)
	assert.Equal(t, stash.StatusPaused, cerr.Target)
	assert.Equal(t, []shared.ID{w1.ID()}, cerr.Applied)
	assert.Equal(t, w2.ID(), cerr.Failed)
	assert.Equal(t, []shared.ID{w3.ID()}, cerr.Remaining)

	var herr *servicebus.HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, stashsvc.HandlerOnUserStatusUpdated, herr.Handler)

	assert.Equal(t, stash.StatusPaused, f.status(t, w1.ID()))
	assert.Equal(t, stash.StatusActive, f.status(t, w2.ID()))
	assert.Equal(t, stash.StatusActive, f.status(t, w3.ID()))

	assert.Equal(t, []string{user.EventUserStatusUpdated, stash.EventStashStatusUpdated}, f.journal.Types(),
		"nothing is published for the stash whose save failed")
}

func TestLedgerEntriesMoveBalance(t *testing.T) {
	f := newFixture(t, nil)
	owner := shared.NewID()
	s := f.create(t, owner, "savings")
	usdt := shared.USDT()

	_, err := f.entries.CreateLedgerEntry(t.Context(), stashsvc.CreateLedgerEntry{
		StashID: s.ID(), Type: stash.Credit, Amount: shared.NewMula(100, usdt), UpstreamRefID: shared.NewID(),
	})
	require.NoError(t, err)

	debit, err := f.entries.CreateLedgerEntry(t.Context(), stashsvc.CreateLedgerEntry{
		StashID: s.ID(), Type: stash.Debit, Amount: shared.NewMula(30, usdt), UpstreamRefID: shared.NewID(),
	})
	require.NoError(t, err)

	got, _ := f.svc.GetStash(t.Context(), s.ID())
	assert.True(t, got.Balance(usdt).Equal(shared.NewMula(70, usdt)), got.Balance(usdt).String())

	_, err = f.entries.CreateLedgerEntry(t.Context(), stashsvc.CreateLedgerEntry{
		StashID: s.ID(), Type: stash.Debit, Amount: shared.NewMula(71, usdt),
	})
	require.ErrorIs(t, err, berr.ErrInsufficientFunds)

	entries, err := f.entries.GetLedgerEntries(t.Context(), stash.LedgerQuery{OwnerID: owner})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	one, err := f.entries.GetLedgerEntry(t.Context(), debit.ID())
	require.NoError(t, err)
	assert.Equal(t, stash.Debit, one.Type())

	_, err = f.entries.GetLedgerEntry(t.Context(), shared.NewID())
	require.ErrorIs(t, err, berr.ErrEntityNotFound)

	assert.Contains(t, f.journal.Types(), stash.EventStashBalanceUpdated)
}

func TestLedgerEntryRejectsMissingOrClosedStash(t *testing.T) {
	f := newFixture(t, nil)
	usdt := shared.USDT()

	_, err := f.entries.CreateLedgerEntry(t.Context(), stashsvc.CreateLedgerEntry{
		StashID: shared.NewID(), Type: stash.Credit, Amount: shared.NewMula(1, usdt),
	})
	require.ErrorIs(t, err, berr.ErrEntityNotFound)

	s := f.create(t, shared.NewID(), "savings")
	_, err = f.svc.UpdateStashStatus(t.Context(), s.ID(), stash.StatusClosed)
	require.NoError(t, err)

	_, err = f.entries.CreateLedgerEntry(t.Context(), stashsvc.CreateLedgerEntry{
		StashID: s.ID(), Type: stash.Credit, Amount: shared.NewMula(1, usdt),
	})
	require.ErrorIs(t, err, berr.ErrAssertionFailed)

	_, err = f.entries.CreateLedgerEntry(t.Context(), stashsvc.CreateLedgerEntry{
		StashID: s.ID(), Type: "REFUND", Amount: shared.NewMula(1, usdt),
	})
	require.ErrorIs(t, err, berr.ErrInvalidValue)
}

func TestApplyLedgerEntryUnderflow(t *testing.T) {
	f := newFixture(t, nil)
	s := f.create(t, shared.NewID(), "savings")

	err := f.svc.ApplyLedgerEntry(t.Context(), stash.LedgerEntryCreated{
		EntryID: shared.NewID(), StashID: s.ID(), Type: stash.Debit, Amount: shared.NewMula(1, shared.USDT()),
	})
	require.ErrorIs(t, err, berr.ErrInsufficientFunds)
}

type wrongShape struct{ user.UserStatusUpdated }

func TestHandlerRejectsWrongShape(t *testing.T) {
	f := newFixture(t, nil)

	err := f.bus.Publish(t.Context(), wrongShape{statusChanged(shared.NewID(), shared.UserActive, shared.UserDeleted)})
	require.ErrorIs(t, err, berr.ErrHandlerTypeMismatch)
}

func TestHandlersAreSubscribedOnce(t *testing.T) {
	f := newFixture(t, nil)

	err := servicebus.Subscribe(f.bus, f.svc.Handlers()...)
	require.ErrorIs(t, err, berr.ErrHandlerExists)

	assert.Equal(t, []string{stashsvc.HandlerOnUserStatusUpdated}, f.bus.Handlers(user.EventUserStatusUpdated))
}

var _ cbus.EventSource = (*stash.Stash)(nil)
