package entitlement_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tillkit/pkg/entitlement"
	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
	"github.com/dmitrymomot/tillkit/pkg/store/memstore"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func activeRecord(t *testing.T, owner string, tier plan.Tier) *subscription.Record {
	t.Helper()
	rec, err := subscription.Apply(subscription.NewTrialRecord(owner, epoch), subscription.TransitionActivate, epoch, subscription.WithTier(tier))
	require.NoError(t, err)
	return rec
}

func newSync(t *testing.T, source entitlement.Source, opts ...entitlement.Option) *entitlement.Synchronizer {
	t.Helper()
	s := entitlement.NewSynchronizer(source, append([]entitlement.Option{entitlement.WithClock(clock)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewSynchronizer_RequiresSource(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { entitlement.NewSynchronizer(nil) })
}

func TestSynchronizer_DefaultTrial(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	s := newSync(t, store)

	_, ok := s.Snapshot()
	assert.False(t, ok, "no snapshot before an identity is set")

	require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))

	rec, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "owner-1", rec.OwnerID)
	assert.Equal(t, plan.TierTrial, rec.Tier)
	assert.Equal(t, subscription.StatusTrial, rec.Status)
	require.NotNil(t, rec.TrialEndsAt)
	assert.Equal(t, epoch.Add(subscription.TrialPeriod), *rec.TrialEndsAt)
	assert.True(t, rec.Materialized)

	assert.Zero(t, store.Writes(), "the default trial is never persisted")
	assert.Equal(t, 1, store.Watchers("owner-1"))
	assert.True(t, s.Watching())
}

func TestSynchronizer_StoredRecord(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	require.NoError(t, store.Save(context.Background(), activeRecord(t, "owner-1", plan.TierStandard)))

	s := newSync(t, store)
	require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))

	rec, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, plan.TierStandard, rec.Tier)
	assert.Equal(t, subscription.StatusActive, rec.Status)
	assert.False(t, rec.Materialized)
}

func TestSynchronizer_LiveUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	s := newSync(t, store)
	require.NoError(t, s.SetActor(ctx, rbac.PrincipalActor("owner-1")))

	require.NoError(t, store.Save(ctx, activeRecord(t, "owner-1", plan.TierUnlimited)))
	assert.Eventually(t, func() bool {
		rec, ok := s.Snapshot()
		return ok && rec.Tier == plan.TierUnlimited && !rec.Materialized
	}, waitFor, tick)

	require.NoError(t, store.Delete(ctx, "owner-1"))
	assert.Eventually(t, func() bool {
		rec, ok := s.Snapshot()
		return ok && rec.Tier == plan.TierTrial && rec.Materialized
	}, waitFor, tick)
}

func TestSynchronizer_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	s := newSync(t, memstore.New())
	require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))

	rec, ok := s.Snapshot()
	require.True(t, ok)
	rec.Tier = plan.TierUnlimited

	again, _ := s.Snapshot()
	assert.Equal(t, plan.TierTrial, again.Tier)
}

func TestSynchronizer_SessionPrecedence(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	s := newSync(t, store)

	staff := staffActor("staff-1", "owner-b", rbac.RoleStaffAdmin)
	both := rbac.Actor{Principal: &rbac.Principal{ID: "owner-a"}, Session: staff.Session}
	require.NoError(t, s.SetActor(context.Background(), both))

	assert.Equal(t, "owner-b", s.Owner())
	assert.Equal(t, 1, store.Watchers("owner-b"))
	assert.Zero(t, store.Watchers("owner-a"))
	assert.Zero(t, store.Watchers("staff-1"))

	rec, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "owner-b", rec.OwnerID)
}

func TestSynchronizer_IdentitySwitch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Save(ctx, activeRecord(t, "owner-a", plan.TierStandard)))

	var changes []string
	s := newSync(t, store, entitlement.WithChangeHandler(func(owner string, _ *subscription.Record) {
		changes = append(changes, owner)
	}))

	require.NoError(t, s.SetActor(ctx, rbac.PrincipalActor("owner-a")))
	require.Equal(t, 1, store.Watchers("owner-a"))

	require.NoError(t, s.SetActor(ctx, staffActor("staff-1", "owner-b", rbac.RoleStaffCashier)))
	assert.Zero(t, store.Watchers("owner-a"), "previous watch is torn down")
	assert.Equal(t, 1, store.Watchers("owner-b"))

	// A write to the previous owner must never reach the new snapshot.
	require.NoError(t, store.Save(ctx, activeRecord(t, "owner-a", plan.TierUnlimited)))
	assert.Never(t, func() bool {
		rec, ok := s.Snapshot()
		return !ok || rec.OwnerID != "owner-b"
	}, 100*time.Millisecond, tick)

	assert.Equal(t, []string{"owner-a", "owner-b"}, changes)
}

func TestSynchronizer_TeardownBeforeOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := &fakeSource{rec: activeRecord(t, "owner-b", plan.TierStandard)}
	s := newSync(t, src)

	require.NoError(t, s.SetActor(ctx, rbac.PrincipalActor("owner-a")))
	require.NoError(t, s.SetActor(ctx, staffActor("staff-1", "owner-b", rbac.RoleStaffCashier)))
	require.NoError(t, s.SetActor(ctx, rbac.Actor{}))

	assert.Equal(t, []string{
		"watch:owner-a",
		"close:owner-a",
		"watch:owner-b",
		"close:owner-b",
	}, src.callLog())
}

func TestSynchronizer_NoChangeAfterSwitch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := &fakeSource{}
	gate := make(chan struct{})

	var (
		calls    atomic.Int32
		late     atomic.Int32
		switched atomic.Bool
	)
	s := newSync(t, src, entitlement.WithChangeHandler(func(string, *subscription.Record) {
		if switched.Load() {
			late.Add(1)
		}
		if calls.Add(1) == 2 {
			<-gate
		}
	}))
	release := sync.OnceFunc(func() { close(gate) })
	t.Cleanup(release)

	require.NoError(t, s.SetActor(ctx, rbac.PrincipalActor("owner-a")))
	p := src.lastPipe()

	// The first event holds the handler; the second waits in the buffer.
	require.True(t, p.Send(ctx, subscription.Event{OwnerID: "owner-a", Record: activeRecord(t, "owner-a", plan.TierStandard)}))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, waitFor, tick)
	require.True(t, p.Send(ctx, subscription.Event{OwnerID: "owner-a", Record: activeRecord(t, "owner-a", plan.TierUnlimited)}))

	// The teardown gives up on the held handler when its context ends.
	switchCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	require.NoError(t, s.SetActor(switchCtx, rbac.Actor{}))
	switched.Store(true)
	release()

	assert.Never(t, func() bool { return late.Load() > 0 }, 100*time.Millisecond, tick)
	assert.Equal(t, int32(2), calls.Load())
	_, ok := s.Snapshot()
	assert.False(t, ok, "buffered event of the previous owner is dropped")
}

func TestSynchronizer_SameOwnerKeepsWatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()

	var changes atomic.Int32
	s := newSync(t, store, entitlement.WithChangeHandler(func(string, *subscription.Record) {
		changes.Add(1)
	}))

	require.NoError(t, s.SetActor(ctx, rbac.PrincipalActor("owner-1")))
	first, _ := s.Snapshot()

	staff := staffActor("staff-1", "owner-1", rbac.RoleStaffAdmin)
	require.NoError(t, s.SetActor(ctx, staff))

	assert.Equal(t, 1, store.Watchers("owner-1"))
	assert.Equal(t, int32(1), changes.Load(), "no re-materialization")
	assert.True(t, s.Actor().Equal(staff))

	second, _ := s.Snapshot()
	assert.Equal(t, first, second)
}

func TestSynchronizer_ClearIdentity(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	s := newSync(t, store)
	require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))

	require.NoError(t, s.SetActor(context.Background(), rbac.Actor{}))

	_, ok := s.Snapshot()
	assert.False(t, ok)
	assert.Empty(t, s.Owner())
	assert.False(t, s.Watching())
	assert.Zero(t, store.Watchers("owner-1"))
	assert.NoError(t, s.Resync(context.Background()), "resync without identity is a no-op")
}

func TestSynchronizer_OpenFailure(t *testing.T) {
	t.Parallel()

	t.Run("watch", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{}
		src.setWatchErr(errors.New("connection refused"))

		var failures atomic.Int32
		s := newSync(t, src, entitlement.WithErrorHandler(func(string, error) { failures.Add(1) }))

		err := s.SetActor(context.Background(), rbac.PrincipalActor("owner-1"))
		require.ErrorIs(t, err, entitlement.ErrSyncUnavailable)
		assert.False(t, s.Watching())
		assert.Equal(t, "owner-1", s.Owner(), "identity is kept for a later resync")
		assert.Zero(t, failures.Load(), "open failures are returned, not reported")

		src.setWatchErr(nil)
		require.NoError(t, s.Resync(context.Background()))
		assert.True(t, s.Watching())
		_, ok := s.Snapshot()
		assert.True(t, ok)
	})

	t.Run("get closes the watch", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{}
		src.setGetErr(errors.New("timeout"))
		s := newSync(t, src)

		err := s.SetActor(context.Background(), rbac.PrincipalActor("owner-1"))
		require.ErrorIs(t, err, entitlement.ErrSyncUnavailable)

		p := src.lastPipe()
		require.NotNil(t, p)
		select {
		case <-p.Done():
		default:
			t.Fatal("feed must be closed after a failed read")
		}
	})

	t.Run("same owner retries", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{}
		src.setWatchErr(errors.New("connection refused"))
		s := newSync(t, src)

		require.Error(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))
		src.setWatchErr(nil)
		require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))
		assert.True(t, s.Watching())
	})
}

func TestSynchronizer_FeedFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	src := &fakeSource{rec: activeRecord(t, "owner-1", plan.TierStandard)}
	reported := make(chan error, 1)
	s := newSync(t, src, entitlement.WithErrorHandler(func(owner string, err error) {
		assert.Equal(t, "owner-1", owner)
		reported <- err
	}))

	require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))
	first := src.lastPipe()
	require.NotNil(t, first)

	first.Fail(errors.New("connection reset"))

	select {
	case err := <-reported:
		assert.ErrorIs(t, err, entitlement.ErrSyncUnavailable)
	case <-time.After(waitFor):
		t.Fatal("feed failure was not reported")
	}

	assert.Eventually(t, func() bool { return !s.Watching() }, waitFor, tick)
	rec, ok := s.Snapshot()
	require.True(t, ok, "last known snapshot is retained")
	assert.Equal(t, plan.TierStandard, rec.Tier)

	require.NoError(t, s.Resync(context.Background()))
	assert.True(t, s.Watching())
	assert.NotSame(t, first, src.lastPipe())
}

func TestSynchronizer_IgnoresForeignEvents(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	s := newSync(t, src)
	require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))

	p := src.lastPipe()
	require.True(t, p.Send(context.Background(), subscription.Event{
		OwnerID: "owner-2",
		Record:  activeRecord(t, "owner-2", plan.TierUnlimited),
	}))
	require.True(t, p.Send(context.Background(), subscription.Event{
		OwnerID: "owner-1",
		Record:  activeRecord(t, "owner-1", "pro"),
	}))

	assert.Eventually(t, func() bool {
		rec, _ := s.Snapshot()
		return rec.Tier == plan.TierUnlimited && rec.OwnerID == "owner-1"
	}, waitFor, tick, "legacy tier names are normalized")
}

func TestSynchronizer_KeepAlive(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	src.setWatchErr(errors.New("connection refused"))
	s := newSync(t, src)
	require.Error(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.KeepAlive(ctx, 10*time.Millisecond)

	src.setWatchErr(nil)
	assert.Eventually(t, s.Watching, waitFor, tick)
}

func TestSynchronizer_Close(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	s := entitlement.NewSynchronizer(store)
	require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Zero(t, store.Watchers("owner-1"))
	_, ok := s.Snapshot()
	assert.False(t, ok)
	assert.ErrorIs(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")), entitlement.ErrSynchronizerClosed)
	assert.ErrorIs(t, s.Resync(context.Background()), entitlement.ErrSynchronizerClosed)
}

func TestSynchronizer_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	s := newSync(t, memstore.New(), entitlement.WithMetrics(reg))
	require.NoError(t, s.SetActor(context.Background(), rbac.PrincipalActor("owner-1")))

	count, err := testutil.GatherAndCount(reg, "tillkit_entitlement_snapshot_updates_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "tillkit_entitlement_active_watches")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
