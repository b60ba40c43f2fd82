package subscription_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/statemachine"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("activate trial", func(t *testing.T) {
		t.Parallel()
		rec := subscription.NewTrialRecord("owner", epoch)
		now := epoch.Add(3 * 24 * time.Hour)

		next, err := subscription.Apply(rec, subscription.TransitionActivate, now,
			subscription.WithPeriod(365*24*time.Hour),
			subscription.WithBilling(&subscription.BillingInfo{
				Interval: subscription.BillingIntervalAnnual,
				Amount:   decimal.RequireFromString("299.00"),
				Currency: "USD",
			}),
		)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusActive, next.Status)
		assert.Equal(t, plan.TierStandard, next.Tier)
		assert.Equal(t, now, next.StartDate)
		assert.Equal(t, now.Add(365*24*time.Hour), next.EndDate)
		assert.True(t, next.AutoRenew)
		require.NotNil(t, next.TrialEndsAt, "trial history is kept")
		require.NotNil(t, next.Billing)
		assert.Equal(t, "USD", next.Billing.Currency)

		// input untouched
		assert.Equal(t, subscription.StatusTrial, rec.Status)
		assert.Nil(t, rec.Billing)
	})

	t.Run("activate with explicit tier", func(t *testing.T) {
		t.Parallel()
		rec := subscription.NewTrialRecord("owner", epoch)
		next, err := subscription.Apply(rec, subscription.TransitionActivate, epoch,
			subscription.WithTier(plan.TierUnlimited))
		require.NoError(t, err)
		assert.Equal(t, plan.TierUnlimited, next.Tier)
		assert.Equal(t, epoch.Add(subscription.DefaultBillingPeriod), next.EndDate)
	})

	t.Run("reactivation keeps paid tier", func(t *testing.T) {
		t.Parallel()
		rec := &subscription.Record{OwnerID: "owner", Tier: plan.TierUnlimited, Status: subscription.StatusExpired, EndDate: epoch}
		next, err := subscription.Apply(rec, subscription.TransitionActivate, epoch.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, plan.TierUnlimited, next.Tier)
	})

	t.Run("cancel turns off auto renew", func(t *testing.T) {
		t.Parallel()
		rec := &subscription.Record{OwnerID: "owner", Status: subscription.StatusActive, AutoRenew: true, EndDate: epoch}
		next, err := subscription.Apply(rec, subscription.TransitionCancel, epoch.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, next.Status)
		assert.False(t, next.AutoRenew)
		assert.Equal(t, epoch, next.EndDate)
	})

	t.Run("expire pulls end date in", func(t *testing.T) {
		t.Parallel()
		rec := subscription.NewTrialRecord("owner", epoch)
		now := epoch.Add(time.Hour)
		next, err := subscription.Apply(rec, subscription.TransitionExpire, now)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusExpired, next.Status)
		assert.Equal(t, now, next.EndDate)
	})

	t.Run("restart trial", func(t *testing.T) {
		t.Parallel()
		rec := &subscription.Record{OwnerID: "owner", Tier: plan.TierStandard, Status: subscription.StatusCancelled, EndDate: epoch}
		now := epoch.Add(30 * 24 * time.Hour)
		next, err := subscription.Apply(rec, subscription.TransitionRestartTrial, now)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrial, next.Status)
		assert.Equal(t, plan.TierTrial, next.Tier)
		assert.Equal(t, now.Add(subscription.TrialPeriod), next.EndDate)
		assert.Equal(t, next.EndDate, *next.TrialEndsAt)
	})

	t.Run("invalid transitions", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			from subscription.Status
			tr   subscription.Transition
		}{
			{subscription.StatusActive, subscription.TransitionActivate},
			{subscription.StatusActive, subscription.TransitionRestartTrial},
			{subscription.StatusExpired, subscription.TransitionCancel},
			{subscription.StatusCancelled, subscription.TransitionExpire},
			{subscription.StatusTrial, subscription.TransitionRestartTrial},
			{subscription.Status("paused"), subscription.TransitionActivate},
		}
		for _, c := range cases {
			rec := &subscription.Record{OwnerID: "owner", Status: c.from}
			_, err := subscription.Apply(rec, c.tr, epoch)
			assert.ErrorIs(t, err, subscription.ErrInvalidTransition, "%s from %s", c.tr, c.from)
		}
	})

	t.Run("activate to an unknown tier is rejected", func(t *testing.T) {
		t.Parallel()
		rec := subscription.NewTrialRecord("owner", epoch)
		_, err := subscription.Apply(rec, subscription.TransitionActivate, epoch,
			subscription.WithTier(plan.Tier("platinum")))
		assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
		assert.True(t, statemachine.IsTransitionRejectedError(err))
	})

	t.Run("activate resolves a legacy tier", func(t *testing.T) {
		t.Parallel()
		rec := subscription.NewTrialRecord("owner", epoch)
		next, err := subscription.Apply(rec, subscription.TransitionActivate, epoch,
			subscription.WithTier(plan.Tier("Business")))
		require.NoError(t, err)
		assert.Equal(t, plan.TierUnlimited, next.Tier)
	})

	t.Run("restart trial turns off auto renew", func(t *testing.T) {
		t.Parallel()
		rec := &subscription.Record{OwnerID: "owner", Status: subscription.StatusExpired, AutoRenew: true, EndDate: epoch}
		next, err := subscription.Apply(rec, subscription.TransitionRestartTrial, epoch)
		require.NoError(t, err)
		assert.False(t, next.AutoRenew)
		assert.Equal(t, epoch, next.UpdatedAt)
	})

	t.Run("undefined transition reports the machine error", func(t *testing.T) {
		t.Parallel()
		rec := &subscription.Record{OwnerID: "owner", Status: subscription.StatusActive}
		_, err := subscription.Apply(rec, subscription.TransitionActivate, epoch)
		assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
	})

	t.Run("nil record", func(t *testing.T) {
		t.Parallel()
		_, err := subscription.Apply(nil, subscription.TransitionActivate, epoch)
		assert.ErrorIs(t, err, subscription.ErrRecordNotFound)
	})
}

func TestTransitionsFrom(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []subscription.Transition{
		subscription.TransitionActivate,
		subscription.TransitionCancel,
		subscription.TransitionExpire,
	}, subscription.TransitionsFrom(subscription.StatusTrial))
	assert.Equal(t, []subscription.Transition{
		subscription.TransitionActivate,
		subscription.TransitionRestartTrial,
	}, subscription.TransitionsFrom(subscription.StatusExpired))
	assert.Empty(t, subscription.TransitionsFrom("paused"))

	assert.True(t, subscription.CanTransition(subscription.StatusActive, subscription.TransitionCancel))
	assert.False(t, subscription.CanTransition(subscription.StatusCancelled, subscription.TransitionCancel))
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	rec := &subscription.Record{OwnerID: "owner", Status: subscription.StatusActive, AutoRenew: true, EndDate: epoch}

	same, changed := subscription.Reconcile(rec, epoch)
	assert.False(t, changed)
	assert.Same(t, rec, same)

	next, changed := subscription.Reconcile(rec, epoch.Add(time.Minute))
	assert.True(t, changed)
	assert.Equal(t, subscription.StatusExpired, next.Status)
	assert.Equal(t, epoch, next.EndDate)
	assert.False(t, next.AutoRenew)

	cancelled := &subscription.Record{OwnerID: "owner", Status: subscription.StatusCancelled, EndDate: epoch}
	_, changed = subscription.Reconcile(cancelled, epoch.Add(time.Hour))
	assert.False(t, changed)
}
