package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tillkit/pkg/plan"
)

func TestCatalog_Compare(t *testing.T) {
	t.Parallel()

	c := plan.Default()

	t.Run("upgrade", func(t *testing.T) {
		t.Parallel()
		cmp := c.Compare(plan.TierTrial, plan.TierStandard)
		assert.False(t, cmp.IsDowngrade())
		assert.Contains(t, cmp.NewFeatures, plan.FeatureStaffManagement)
		assert.Empty(t, cmp.LostFeatures)
		assert.Equal(t, plan.LimitChange{From: 1, To: 5}, cmp.IncreasedLimits[plan.LimitStaffSeats])
		assert.NotContains(t, cmp.IncreasedLimits, plan.LimitSites)
	})

	t.Run("unlimited to finite is a decrease", func(t *testing.T) {
		t.Parallel()
		cmp := c.Compare(plan.TierUnlimited, plan.TierStandard)
		assert.True(t, cmp.IsDowngrade())
		assert.Contains(t, cmp.LostFeatures, plan.FeatureAIAssistant)
		assert.Equal(t, plan.LimitChange{From: plan.Unlimited, To: 1000}, cmp.DecreasedLimits[plan.LimitCatalogItems])
	})

	t.Run("finite to unlimited is an increase", func(t *testing.T) {
		t.Parallel()
		cmp := c.Compare(plan.TierStandard, plan.TierUnlimited)
		assert.Equal(t, plan.LimitChange{From: 5, To: plan.Unlimited}, cmp.IncreasedLimits[plan.LimitStaffSeats])
		assert.Empty(t, cmp.DecreasedLimits)
	})
}

func TestCatalog_CanDowngrade(t *testing.T) {
	t.Parallel()

	c := plan.Default()

	err := c.CanDowngrade(plan.TierStandard, plan.TierTrial, map[plan.LimitKind]int64{
		plan.LimitStaffSeats:   1,
		plan.LimitCatalogItems: 40,
	})
	require.NoError(t, err)

	err = c.CanDowngrade(plan.TierStandard, plan.TierTrial, map[plan.LimitKind]int64{
		plan.LimitStaffSeats: 3,
	})
	require.ErrorIs(t, err, plan.ErrDowngradeNotPossible)
	assert.Contains(t, err.Error(), "staff_seats")

	// unknown usage kinds are not checked
	require.NoError(t, c.CanDowngrade(plan.TierUnlimited, plan.TierTrial, nil))
}
