package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tillkit/pkg/plan"
)

func TestRunCheck(t *testing.T) {
	t.Parallel()

	catalog := plan.Default()

	t.Run("limit with legacy alias", func(t *testing.T) {
		t.Parallel()

		res, err := runCheck(catalog, "basic", string(plan.LimitStaffSeats), "", 5)
		require.NoError(t, err)
		assert.Equal(t, plan.TierStandard, res.Tier)
		require.NotNil(t, res.Limit)
		assert.False(t, res.Limit.Allowed)
		assert.Nil(t, res.Enabled)
	})

	t.Run("feature", func(t *testing.T) {
		t.Parallel()

		res, err := runCheck(catalog, "trial", "", string(plan.FeatureBarcodeScanning), 0)
		require.NoError(t, err)
		require.NotNil(t, res.Enabled)
		assert.True(t, *res.Enabled)
		assert.Nil(t, res.Limit)
	})

	t.Run("unknown tier", func(t *testing.T) {
		t.Parallel()

		_, err := runCheck(catalog, "platinum", string(plan.LimitSites), "", 0)
		assert.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		_, err := runCheck(catalog, "trial", "tables", "", 0)
		assert.Error(t, err)
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()

		_, err := runCheck(catalog, "trial", "", "teleport", 0)
		assert.Error(t, err)
	})
}
