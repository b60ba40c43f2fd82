package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tillkit/pkg/plan"
)

func TestResolveTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   plan.Tier
		wantOK bool
	}{
		{"trial", plan.TierTrial, true},
		{"standard", plan.TierStandard, true},
		{"unlimited", plan.TierUnlimited, true},
		{" Standard ", plan.TierStandard, true},
		{"free", plan.TierTrial, true},
		{"basic", plan.TierStandard, true},
		{"starter", plan.TierStandard, true},
		{"pro", plan.TierUnlimited, true},
		{"Business", plan.TierUnlimited, true},
		{"premium", plan.TierUnlimited, true},
		{"enterprise", plan.TierUnlimited, true},
		{"Gold", plan.Tier("gold"), false},
		{"", plan.Tier(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, ok := plan.ResolveTier(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestIsLegacyAlias(t *testing.T) {
	t.Parallel()

	assert.True(t, plan.IsLegacyAlias("basic"))
	assert.True(t, plan.IsLegacyAlias("ENTERPRISE"))
	assert.False(t, plan.IsLegacyAlias("standard"))
	assert.False(t, plan.IsLegacyAlias("gold"))
}
