package entitlement_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/usage"
)

func TestEvaluate_BooleanFeaturesMirrorPolicy(t *testing.T) {
	t.Parallel()

	policies := []entitlement.PlanFeatures{
		entitlement.FreePlan(),
		entitlement.PremiumPlan(),
		entitlement.ParseMetadata(map[string]string{"max_quotes": "25", "email_templates": "true", "api_access": "true"}),
	}

	for _, p := range policies {
		for _, key := range entitlement.BooleanKeys() {
			want, _ := p.Enabled(key)
			got := entitlement.Evaluate(key, &p, &usage.FeatureUsage{QuotesCount: 1000}, 1)

			assert.Equal(t, want, got.HasAccess, key)
			assert.Equal(t, !want, got.UpgradeRequired, key)
			assert.Nil(t, got.Quota, key)
		}
	}
}

func TestEvaluate_Quotes(t *testing.T) {
	t.Parallel()

	limited := entitlement.FreePlan()

	t.Run("at limit", func(t *testing.T) {
		t.Parallel()

		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &limited, &usage.FeatureUsage{QuotesCount: 5}, 1)
		assert.False(t, got.HasAccess)
		assert.True(t, got.UpgradeRequired)
		require.NotNil(t, got.Quota)
		assert.True(t, got.Quota.AtLimit)
		assert.Equal(t, int64(5), got.Quota.Limit)
		assert.Equal(t, int64(5), got.Quota.Current)
		assert.Equal(t, int64(0), got.Quota.Remaining())
	})

	t.Run("one below limit", func(t *testing.T) {
		t.Parallel()

		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &limited, &usage.FeatureUsage{QuotesCount: 4}, 1)
		assert.True(t, got.HasAccess)
		assert.False(t, got.UpgradeRequired)
		require.NotNil(t, got.Quota)
		assert.False(t, got.Quota.AtLimit)
		assert.Equal(t, int64(1), got.Quota.Remaining())
	})

	t.Run("requested more than remaining", func(t *testing.T) {
		t.Parallel()

		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &limited, &usage.FeatureUsage{QuotesCount: 3}, 3)
		assert.False(t, got.HasAccess)
		assert.Equal(t, int64(3), got.Quota.Requested)
	})

	t.Run("nil usage counts as zero", func(t *testing.T) {
		t.Parallel()

		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &limited, nil, 5)
		assert.True(t, got.HasAccess)
		assert.Equal(t, int64(0), got.Quota.Current)
	})

	t.Run("non-positive requested is treated as one", func(t *testing.T) {
		t.Parallel()

		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &limited, &usage.FeatureUsage{QuotesCount: 5}, 0)
		assert.False(t, got.HasAccess)
		assert.Equal(t, int64(1), got.Quota.Requested)
	})

	t.Run("huge requested does not wrap around", func(t *testing.T) {
		t.Parallel()

		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &limited, &usage.FeatureUsage{QuotesCount: 1}, math.MaxInt64)
		assert.False(t, got.HasAccess)
		assert.True(t, got.UpgradeRequired)
		require.NotNil(t, got.Quota)
		assert.True(t, got.Quota.AtLimit)
	})

	t.Run("huge stored count does not wrap around", func(t *testing.T) {
		t.Parallel()

		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &limited, &usage.FeatureUsage{QuotesCount: math.MaxInt64}, 1)
		assert.False(t, got.HasAccess)
		require.NotNil(t, got.Quota)
		assert.True(t, got.Quota.AtLimit)
		assert.Equal(t, int64(0), got.Quota.Remaining())
	})

	t.Run("negative stored count counts as zero", func(t *testing.T) {
		t.Parallel()

		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &limited, &usage.FeatureUsage{QuotesCount: -3}, 5)
		assert.True(t, got.HasAccess)
		assert.Equal(t, int64(0), got.Quota.Current)
		assert.Equal(t, int64(5), got.Quota.Remaining())
	})

	t.Run("unlimited bypasses usage", func(t *testing.T) {
		t.Parallel()

		premium := entitlement.PremiumPlan()
		got := entitlement.Evaluate(entitlement.FeatureMaxQuotes, &premium, &usage.FeatureUsage{QuotesCount: 1_000_000}, 1)
		assert.True(t, got.HasAccess)
		assert.False(t, got.UpgradeRequired)
		require.NotNil(t, got.Quota)
		assert.False(t, got.Quota.AtLimit)
		assert.Equal(t, entitlement.Unlimited, got.Quota.Remaining())
	})
}

func TestEvaluate_FailsClosed(t *testing.T) {
	t.Parallel()

	premium := entitlement.PremiumPlan()
	broken := entitlement.PlanFeatures{MaxQuotes: 0, PDFExport: true}
	skewed := entitlement.PremiumPlan()
	skewed.Analytics = false

	tests := []struct {
		name    string
		feature entitlement.FeatureKey
		policy  *entitlement.PlanFeatures
	}{
		{name: "nil policy", feature: entitlement.FeaturePDFExport, policy: nil},
		{name: "invalid max quotes", feature: entitlement.FeaturePDFExport, policy: &broken},
		{name: "analytics alias out of sync", feature: entitlement.FeatureAnalyticsAccess, policy: &skewed},
		{name: "unknown feature", feature: "teleportation", policy: &premium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := entitlement.Evaluate(tt.feature, tt.policy, nil, 1)
			assert.False(t, got.HasAccess)
			assert.True(t, got.UpgradeRequired)
		})
	}
}

func TestBulk(t *testing.T) {
	t.Parallel()

	bounded := entitlement.ParseMetadata(map[string]string{"max_quotes": "50", "bulk_operations": "true"})
	premium := entitlement.PremiumPlan()
	free := entitlement.FreePlan()

	assert.Equal(t, entitlement.BulkLimitStandard, entitlement.BulkLimit(bounded))
	assert.Equal(t, entitlement.BulkLimitUnlimited, entitlement.BulkLimit(premium))
	assert.Equal(t, entitlement.BulkLimitDisabled, entitlement.BulkLimit(free))

	tests := []struct {
		name        string
		policy      *entitlement.PlanFeatures
		requested   int64
		wantAccess  bool
		wantUpgrade bool
	}{
		{name: "thirty items over bounded ceiling", policy: &bounded, requested: 30},
		{name: "within bounded ceiling", policy: &bounded, requested: 25, wantAccess: true},
		{name: "within unlimited ceiling", policy: &premium, requested: 100, wantAccess: true},
		{name: "over unlimited ceiling", policy: &premium, requested: 101},
		{name: "no bulk access", policy: &free, requested: 1, wantUpgrade: true},
		{name: "nil policy", policy: nil, requested: 1, wantUpgrade: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := entitlement.EvaluateBulk(tt.policy, tt.requested)
			assert.Equal(t, tt.wantAccess, got.HasAccess)
			assert.Equal(t, tt.wantUpgrade, got.UpgradeRequired)
		})
	}

	got := entitlement.EvaluateBulk(&bounded, 30)
	require.NotNil(t, got.Quota)
	assert.Equal(t, int64(25), got.Quota.Limit)
	assert.True(t, got.Quota.AtLimit)
}
