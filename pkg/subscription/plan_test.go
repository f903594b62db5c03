package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
)

func TestComparePolicies(t *testing.T) {
	t.Parallel()

	t.Run("upgrade from free", func(t *testing.T) {
		t.Parallel()
		cmp := subscription.ComparePolicies(entitlement.FreePlan(), entitlement.PremiumPlan())

		assert.Len(t, cmp.Gained, len(entitlement.BooleanKeys()))
		assert.Empty(t, cmp.Lost)
		require.NotNil(t, cmp.QuoteLimit)
		assert.False(t, cmp.QuoteLimit.Decreased())
		assert.False(t, cmp.IsDowngrade())
		assert.True(t, cmp.HasChanges())
	})

	t.Run("same policy", func(t *testing.T) {
		t.Parallel()
		cmp := subscription.ComparePolicies(entitlement.PremiumPlan(), entitlement.PremiumPlan())
		assert.False(t, cmp.HasChanges())
		assert.False(t, cmp.IsDowngrade())
	})

	t.Run("lower quote limit is a downgrade", func(t *testing.T) {
		t.Parallel()
		from := entitlement.FreePlan()
		from.MaxQuotes = 100
		to := entitlement.FreePlan()
		to.MaxQuotes = 10

		cmp := subscription.ComparePolicies(from, to)
		assert.True(t, cmp.IsDowngrade())
	})
}

func TestLimitChange_Decreased(t *testing.T) {
	t.Parallel()

	assert.True(t, subscription.LimitChange{From: entitlement.Unlimited, To: 1000}.Decreased())
	assert.False(t, subscription.LimitChange{From: 5, To: entitlement.Unlimited}.Decreased())
	assert.True(t, subscription.LimitChange{From: 50, To: 5}.Decreased())
	assert.False(t, subscription.LimitChange{From: 5, To: 50}.Decreased())
}
