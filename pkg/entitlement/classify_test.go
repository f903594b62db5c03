package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
)

func TestPlanTierName(t *testing.T) {
	t.Parallel()

	assert.True(t, entitlement.IsFreePlan(entitlement.FreePlanFeatures))
	assert.False(t, entitlement.IsPremiumPlan(entitlement.FreePlanFeatures))
	assert.True(t, entitlement.IsPremiumPlan(entitlement.PremiumPlanFeatures))
	assert.False(t, entitlement.IsFreePlan(entitlement.PremiumPlanFeatures))

	tests := []struct {
		name     string
		metadata map[string]string
		want     entitlement.Tier
	}{
		{name: "free", metadata: nil, want: entitlement.TierFree},
		{name: "unlimited alone", metadata: map[string]string{"max_quotes": "-1"}, want: entitlement.TierFree},
		{name: "unlimited with pdf", metadata: map[string]string{"max_quotes": "-1", "pdf_export": "true"}, want: entitlement.TierPremium},
		{name: "bounded with pdf", metadata: map[string]string{"max_quotes": "50", "pdf_export": "true"}, want: entitlement.TierPremium},
		{name: "more quotes only", metadata: map[string]string{"max_quotes": "20"}, want: entitlement.TierCustom},
		{name: "more quotes with templates", metadata: map[string]string{"max_quotes": "20", "email_templates": "true"}, want: entitlement.TierCustom},
		{name: "few quotes with branding", metadata: map[string]string{"max_quotes": "3", "custom_branding": "true"}, want: entitlement.TierFree},
		{name: "free with analytics", metadata: map[string]string{"analytics_access": "true"}, want: entitlement.TierPremium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, entitlement.PlanTierName(entitlement.ParseMetadata(tt.metadata)))
		})
	}
}
