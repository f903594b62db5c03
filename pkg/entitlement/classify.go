package entitlement

// Tier is a display name for a plan, used for UI and analytics segmentation.
type Tier string

const (
	TierFree    Tier = "Free"
	TierPremium Tier = "Premium"
	TierCustom  Tier = "Custom"
)

// freeQuoteCeiling is the highest quote limit still considered a Free plan.
const freeQuoteCeiling int64 = 5

// IsFreePlan reports a quote limit of at most five (Unlimited included, as -1)
// without PDF export or analytics.
func IsFreePlan(p PlanFeatures) bool {
	return p.MaxQuotes <= freeQuoteCeiling &&
		!p.PDFExport &&
		!p.AnalyticsAccess
}

// IsPremiumPlan reports unlimited quotes or any headline paid feature.
func IsPremiumPlan(p PlanFeatures) bool {
	return p.MaxQuotes == Unlimited ||
		p.PDFExport ||
		p.AnalyticsAccess ||
		p.CustomBranding
}

// PlanTierName classifies a policy. Plans matching neither predicate are Custom.
func PlanTierName(p PlanFeatures) Tier {
	if IsFreePlan(p) {
		return TierFree
	}
	if IsPremiumPlan(p) {
		return TierPremium
	}
	return TierCustom
}
