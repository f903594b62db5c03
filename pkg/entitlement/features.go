package entitlement

import "errors"

// Unlimited marks a quota without an upper bound (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// PlanFeatures is the resolved feature policy of a plan.
// Every field is always populated once produced by ParseMetadata.
type PlanFeatures struct {
	MaxQuotes         int64 `json:"max_quotes"`
	PDFExport         bool  `json:"pdf_export"`
	AnalyticsAccess   bool  `json:"analytics_access"`
	EmailTemplates    bool  `json:"email_templates"`
	BulkOperations    bool  `json:"bulk_operations"`
	CustomBranding    bool  `json:"custom_branding"`
	PrioritySupport   bool  `json:"priority_support"`
	APIAccess         bool  `json:"api_access"`
	AdvancedReporting bool  `json:"advanced_reporting"`
	TeamCollaboration bool  `json:"team_collaboration"`

	// Analytics mirrors AnalyticsAccess for older call sites.
	Analytics bool `json:"analytics"`
}

// FreePlanFeatures is the restrictive policy used when no subscription or
// metadata is available. Treat it as read-only; use FreePlan for a copy.
var FreePlanFeatures = PlanFeatures{
	MaxQuotes: 5,
}

// PremiumPlanFeatures grants every feature with unlimited quotes.
var PremiumPlanFeatures = PlanFeatures{
	MaxQuotes:         Unlimited,
	PDFExport:         true,
	AnalyticsAccess:   true,
	EmailTemplates:    true,
	BulkOperations:    true,
	CustomBranding:    true,
	PrioritySupport:   true,
	APIAccess:         true,
	AdvancedReporting: true,
	TeamCollaboration: true,
	Analytics:         true,
}

// FreePlan returns a copy of FreePlanFeatures.
func FreePlan() PlanFeatures { return FreePlanFeatures }

// PremiumPlan returns a copy of PremiumPlanFeatures.
func PremiumPlan() PlanFeatures { return PremiumPlanFeatures }

// HasUnlimitedQuotes reports whether the quote quota is unbounded.
func (p PlanFeatures) HasUnlimitedQuotes() bool {
	return p.MaxQuotes == Unlimited
}

// Enabled returns the value of a boolean feature.
// The second result is false for max_quotes and unknown keys.
func (p PlanFeatures) Enabled(key FeatureKey) (enabled bool, ok bool) {
	switch key {
	case FeaturePDFExport:
		return p.PDFExport, true
	case FeatureAnalyticsAccess:
		return p.AnalyticsAccess, true
	case FeatureEmailTemplates:
		return p.EmailTemplates, true
	case FeatureBulkOperations:
		return p.BulkOperations, true
	case FeatureCustomBranding:
		return p.CustomBranding, true
	case FeaturePrioritySupport:
		return p.PrioritySupport, true
	case FeatureAPIAccess:
		return p.APIAccess, true
	case FeatureAdvancedReporting:
		return p.AdvancedReporting, true
	case FeatureTeamCollaboration:
		return p.TeamCollaboration, true
	default:
		return false, false
	}
}

// setEnabled assigns a boolean feature. Unknown keys are ignored.
func (p *PlanFeatures) setEnabled(key FeatureKey, v bool) {
	switch key {
	case FeaturePDFExport:
		p.PDFExport = v
	case FeatureAnalyticsAccess:
		p.AnalyticsAccess = v
	case FeatureEmailTemplates:
		p.EmailTemplates = v
	case FeatureBulkOperations:
		p.BulkOperations = v
	case FeatureCustomBranding:
		p.CustomBranding = v
	case FeaturePrioritySupport:
		p.PrioritySupport = v
	case FeatureAPIAccess:
		p.APIAccess = v
	case FeatureAdvancedReporting:
		p.AdvancedReporting = v
	case FeatureTeamCollaboration:
		p.TeamCollaboration = v
	}
}

// EnabledFeatures lists the boolean features turned on, in catalog order.
func (p PlanFeatures) EnabledFeatures() []FeatureKey {
	out := make([]FeatureKey, 0, 9)
	for _, key := range BooleanKeys() {
		if on, _ := p.Enabled(key); on {
			out = append(out, key)
		}
	}
	return out
}

// Validate checks the invariants the evaluator relies on.
func (p PlanFeatures) Validate() error {
	var errs []error
	if !validMaxQuotes(p.MaxQuotes) {
		errs = append(errs, ErrInvalidMaxQuotes)
	}
	if p.Analytics != p.AnalyticsAccess {
		errs = append(errs, ErrAnalyticsAlias)
	}
	return errors.Join(errs...)
}

func validMaxQuotes(n int64) bool {
	return n == Unlimited || n >= 1
}
