package entitlement

import "github.com/dmitrymomot/quotekit/pkg/usage"

// Bulk operation ceilings per call.
const (
	BulkLimitUnlimited int64 = 100 // bulk access on an unlimited-quote plan
	BulkLimitStandard  int64 = 25  // bulk access on a bounded-quote plan
	BulkLimitDisabled  int64 = 1   // no bulk access
)

// FeatureAccess is the outcome of a single evaluation. It is never persisted.
type FeatureAccess struct {
	HasAccess       bool   `json:"hasAccess"`
	UpgradeRequired bool   `json:"upgradeRequired"`
	Quota           *Quota `json:"quota,omitempty"` // nil for boolean features
}

// Quota describes a bounded (or unlimited) counter check.
type Quota struct {
	Limit     int64 `json:"limit"` // Unlimited (-1) for unbounded quotas
	Current   int64 `json:"current"`
	Requested int64 `json:"requested"`
	AtLimit   bool  `json:"isAtLimit"`
}

// Remaining returns how much of the quota is left, or Unlimited.
func (q Quota) Remaining() int64 {
	if q.Limit == Unlimited {
		return Unlimited
	}
	return max(q.Limit-q.Current, 0)
}

func denied() FeatureAccess {
	return FeatureAccess{HasAccess: false, UpgradeRequired: true}
}

// Evaluate decides whether the policy allows requested units of feature.
//
// Boolean features mirror the policy flag. max_quotes compares the monthly
// quote count plus requested against the limit; Unlimited always passes.
// A nil or invalid policy and unknown features fail closed. Evaluate does not
// record usage; callers increment counters after the gated operation succeeds.
func Evaluate(feature FeatureKey, policy *PlanFeatures, current *usage.FeatureUsage, requested int64) FeatureAccess {
	if policy == nil || policy.Validate() != nil {
		return denied()
	}
	if requested < 1 {
		requested = 1
	}

	if feature == FeatureMaxQuotes {
		return evaluateQuotes(policy.MaxQuotes, current, requested)
	}

	enabled, ok := policy.Enabled(feature)
	if !ok {
		return denied()
	}
	return FeatureAccess{HasAccess: enabled, UpgradeRequired: !enabled}
}

func evaluateQuotes(limit int64, current *usage.FeatureUsage, requested int64) FeatureAccess {
	var used int64
	if current != nil && current.QuotesCount > 0 {
		used = current.QuotesCount
	}

	q := &Quota{Limit: limit, Current: used, Requested: requested}
	if limit == Unlimited {
		return FeatureAccess{HasAccess: true, Quota: q}
	}

	// limit-used cannot overflow once used <= limit; used+requested can.
	q.AtLimit = used > limit || requested > limit-used
	return FeatureAccess{
		HasAccess:       !q.AtLimit,
		UpgradeRequired: q.AtLimit,
		Quota:           q,
	}
}

// BulkLimit returns the maximum number of items a single bulk call may touch.
func BulkLimit(policy PlanFeatures) int64 {
	switch {
	case !policy.BulkOperations:
		return BulkLimitDisabled
	case policy.HasUnlimitedQuotes():
		return BulkLimitUnlimited
	default:
		return BulkLimitStandard
	}
}

// EvaluateBulk checks a bulk call over requested items.
// Missing bulk access requires an upgrade; exceeding the ceiling is denied
// without implying one.
func EvaluateBulk(policy *PlanFeatures, requested int64) FeatureAccess {
	if policy == nil || policy.Validate() != nil {
		return denied()
	}
	if requested < 1 {
		requested = 1
	}

	q := &Quota{Limit: BulkLimit(*policy), Requested: requested}
	if !policy.BulkOperations {
		q.AtLimit = true
		return FeatureAccess{HasAccess: false, UpgradeRequired: true, Quota: q}
	}

	q.AtLimit = requested > q.Limit
	return FeatureAccess{HasAccess: !q.AtLimit, Quota: q}
}
