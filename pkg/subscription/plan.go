package subscription

import (
	"slices"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
)

// PolicyComparison contains the differences between two plan policies.
// Used to report plan changes and to flag downgrades.
type PolicyComparison struct {
	Gained     []entitlement.FeatureKey `json:"gained"`
	Lost       []entitlement.FeatureKey `json:"lost"`
	QuoteLimit *LimitChange             `json:"quoteLimit,omitempty"`
}

// LimitChange represents a change in the monthly quote limit.
type LimitChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// IsDowngrade reports whether the target policy takes anything away.
func (c PolicyComparison) IsDowngrade() bool {
	if len(c.Lost) > 0 {
		return true
	}
	return c.QuoteLimit != nil && c.QuoteLimit.Decreased()
}

// HasChanges reports whether the two policies differ at all.
func (c PolicyComparison) HasChanges() bool {
	return len(c.Gained) > 0 || len(c.Lost) > 0 || c.QuoteLimit != nil
}

// Decreased treats unlimited-to-limited as a decrease.
func (l LimitChange) Decreased() bool {
	if l.From == entitlement.Unlimited {
		return l.To != entitlement.Unlimited
	}
	if l.To == entitlement.Unlimited {
		return false
	}
	return l.To < l.From
}

// ComparePolicies returns the differences between current and target policies.
func ComparePolicies(current, target entitlement.PlanFeatures) PolicyComparison {
	cmp := PolicyComparison{
		Gained: make([]entitlement.FeatureKey, 0),
		Lost:   make([]entitlement.FeatureKey, 0),
	}

	have := current.EnabledFeatures()
	want := target.EnabledFeatures()
	for _, key := range want {
		if !slices.Contains(have, key) {
			cmp.Gained = append(cmp.Gained, key)
		}
	}
	for _, key := range have {
		if !slices.Contains(want, key) {
			cmp.Lost = append(cmp.Lost, key)
		}
	}

	if current.MaxQuotes != target.MaxQuotes {
		cmp.QuoteLimit = &LimitChange{From: current.MaxQuotes, To: target.MaxQuotes}
	}
	return cmp
}
