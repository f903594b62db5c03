package entitlement

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// ValidationResult is returned by ValidateFeatureConfig.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateFeatureConfig checks a hand-edited, possibly partial feature set
// before it is written back to the billing provider. Values are expected in
// their JSON-decoded form.
func ValidateFeatureConfig(partial map[string]any) ValidationResult {
	errs := make([]string, 0)

	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := partial[k]
		switch {
		case k == string(FeatureMaxQuotes):
			if !isValidMaxQuotesValue(v) {
				errs = append(errs, fmt.Sprintf("%s must be a positive integer or -1 for unlimited", k))
			}
		case k == analyticsAliasKey || isBooleanKey(FeatureKey(k)):
			if _, ok := v.(bool); !ok {
				errs = append(errs, fmt.Sprintf("%s must be a boolean", k))
			}
		default:
			errs = append(errs, fmt.Sprintf("%s is not a known feature", k))
		}
	}

	alias, aliasOK := partial[analyticsAliasKey].(bool)
	access, accessOK := partial[string(FeatureAnalyticsAccess)].(bool)
	if aliasOK && accessOK && alias != access {
		errs = append(errs, ErrAnalyticsAlias.Error())
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ApplyFeatureConfig overlays a validated partial config onto base.
// Call ValidateFeatureConfig first; invalid entries are skipped.
// A lone analytics alias sets analytics_access.
func ApplyFeatureConfig(base PlanFeatures, partial map[string]any) PlanFeatures {
	out := base
	if v, ok := partial[string(FeatureMaxQuotes)]; ok && isValidMaxQuotesValue(v) {
		n, _ := toInt64(v)
		out.MaxQuotes = n
	}
	if v, ok := partial[analyticsAliasKey].(bool); ok {
		out.AnalyticsAccess = v
	}
	for _, key := range BooleanKeys() {
		if v, ok := partial[string(key)].(bool); ok {
			out.setEnabled(key, v)
		}
	}
	out.Analytics = out.AnalyticsAccess
	return out
}

func isBooleanKey(key FeatureKey) bool {
	d, ok := defaultCatalog.Lookup(key)
	return ok && d.ValueType == ValueTypeBoolean
}

func isValidMaxQuotesValue(v any) bool {
	n, ok := toInt64(v)
	return ok && validMaxQuotes(n)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
