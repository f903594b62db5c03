package entitlement

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseMetadata converts billing-provider plan metadata into a policy.
//
// The Free policy is always the base: absent keys keep their Free default,
// unparsable or out-of-range max_quotes values are ignored, and boolean keys
// are true only for the literal string "true". A nil map yields FreePlanFeatures.
func ParseMetadata(metadata map[string]string) PlanFeatures {
	features := FreePlanFeatures
	if metadata == nil {
		return features
	}

	if raw, ok := metadata[string(FeatureMaxQuotes)]; ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && validMaxQuotes(n) {
			features.MaxQuotes = n
		}
	}

	for _, key := range BooleanKeys() {
		if raw, ok := metadata[string(key)]; ok {
			features.setEnabled(key, raw == "true")
		}
	}

	features.Analytics = features.AnalyticsAccess
	return features
}

// ParseAnyMetadata is ParseMetadata for loosely typed provider JSON
// (for example Paddle custom_data), where values may be bools or numbers.
func ParseAnyMetadata(metadata map[string]any) PlanFeatures {
	if metadata == nil {
		return ParseMetadata(nil)
	}
	return ParseMetadata(StringifyMetadata(metadata))
}

// StringifyMetadata converts JSON-decoded values to their metadata string form.
// Nested objects and arrays are dropped.
func StringifyMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			if val == math.Trunc(val) && !math.IsInf(val, 0) {
				out[k] = strconv.FormatInt(int64(val), 10)
			} else {
				out[k] = strconv.FormatFloat(val, 'f', -1, 64)
			}
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case json.Number:
			out[k] = val.String()
		case nil, map[string]any, []any:
			// not representable as metadata
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// ToMetadata stringifies every field of the policy, including the analytics alias.
// ParseMetadata(ToMetadata(p)) == p for any p that passes Validate.
func ToMetadata(features PlanFeatures) map[string]string {
	out := make(map[string]string, len(defaultCatalog.order)+1)
	out[string(FeatureMaxQuotes)] = strconv.FormatInt(features.MaxQuotes, 10)
	for _, key := range BooleanKeys() {
		v, _ := features.Enabled(key)
		out[string(key)] = strconv.FormatBool(v)
	}
	out[analyticsAliasKey] = strconv.FormatBool(features.Analytics)
	return out
}
