package entitlement

import "fmt"

// FeatureKey identifies a gatable feature.
type FeatureKey string

const (
	FeatureMaxQuotes         FeatureKey = "max_quotes"
	FeaturePDFExport         FeatureKey = "pdf_export"
	FeatureAnalyticsAccess   FeatureKey = "analytics_access"
	FeatureEmailTemplates    FeatureKey = "email_templates"
	FeatureBulkOperations    FeatureKey = "bulk_operations"
	FeatureCustomBranding    FeatureKey = "custom_branding"
	FeaturePrioritySupport   FeatureKey = "priority_support"
	FeatureAPIAccess         FeatureKey = "api_access"
	FeatureAdvancedReporting FeatureKey = "advanced_reporting"
	FeatureTeamCollaboration FeatureKey = "team_collaboration"
)

// analyticsAliasKey is the legacy metadata key mirrored from analytics_access.
const analyticsAliasKey = "analytics"

// ValueType describes how a feature value is interpreted.
type ValueType string

const (
	ValueTypeBoolean   ValueType = "boolean"
	ValueTypeNumber    ValueType = "number"
	ValueTypeUnlimited ValueType = "unlimited"
)

// Category groups features for admin-facing display.
type Category string

const (
	CategoryCore          Category = "core"
	CategoryExport        Category = "export"
	CategoryAnalytics     Category = "analytics"
	CategoryCommunication Category = "communication"
	CategoryProductivity  Category = "productivity"
	CategoryBranding      Category = "branding"
	CategorySupport       Category = "support"
	CategoryIntegration   Category = "integration"
	CategoryCollaboration Category = "collaboration"
)

// FeatureDefinition describes a single gatable feature.
type FeatureDefinition struct {
	Key          FeatureKey `json:"key"`
	DisplayName  string     `json:"display_name"`
	Description  string     `json:"description"`
	Category     Category   `json:"category"`
	ValueType    ValueType  `json:"value_type"`
	DefaultValue any        `json:"default_value"` // int64 for max_quotes, bool otherwise
	PremiumOnly  bool       `json:"premium_only"`
}

// Catalog is an immutable table of feature definitions.
// The zero value is not usable; build one with NewCatalog.
type Catalog struct {
	order []FeatureKey
	defs  map[FeatureKey]FeatureDefinition
}

// NewCatalog builds a catalog from the given definitions, keeping their order.
// Panics on duplicate keys so misconfiguration surfaces at startup.
func NewCatalog(defs ...FeatureDefinition) *Catalog {
	c := &Catalog{
		order: make([]FeatureKey, 0, len(defs)),
		defs:  make(map[FeatureKey]FeatureDefinition, len(defs)),
	}
	for _, d := range defs {
		if _, exists := c.defs[d.Key]; exists {
			panic("entitlement: duplicate feature definition " + string(d.Key))
		}
		c.order = append(c.order, d.Key)
		c.defs[d.Key] = d
	}
	return c
}

// Lookup returns the definition for key and whether it exists.
func (c *Catalog) Lookup(key FeatureKey) (FeatureDefinition, bool) {
	d, ok := c.defs[key]
	return d, ok
}

// Definition returns the definition for key, or a zero definition for unknown keys.
func (c *Catalog) Definition(key FeatureKey) FeatureDefinition {
	return c.defs[key]
}

// Keys returns all keys in catalog order.
func (c *Catalog) Keys() []FeatureKey {
	out := make([]FeatureKey, len(c.order))
	copy(out, c.order)
	return out
}

// ListByCategory groups definitions by category, preserving catalog order.
func (c *Catalog) ListByCategory() map[Category][]FeatureDefinition {
	out := make(map[Category][]FeatureDefinition)
	for _, key := range c.order {
		d := c.defs[key]
		out[d.Category] = append(out[d.Category], d)
	}
	return out
}

// IsPremiumOnly reports whether the feature is reserved for paid plans.
func (c *Catalog) IsPremiumOnly(key FeatureKey) bool {
	return c.defs[key].PremiumOnly
}

// DisplayName returns the human-readable feature name.
// Falls back to the raw key for unknown features.
func (c *Catalog) DisplayName(key FeatureKey) string {
	if d, ok := c.defs[key]; ok {
		return d.DisplayName
	}
	return string(key)
}

var defaultCatalog = NewCatalog(
	FeatureDefinition{
		Key:          FeatureMaxQuotes,
		DisplayName:  "Monthly Quotes",
		Description:  "Number of quotes that can be created per calendar month",
		Category:     CategoryCore,
		ValueType:    ValueTypeUnlimited,
		DefaultValue: int64(5),
		PremiumOnly:  false,
	},
	FeatureDefinition{
		Key:          FeaturePDFExport,
		DisplayName:  "PDF Export",
		Description:  "Download and send quotes as branded PDF documents",
		Category:     CategoryExport,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
	FeatureDefinition{
		Key:          FeatureAnalyticsAccess,
		DisplayName:  "Analytics Dashboard",
		Description:  "Revenue, win-rate and quote pipeline analytics",
		Category:     CategoryAnalytics,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
	FeatureDefinition{
		Key:          FeatureEmailTemplates,
		DisplayName:  "Email Templates",
		Description:  "Reusable email templates for sending quotes to clients",
		Category:     CategoryCommunication,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
	FeatureDefinition{
		Key:          FeatureBulkOperations,
		DisplayName:  "Bulk Operations",
		Description:  "Update, duplicate or delete many quotes at once",
		Category:     CategoryProductivity,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
	FeatureDefinition{
		Key:          FeatureCustomBranding,
		DisplayName:  "Custom Branding",
		Description:  "Company logo and colors on quotes and PDFs",
		Category:     CategoryBranding,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
	FeatureDefinition{
		Key:          FeaturePrioritySupport,
		DisplayName:  "Priority Support",
		Description:  "Faster response times from the support team",
		Category:     CategorySupport,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
	FeatureDefinition{
		Key:          FeatureAPIAccess,
		DisplayName:  "API Access",
		Description:  "Programmatic access to quotes, clients and items",
		Category:     CategoryIntegration,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
	FeatureDefinition{
		Key:          FeatureAdvancedReporting,
		DisplayName:  "Advanced Reporting",
		Description:  "Custom date ranges, exports and per-item breakdowns",
		Category:     CategoryAnalytics,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
	FeatureDefinition{
		Key:          FeatureTeamCollaboration,
		DisplayName:  "Team Collaboration",
		Description:  "Invite crew members and share quotes across a team",
		Category:     CategoryCollaboration,
		ValueType:    ValueTypeBoolean,
		DefaultValue: false,
		PremiumOnly:  true,
	},
)

// DefaultCatalog returns the process-wide catalog of built-in features.
func DefaultCatalog() *Catalog { return defaultCatalog }

// Definition returns the built-in definition for key.
func Definition(key FeatureKey) FeatureDefinition { return defaultCatalog.Definition(key) }

// ListByCategory groups the built-in definitions by category.
func ListByCategory() map[Category][]FeatureDefinition { return defaultCatalog.ListByCategory() }

// IsPremiumOnly reports whether the built-in feature is reserved for paid plans.
func IsPremiumOnly(key FeatureKey) bool { return defaultCatalog.IsPremiumOnly(key) }

// DisplayName returns the built-in human-readable feature name.
func DisplayName(key FeatureKey) string { return defaultCatalog.DisplayName(key) }

// IsValidKey reports whether key belongs to the built-in catalog.
func IsValidKey(key FeatureKey) bool {
	_, ok := defaultCatalog.Lookup(key)
	return ok
}

// ParseFeatureKey converts raw into a built-in key or returns ErrUnknownFeature.
func ParseFeatureKey(raw string) (FeatureKey, error) {
	key := FeatureKey(raw)
	if !IsValidKey(key) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, raw)
	}
	return key, nil
}

// BooleanKeys returns every built-in key whose value is a boolean, in catalog order.
func BooleanKeys() []FeatureKey {
	keys := make([]FeatureKey, 0, len(defaultCatalog.order))
	for _, k := range defaultCatalog.order {
		if defaultCatalog.defs[k].ValueType == ValueTypeBoolean {
			keys = append(keys, k)
		}
	}
	return keys
}
