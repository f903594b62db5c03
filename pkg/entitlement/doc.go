// Package entitlement maps billing-provider plan metadata into a typed feature
// policy and evaluates access decisions against monthly usage counters.
//
// The package is pure: nothing in it performs I/O. Callers resolve a user's
// plan metadata (see the subscription package), parse it with ParseMetadata,
// read the current usage (see the usage package) and pass both to Evaluate.
//
// Key concepts:
//
//   - FeatureKey: closed set of gatable features (max_quotes, pdf_export, ...)
//   - Catalog: static, read-only table of FeatureDefinition values
//   - PlanFeatures: fully populated policy derived from metadata
//   - FeatureAccess: the result of a single evaluation, never persisted
//
// Basic usage:
//
//	policy := entitlement.ParseMetadata(map[string]string{
//	    "max_quotes": "-1",
//	    "pdf_export": "true",
//	})
//
//	access := entitlement.Evaluate(entitlement.FeaturePDFExport, &policy, nil, 1)
//	if !access.HasAccess {
//	    // respond with an upgrade prompt
//	}
//
//	entitlement.PlanTierName(policy) // "Premium"
//
// Malformed metadata never produces an error: unparsable values collapse to
// the Free policy defaults. A malformed policy passed to Evaluate fails closed.
package entitlement
