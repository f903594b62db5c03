// Package gate enforces plan entitlements on HTTP routes.
//
// A Gate resolves the caller's feature policy, reads the usage counters the
// check needs and evaluates the request. Require and RequireBulk wrap handlers:
//
//	g := gate.New(resolver, usageStore, gate.WithLogger(log))
//
//	r.With(g.Require(entitlement.FeatureMaxQuotes)).Post("/quotes", createQuote)
//	r.With(g.Require(entitlement.FeaturePDFExport)).Post("/quotes/{id}/pdf", exportPDF)
//	r.With(g.RequireBulk(gate.QueryQuantity("count"))).Post("/quotes/bulk", bulkQuotes)
//
// Denials are answered with 403 and an upgrade message; a request above the
// plan's bulk ceiling gets 400 without an upgrade prompt. When the policy or
// the usage store cannot be read, the gate answers 500 with a retry-later
// message and never reports the feature as unavailable.
//
// After the wrapped handler answers 2xx the matching usage counter is
// incremented in the background. A failed increment is logged and counted in
// quotekit_usage_increment_failures_total; the response is already sent.
//
// API exposes the same checks as JSON endpoints plus admin operations for
// validating and publishing plan feature sets.
package gate
