// Package subscription resolves a user's effective feature policy from their
// billing subscription and keeps the local subscription mirror in step with
// the billing provider.
//
// # Architecture
//
// The package is built from small interfaces so each piece can be swapped:
//
//   - Store: persists the local Subscription mirror (PostgreSQL or memory)
//   - MetadataSource: returns the feature metadata attached to a plan ID
//   - MetadataWriter: stores metadata produced by entitlement.ToMetadata
//   - ProviderSubscriptions: reads the authoritative subscription from the provider
//
// Plan IDs are the billing provider's price IDs. PaddleCatalog reads custom data
// from the Paddle price and its product, with price keys taking precedence.
// FileSource serves the same metadata from a YAML file, which is handy for local
// development and tests. CachedSource wraps either one with a bounded TTL cache.
//
// # Resolving policies
//
// Resolver.Resolve never fails closed on missing data:
//
//   - no subscription, or one that is past due, paused, cancelled or expired: free policy
//   - plan unknown to the metadata source: free policy, logged as a warning
//   - store or provider failures: returned to the caller
//
// # Quick Start
//
//	store := subscription.NewPostgresStore(pool)
//	source := subscription.NewCachedSource(subscription.NewPaddleCatalog(client))
//	resolver := subscription.NewResolver(store, source, subscription.WithResolverLogger(log))
//
//	res, err := resolver.Resolve(ctx, userID)
//	if err != nil {
//		return err
//	}
//	if res.Features.PDFExport {
//		// render the PDF
//	}
//
// # Reconciliation
//
// Reconciler.Reconcile compares the local mirror with the provider record and
// copies every differing field (plan, status, customer, period end, cancellation)
// into the store. The returned Report lists what changed; with WithPolicyDiff it
// also describes features gained or lost by a plan change.
//
// # Error Handling
//
// Lookup misses are reported with ErrSubscriptionNotFound and ErrPlanNotFound.
// Infrastructure failures are wrapped with errors.Join so callers can match both
// the package sentinel and the underlying driver error.
package subscription
