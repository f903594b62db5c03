package subscription

import (
	"context"
	"time"
)

// ProviderState is the billing provider's authoritative view of a subscription.
type ProviderState struct {
	SubscriptionID   string
	CustomerID       string
	PlanID           string
	Status           Status
	CurrentPeriodEnd *time.Time
	CancelledAt      *time.Time
}

// ProviderSubscriptions reads subscriptions from the billing provider.
type ProviderSubscriptions interface {
	FetchSubscription(ctx context.Context, providerSubID string) (*ProviderState, error)
}
