package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrMissingUserID        = errors.New("user ID is required")
	ErrMissingPlanID        = errors.New("plan ID is required")

	ErrFailedToLoadSubscription = errors.New("failed to load subscription")
	ErrFailedToSaveSubscription = errors.New("failed to save subscription")
	ErrFailedToLoadMetadata     = errors.New("failed to load plan metadata")
	ErrFailedToWriteMetadata    = errors.New("failed to write plan metadata")
	ErrFailedToLoadPlanFile     = errors.New("failed to load plan metadata file")
	ErrProviderError            = errors.New("billing provider error")
	ErrNotReconcilable          = errors.New("subscription is not managed by the billing provider")

	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
	ErrReadOnlySource             = errors.New("plan metadata source is read-only")
)
