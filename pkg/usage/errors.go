package usage

import "errors"

var (
	ErrInvalidUsageType = errors.New("invalid usage type")
	ErrInvalidAmount    = errors.New("usage increment amount must be positive")
	ErrMissingUserID    = errors.New("user ID is required")

	ErrFailedToReadUsage      = errors.New("failed to read feature usage")
	ErrFailedToIncrementUsage = errors.New("failed to increment feature usage")
)
