package gate

import "errors"

var (
	ErrUnauthorized        = errors.New("user identity is required")
	ErrPolicyUnavailable   = errors.New("failed to resolve feature policy")
	ErrUsageUnavailable    = errors.New("failed to read feature usage")
	ErrInvalidQuantity     = errors.New("invalid requested quantity")
	ErrAdminNotConfigured  = errors.New("admin operation is not configured")
	ErrInvalidFeatureInput = errors.New("invalid feature configuration")
)
