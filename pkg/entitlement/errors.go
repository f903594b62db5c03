package entitlement

import "errors"

var (
	ErrInvalidMaxQuotes = errors.New("max_quotes must be a positive integer or -1 for unlimited")
	ErrAnalyticsAlias   = errors.New("analytics must mirror analytics_access")
	ErrUnknownFeature   = errors.New("unknown feature key")
)
