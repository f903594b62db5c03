package subscription

import "context"

type resolutionCtxKey struct{}

// WithResolution stores a resolved policy in the context.
func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionCtxKey{}, res)
}

// ResolutionFromContext returns the policy stored by WithResolution.
func ResolutionFromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(resolutionCtxKey{}).(Resolution)
	return res, ok
}
