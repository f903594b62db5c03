package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
)

// PolicySource explains where a resolved policy came from.
type PolicySource string

const (
	SourceNoSubscription PolicySource = "no_subscription"
	SourceInactive       PolicySource = "inactive_subscription"
	SourcePlan           PolicySource = "plan"
	SourceUnknownPlan    PolicySource = "unknown_plan"
)

// Resolution is the effective feature policy for a user.
type Resolution struct {
	UserID       uuid.UUID
	Subscription *Subscription // nil when the user has no subscription
	Features     entitlement.PlanFeatures
	Tier         entitlement.Tier
	Source       PolicySource
}

// Resolver turns a user's subscription into an effective feature policy.
type Resolver struct {
	subs     Store
	metadata MetadataSource
	log      *slog.Logger
}

type ResolverOption func(*Resolver)

func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

func NewResolver(subs Store, metadata MetadataSource, opts ...ResolverOption) *Resolver {
	if subs == nil || metadata == nil {
		panic("subscription: store and metadata source are required")
	}
	r := &Resolver{
		subs:     subs,
		metadata: metadata,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the user's effective policy.
// Users without a subscription, or whose subscription does not grant access,
// get the free policy. A plan unknown to the metadata source also yields the
// free policy and is logged. Any other failure is returned to the caller.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (Resolution, error) {
	if userID == uuid.Nil {
		return Resolution{}, ErrMissingUserID
	}

	sub, err := r.subs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return freeResolution(userID, nil, SourceNoSubscription), nil
		}
		return Resolution{}, err
	}

	if !sub.GrantsAccess() {
		return freeResolution(userID, sub, SourceInactive), nil
	}

	md, err := r.metadata.PlanMetadata(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			r.log.WarnContext(ctx, "plan metadata not found, using free policy",
				slog.String("user_id", userID.String()),
				slog.String("plan_id", sub.PlanID))
			return freeResolution(userID, sub, SourceUnknownPlan), nil
		}
		return Resolution{}, errors.Join(ErrFailedToLoadMetadata, err)
	}

	features := entitlement.ParseMetadata(md)
	return Resolution{
		UserID:       userID,
		Subscription: sub,
		Features:     features,
		Tier:         entitlement.PlanTierName(features),
		Source:       SourcePlan,
	}, nil
}

func freeResolution(userID uuid.UUID, sub *Subscription, source PolicySource) Resolution {
	features := entitlement.FreePlan()
	return Resolution{
		UserID:       userID,
		Subscription: sub,
		Features:     features,
		Tier:         entitlement.PlanTierName(features),
		Source:       source,
	}
}
