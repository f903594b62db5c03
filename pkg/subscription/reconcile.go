package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
)

// FieldChange is a single difference settled during reconciliation.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Report describes what a reconciliation found and changed.
type Report struct {
	UserID        uuid.UUID         `json:"userId"`
	ProviderSubID string            `json:"providerSubscriptionId"`
	Changes       []FieldChange     `json:"changes"`
	Policy        *PolicyComparison `json:"policy,omitempty"` // set when the plan changed
}

// InSync reports whether the local mirror already matched the provider.
func (r Report) InSync() bool {
	return len(r.Changes) == 0
}

// Reconciler settles the local subscription mirror against the billing provider.
// The provider's record always wins.
type Reconciler struct {
	subs     Store
	provider ProviderSubscriptions
	metadata MetadataSource
	log      *slog.Logger
}

type ReconcilerOption func(*Reconciler)

// WithPolicyDiff makes reports include a policy comparison when the plan changes.
func WithPolicyDiff(metadata MetadataSource) ReconcilerOption {
	return func(r *Reconciler) {
		r.metadata = metadata
	}
}

func WithReconcilerLogger(log *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

func NewReconciler(subs Store, provider ProviderSubscriptions, opts ...ReconcilerOption) *Reconciler {
	if subs == nil || provider == nil {
		panic("subscription: store and provider are required")
	}
	r := &Reconciler{
		subs:     subs,
		provider: provider,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile fetches the provider's subscription for userID and copies any
// differing fields into the local mirror.
func (r *Reconciler) Reconcile(ctx context.Context, userID uuid.UUID) (Report, error) {
	if userID == uuid.Nil {
		return Report{}, ErrMissingUserID
	}

	local, err := r.subs.Get(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	if !local.IsManagedByProvider() {
		return Report{}, ErrNotReconcilable
	}

	remote, err := r.provider.FetchSubscription(ctx, local.ProviderSubID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		UserID:        userID,
		ProviderSubID: local.ProviderSubID,
		Changes:       make([]FieldChange, 0),
	}

	updated := *local
	if remote.PlanID != "" && remote.PlanID != local.PlanID {
		report.Changes = append(report.Changes, FieldChange{Field: "plan_id", From: local.PlanID, To: remote.PlanID})
		updated.PlanID = remote.PlanID
	}
	if remote.Status != local.Status {
		report.Changes = append(report.Changes, FieldChange{Field: "status", From: string(local.Status), To: string(remote.Status)})
		updated.Status = remote.Status
	}
	if remote.CustomerID != "" && remote.CustomerID != local.ProviderCustomerID {
		report.Changes = append(report.Changes, FieldChange{Field: "provider_customer_id", From: local.ProviderCustomerID, To: remote.CustomerID})
		updated.ProviderCustomerID = remote.CustomerID
	}
	if !sameTime(local.CurrentPeriodEnd, remote.CurrentPeriodEnd) {
		report.Changes = append(report.Changes, FieldChange{Field: "current_period_end", From: formatTime(local.CurrentPeriodEnd), To: formatTime(remote.CurrentPeriodEnd)})
		updated.CurrentPeriodEnd = remote.CurrentPeriodEnd
	}
	if !sameTime(local.CancelledAt, remote.CancelledAt) {
		report.Changes = append(report.Changes, FieldChange{Field: "cancelled_at", From: formatTime(local.CancelledAt), To: formatTime(remote.CancelledAt)})
		updated.CancelledAt = remote.CancelledAt
	}

	if report.InSync() {
		return report, nil
	}

	if err := r.subs.Save(ctx, &updated); err != nil {
		return Report{}, err
	}

	r.log.InfoContext(ctx, "subscription reconciled",
		slog.String("user_id", userID.String()),
		slog.String("provider_sub_id", local.ProviderSubID),
		slog.Int("changes", len(report.Changes)))

	if updated.PlanID != local.PlanID && r.metadata != nil {
		report.Policy = r.comparePlans(ctx, local.PlanID, updated.PlanID)
	}
	return report, nil
}

// comparePlans is best effort; the mirror is already saved when it runs.
func (r *Reconciler) comparePlans(ctx context.Context, fromPlan, toPlan string) *PolicyComparison {
	from, err := r.planPolicy(ctx, fromPlan)
	if err != nil {
		r.log.WarnContext(ctx, "failed to load previous plan policy", slog.String("plan_id", fromPlan), slog.Any("error", err))
		return nil
	}
	to, err := r.planPolicy(ctx, toPlan)
	if err != nil {
		r.log.WarnContext(ctx, "failed to load new plan policy", slog.String("plan_id", toPlan), slog.Any("error", err))
		return nil
	}
	cmp := ComparePolicies(from, to)
	return &cmp
}

func (r *Reconciler) planPolicy(ctx context.Context, planID string) (entitlement.PlanFeatures, error) {
	md, err := r.metadata.PlanMetadata(ctx, planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return entitlement.FreePlan(), nil
		}
		return entitlement.PlanFeatures{}, err
	}
	return entitlement.ParseMetadata(md), nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
