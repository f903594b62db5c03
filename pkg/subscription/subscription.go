package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the local mirror of a user's billing-provider subscription.
// Each user has at most one subscription; UserID is the primary key.
type Subscription struct {
	UserID             uuid.UUID
	PlanID             string // provider's price ID, key into plan metadata
	Status             Status
	ProviderSubID      string // empty for subscriptions created without the provider
	ProviderCustomerID string
	CurrentPeriodEnd   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time
}

// GrantsAccess reports whether the subscription's plan features apply.
func (s *Subscription) GrantsAccess() bool {
	return s != nil && s.Status.GrantsAccess()
}

func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrialing
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// IsManagedByProvider reports whether the provider holds the authoritative record.
func (s *Subscription) IsManagedByProvider() bool {
	return s.ProviderSubID != ""
}

// PeriodEndedAt reports whether the current billing period is over at now.
// Subscriptions without a known period end never expire by this check.
func (s *Subscription) PeriodEndedAt(now time.Time) bool {
	if s.CurrentPeriodEnd == nil {
		return false
	}
	return now.After(*s.CurrentPeriodEnd)
}
