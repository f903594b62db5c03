package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for subscription persistence.
// Each user has at most one subscription, so UserID serves as the primary key.
type Store interface {
	// Get retrieves a subscription by user ID.
	// Returns ErrSubscriptionNotFound if no subscription exists.
	Get(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// Save creates or updates a subscription keyed by UserID.
	Save(ctx context.Context, sub *Subscription) error
}

// MemoryStore is an in-process Store, used in tests and single-node setups.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[uuid.UUID]Subscription),
		now:  time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (s *MemoryStore) Save(_ context.Context, sub *Subscription) error {
	if err := validateForSave(sub); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored := *sub
	if existing, ok := s.subs[sub.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.subs[sub.UserID] = stored

	sub.CreatedAt = stored.CreatedAt
	sub.UpdatedAt = stored.UpdatedAt
	return nil
}

func validateForSave(sub *Subscription) error {
	if sub == nil || sub.UserID == uuid.Nil {
		return ErrMissingUserID
	}
	if sub.PlanID == "" {
		return ErrMissingPlanID
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
