package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryKey struct {
	userID uuid.UUID
	period time.Time
}

// MemoryStore keeps counters in process memory.
type MemoryStore struct {
	storeConfig
	mu   sync.RWMutex
	data map[memoryKey]FeatureUsage
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	return &MemoryStore{
		storeConfig: newStoreConfig(opts),
		data:        make(map[memoryKey]FeatureUsage),
	}
}

func (s *MemoryStore) GetCurrentUsage(ctx context.Context, userID uuid.UUID) (FeatureUsage, error) {
	period := s.currentPeriod()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.data[memoryKey{userID, period}]; ok {
		return u, nil
	}
	return emptyUsage(userID, period), nil
}

func (s *MemoryStore) IncrementUsage(ctx context.Context, userID uuid.UUID, t Type, amount int64) error {
	if err := validateIncrement(userID, t, amount); err != nil {
		return err
	}
	key := memoryKey{userID, s.currentPeriod()}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.data[key]
	if !ok {
		u = emptyUsage(userID, key.period)
	}
	u.add(t, amount)
	s.data[key] = u
	return nil
}

func (s *MemoryStore) GetUsageHistory(ctx context.Context, userID uuid.UUID, monthsBack int) ([]FeatureUsage, error) {
	periods := Periods(s.now(), monthsBack)

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[time.Time]FeatureUsage, len(periods))
	for _, p := range periods {
		if u, ok := s.data[memoryKey{userID, p}]; ok {
			found[p] = u
		}
	}
	return fillHistory(userID, periods, found), nil
}

var _ Store = (*MemoryStore)(nil)
