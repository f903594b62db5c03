package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists monthly usage counters.
type Store interface {
	// GetCurrentUsage returns the current month's counters, zero-filled if none exist.
	GetCurrentUsage(ctx context.Context, userID uuid.UUID) (FeatureUsage, error)

	// IncrementUsage atomically adds amount to the current month's counter.
	IncrementUsage(ctx context.Context, userID uuid.UUID, t Type, amount int64) error

	// GetUsageHistory returns monthsBack months of counters, newest first,
	// including the current month. Months without activity are zero-filled.
	GetUsageHistory(ctx context.Context, userID uuid.UUID, monthsBack int) ([]FeatureUsage, error)
}

// StoreOption configures a Store implementation.
type StoreOption func(*storeConfig)

type storeConfig struct {
	now func() time.Time
}

func newStoreConfig(opts []StoreOption) storeConfig {
	cfg := storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithClock overrides the time source used to pick the current month.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		if now != nil {
			c.now = now
		}
	}
}

func (c storeConfig) currentPeriod() time.Time {
	return MonthStart(c.now())
}
