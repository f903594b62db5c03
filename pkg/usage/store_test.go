package usage_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/quotekit/pkg/usage"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newSQLiteStore(t *testing.T, opts ...usage.StoreOption) usage.Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s := usage.NewSQLiteStore(db, opts...)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestStores(t *testing.T) {
	t.Parallel()

	factories := map[string]func(t *testing.T, opts ...usage.StoreOption) usage.Store{
		"memory": func(_ *testing.T, opts ...usage.StoreOption) usage.Store { return usage.NewMemoryStore(opts...) },
		"sqlite": newSQLiteStore,
	}

	for name, newStore := range factories {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testStoreContract(t, newStore)
		})
	}
}

func testStoreContract(t *testing.T, newStore func(t *testing.T, opts ...usage.StoreOption) usage.Store) {
	ctx := context.Background()

	t.Run("current usage is zero filled", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)}
		s := newStore(t, usage.WithClock(clk.Now))
		user := uuid.New()

		u, err := s.GetCurrentUsage(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, user, u.UserID)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), u.Period)
		assert.Zero(t, u.QuotesCount)
		assert.Zero(t, u.PDFExportsCount)
	})

	t.Run("increments accumulate per type", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		user := uuid.New()

		require.NoError(t, s.IncrementUsage(ctx, user, usage.TypeQuotes, 1))
		require.NoError(t, s.IncrementUsage(ctx, user, usage.TypeQuotes, 2))
		require.NoError(t, s.IncrementUsage(ctx, user, usage.TypePDFExports, 1))
		require.NoError(t, s.IncrementUsage(ctx, user, usage.TypeBulkOperations, 1))

		u, err := s.GetCurrentUsage(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(3), u.QuotesCount)
		assert.Equal(t, int64(1), u.PDFExportsCount)
		assert.Equal(t, int64(0), u.APICallsCount)
		assert.Equal(t, int64(1), u.Count(usage.TypeBulkOperations))

		other, err := s.GetCurrentUsage(ctx, uuid.New())
		require.NoError(t, err)
		assert.Zero(t, other.QuotesCount)
	})

	t.Run("rejects invalid increments", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		assert.ErrorIs(t, s.IncrementUsage(ctx, uuid.Nil, usage.TypeQuotes, 1), usage.ErrMissingUserID)
		assert.ErrorIs(t, s.IncrementUsage(ctx, uuid.New(), "widgets", 1), usage.ErrInvalidUsageType)
		assert.ErrorIs(t, s.IncrementUsage(ctx, uuid.New(), usage.TypeQuotes, 0), usage.ErrInvalidAmount)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		user := uuid.New()

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.IncrementUsage(ctx, user, usage.TypeAPICalls, 1))
			}()
		}
		wg.Wait()

		u, err := s.GetCurrentUsage(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(20), u.APICallsCount)
	})

	t.Run("new month starts from zero and history is newest first", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)}
		s := newStore(t, usage.WithClock(clk.Now))
		user := uuid.New()

		require.NoError(t, s.IncrementUsage(ctx, user, usage.TypeQuotes, 4))

		clk.Set(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
		u, err := s.GetCurrentUsage(ctx, user)
		require.NoError(t, err)
		assert.Zero(t, u.QuotesCount)

		require.NoError(t, s.IncrementUsage(ctx, user, usage.TypeQuotes, 1))

		history, err := s.GetUsageHistory(ctx, user, 4)
		require.NoError(t, err)
		require.Len(t, history, 4)

		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), history[0].Period)
		assert.Equal(t, int64(1), history[0].QuotesCount)
		assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), history[1].Period)
		assert.Zero(t, history[1].QuotesCount)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), history[2].Period)
		assert.Equal(t, int64(4), history[2].QuotesCount)
		assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), history[3].Period)
		for _, h := range history {
			assert.Equal(t, user, h.UserID)
		}
	})

	t.Run("history length is clamped", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)

		history, err := s.GetUsageHistory(ctx, uuid.New(), 100)
		require.NoError(t, err)
		assert.Len(t, history, usage.MaxHistoryMonths)

		history, err = s.GetUsageHistory(ctx, uuid.New(), 0)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}
