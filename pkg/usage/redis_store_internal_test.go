package usage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestUsageFromHash(t *testing.T) {
	t.Parallel()

	user := uuid.New()
	period := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	u := usageFromHash(user, period, map[string]string{
		"quotes_count":          "7",
		"pdf_exports_count":     "2",
		"bulk_operations_count": "garbage",
		"unrelated":             "9",
	})

	assert.Equal(t, user, u.UserID)
	assert.Equal(t, period, u.Period)
	assert.Equal(t, int64(7), u.QuotesCount)
	assert.Equal(t, int64(2), u.PDFExportsCount)
	assert.Zero(t, u.APICallsCount)
	assert.Zero(t, u.BulkOperationsCount)

	assert.Equal(t, emptyUsage(user, period), usageFromHash(user, period, nil))
}

func TestNewRedisStore_RequiresClient(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewRedisStore(nil) })
}

func TestRedisStore_Key(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client, WithRedisPrefix("qk"))
	user := uuid.MustParse("6f1c2a7e-1d2b-4c3d-8e9f-0a1b2c3d4e5f")
	period := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "qk:6f1c2a7e-1d2b-4c3d-8e9f-0a1b2c3d4e5f:2025-06", s.key(user, period))
}
