package usage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "quotekit:usage"

// RedisStore keeps one hash per user and month: <prefix>:<user>:<YYYY-MM>.
type RedisStore struct {
	storeConfig
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisRetention expires month hashes after d. Zero keeps them forever.
func WithRedisRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithRedisStoreOptions applies generic store options.
func WithRedisStoreOptions(opts ...StoreOption) RedisOption {
	return func(s *RedisStore) {
		s.storeConfig = newStoreConfig(opts)
	}
}

// NewRedisStore returns a store backed by client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	if client == nil {
		panic("usage: redis client is required")
	}
	s := &RedisStore{
		storeConfig: newStoreConfig(nil),
		client:      client,
		prefix:      defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(userID uuid.UUID, period time.Time) string {
	return s.prefix + ":" + userID.String() + ":" + period.Format("2006-01")
}

func (s *RedisStore) GetCurrentUsage(ctx context.Context, userID uuid.UUID) (FeatureUsage, error) {
	period := s.currentPeriod()
	fields, err := s.client.HGetAll(ctx, s.key(userID, period)).Result()
	if err != nil {
		return FeatureUsage{}, errors.Join(ErrFailedToReadUsage, err)
	}
	return usageFromHash(userID, period, fields), nil
}

func (s *RedisStore) IncrementUsage(ctx context.Context, userID uuid.UUID, t Type, amount int64) error {
	if err := validateIncrement(userID, t, amount); err != nil {
		return err
	}

	key := s.key(userID, s.currentPeriod())
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, t.column(), amount)
		if s.retention > 0 {
			pipe.Expire(ctx, key, s.retention)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrFailedToIncrementUsage, err)
	}
	return nil
}

func (s *RedisStore) GetUsageHistory(ctx context.Context, userID uuid.UUID, monthsBack int) ([]FeatureUsage, error) {
	periods := Periods(s.now(), monthsBack)
	if len(periods) == 0 {
		return []FeatureUsage{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(periods))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, p := range periods {
			cmds[i] = pipe.HGetAll(ctx, s.key(userID, p))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToReadUsage, err)
	}

	out := make([]FeatureUsage, len(periods))
	for i, p := range periods {
		out[i] = usageFromHash(userID, p, cmds[i].Val())
	}
	return out, nil
}

func usageFromHash(userID uuid.UUID, period time.Time, fields map[string]string) FeatureUsage {
	u := emptyUsage(userID, period)
	for _, t := range []Type{TypeQuotes, TypePDFExports, TypeAPICalls, TypeBulkOperations} {
		raw, ok := fields[t.column()]
		if !ok {
			continue
		}
		// HINCRBY only ever writes integers; anything else is treated as zero
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			u.add(t, n)
		}
	}
	return u
}

var _ Store = (*RedisStore)(nil)
