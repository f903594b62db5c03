package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps counters in the feature_usage table (see migrations).
type PostgresStore struct {
	storeConfig
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) *PostgresStore {
	if pool == nil {
		panic("usage: pgx pool is required")
	}
	return &PostgresStore{storeConfig: newStoreConfig(opts), pool: pool}
}

func (s *PostgresStore) GetCurrentUsage(ctx context.Context, userID uuid.UUID) (FeatureUsage, error) {
	period := s.currentPeriod()
	u := emptyUsage(userID, period)

	err := s.pool.QueryRow(ctx, `
		SELECT quotes_count, pdf_exports_count, api_calls_count, bulk_operations_count
		FROM feature_usage
		WHERE user_id = $1 AND period = $2
	`, userID, period).Scan(&u.QuotesCount, &u.PDFExportsCount, &u.APICallsCount, &u.BulkOperationsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, nil
		}
		return FeatureUsage{}, errors.Join(ErrFailedToReadUsage, err)
	}
	return u, nil
}

func (s *PostgresStore) IncrementUsage(ctx context.Context, userID uuid.UUID, t Type, amount int64) error {
	if err := validateIncrement(userID, t, amount); err != nil {
		return err
	}

	// column comes from the closed Type set, never from input
	col := t.column()
	query := fmt.Sprintf(`
		INSERT INTO feature_usage (user_id, period, %[1]s, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, period) DO UPDATE SET
			%[1]s = feature_usage.%[1]s + EXCLUDED.%[1]s,
			updated_at = NOW()
	`, col)

	if _, err := s.pool.Exec(ctx, query, userID, s.currentPeriod(), amount); err != nil {
		return errors.Join(ErrFailedToIncrementUsage, err)
	}
	return nil
}

func (s *PostgresStore) GetUsageHistory(ctx context.Context, userID uuid.UUID, monthsBack int) ([]FeatureUsage, error) {
	periods := Periods(s.now(), monthsBack)
	if len(periods) == 0 {
		return []FeatureUsage{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT period, quotes_count, pdf_exports_count, api_calls_count, bulk_operations_count
		FROM feature_usage
		WHERE user_id = $1 AND period BETWEEN $2 AND $3
		ORDER BY period DESC
	`, userID, periods[len(periods)-1], periods[0])
	if err != nil {
		return nil, errors.Join(ErrFailedToReadUsage, err)
	}
	defer rows.Close()

	found := make(map[time.Time]FeatureUsage, len(periods))
	for rows.Next() {
		var u FeatureUsage
		if err := rows.Scan(&u.Period, &u.QuotesCount, &u.PDFExportsCount, &u.APICallsCount, &u.BulkOperationsCount); err != nil {
			return nil, errors.Join(ErrFailedToReadUsage, err)
		}
		found[MonthStart(u.Period)] = u
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrFailedToReadUsage, err)
	}

	return fillHistory(userID, periods, found), nil
}

var _ Store = (*PostgresStore)(nil)
