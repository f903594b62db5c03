package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sqlitePeriodLayout = "2006-01-02"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS feature_usage (
	user_id TEXT NOT NULL,
	period TEXT NOT NULL,
	quotes_count INTEGER NOT NULL DEFAULT 0,
	pdf_exports_count INTEGER NOT NULL DEFAULT 0,
	api_calls_count INTEGER NOT NULL DEFAULT 0,
	bulk_operations_count INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, period)
)`

// SQLiteStore keeps counters in a SQLite database opened with the
// modernc.org/sqlite driver ("sqlite"). Periods are stored as YYYY-MM-DD text.
type SQLiteStore struct {
	storeConfig
	db *sql.DB
}

// NewSQLiteStore returns a store on db. Call EnsureSchema once before use.
func NewSQLiteStore(db *sql.DB, opts ...StoreOption) *SQLiteStore {
	if db == nil {
		panic("usage: sql.DB is required")
	}
	return &SQLiteStore{storeConfig: newStoreConfig(opts), db: db}
}

// EnsureSchema creates the feature_usage table if it does not exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (s *SQLiteStore) GetCurrentUsage(ctx context.Context, userID uuid.UUID) (FeatureUsage, error) {
	period := s.currentPeriod()
	u := emptyUsage(userID, period)

	err := s.db.QueryRowContext(ctx, `
		SELECT quotes_count, pdf_exports_count, api_calls_count, bulk_operations_count
		FROM feature_usage
		WHERE user_id = ? AND period = ?
	`, userID.String(), period.Format(sqlitePeriodLayout)).
		Scan(&u.QuotesCount, &u.PDFExportsCount, &u.APICallsCount, &u.BulkOperationsCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, nil
		}
		return FeatureUsage{}, errors.Join(ErrFailedToReadUsage, err)
	}
	return u, nil
}

func (s *SQLiteStore) IncrementUsage(ctx context.Context, userID uuid.UUID, t Type, amount int64) error {
	if err := validateIncrement(userID, t, amount); err != nil {
		return err
	}

	col := t.column()
	query := fmt.Sprintf(`
		INSERT INTO feature_usage (user_id, period, %[1]s, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, period) DO UPDATE SET
			%[1]s = feature_usage.%[1]s + excluded.%[1]s,
			updated_at = excluded.updated_at
	`, col)

	now := s.now().UTC().Format(time.RFC3339)
	period := s.currentPeriod().Format(sqlitePeriodLayout)
	if _, err := s.db.ExecContext(ctx, query, userID.String(), period, amount, now, now); err != nil {
		return errors.Join(ErrFailedToIncrementUsage, err)
	}
	return nil
}

func (s *SQLiteStore) GetUsageHistory(ctx context.Context, userID uuid.UUID, monthsBack int) ([]FeatureUsage, error) {
	periods := Periods(s.now(), monthsBack)
	if len(periods) == 0 {
		return []FeatureUsage{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT period, quotes_count, pdf_exports_count, api_calls_count, bulk_operations_count
		FROM feature_usage
		WHERE user_id = ? AND period >= ? AND period <= ?
	`, userID.String(),
		periods[len(periods)-1].Format(sqlitePeriodLayout),
		periods[0].Format(sqlitePeriodLayout))
	if err != nil {
		return nil, errors.Join(ErrFailedToReadUsage, err)
	}
	defer rows.Close()

	found := make(map[time.Time]FeatureUsage, len(periods))
	for rows.Next() {
		var (
			raw string
			u   FeatureUsage
		)
		if err := rows.Scan(&raw, &u.QuotesCount, &u.PDFExportsCount, &u.APICallsCount, &u.BulkOperationsCount); err != nil {
			return nil, errors.Join(ErrFailedToReadUsage, err)
		}
		period, err := time.Parse(sqlitePeriodLayout, raw)
		if err != nil {
			return nil, errors.Join(ErrFailedToReadUsage, err)
		}
		found[MonthStart(period)] = u
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrFailedToReadUsage, err)
	}

	return fillHistory(userID, periods, found), nil
}

var _ Store = (*SQLiteStore)(nil)
