package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps subscriptions in the subscriptions table (see migrations).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var (
		sub        Subscription
		status     string
		providerID *string
		customerID *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, plan_id, status, provider_sub_id, provider_customer_id,
			current_period_end, cancelled_at, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`, userID).Scan(
		&sub.UserID, &sub.PlanID, &status, &providerID, &customerID,
		&sub.CurrentPeriodEnd, &sub.CancelledAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrFailedToLoadSubscription, err)
	}

	sub.Status = Status(status)
	if providerID != nil {
		sub.ProviderSubID = *providerID
	}
	if customerID != nil {
		sub.ProviderCustomerID = *customerID
	}
	return &sub, nil
}

func (s *PostgresStore) Save(ctx context.Context, sub *Subscription) error {
	if err := validateForSave(sub); err != nil {
		return err
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (
			user_id, plan_id, status, provider_sub_id, provider_customer_id,
			current_period_end, cancelled_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			provider_sub_id = EXCLUDED.provider_sub_id,
			provider_customer_id = EXCLUDED.provider_customer_id,
			current_period_end = EXCLUDED.current_period_end,
			cancelled_at = EXCLUDED.cancelled_at,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`,
		sub.UserID, sub.PlanID, string(sub.Status), sub.ProviderSubID, sub.ProviderCustomerID,
		sub.CurrentPeriodEnd, sub.CancelledAt,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return errors.Join(ErrFailedToSaveSubscription, err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
