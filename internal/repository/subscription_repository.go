package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signaldesk/internal/domain"
)

// SubscriptionRepositoryImpl implements the SubscriptionRepository interface
type SubscriptionRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *pgxpool.Pool) domain.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, plan_tier, purchase_id, status, starts_at, ends_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	s := &domain.Subscription{}
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PlanID,
		&s.PlanTier,
		&s.PurchaseID,
		&s.Status,
		&s.StartsAt,
		&s.EndsAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a subscription. A second ACTIVE row for the same user violates
// uq_subscriptions_one_active and maps to ErrAlreadyExists.
func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, s *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, plan_tier, purchase_id, status, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query,
		s.ID,
		s.UserID,
		s.PlanID,
		s.PlanTier,
		s.PurchaseID,
		s.Status,
		s.StartsAt,
		s.EndsAt,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return mapError("create subscription", err)
}

// GetActiveByUser returns the user's ACTIVE subscription covering now.
// Inside a transaction the row is locked so concurrent purchases serialize.
func (r *SubscriptionRepositoryImpl) GetActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'ACTIVE' AND starts_at <= $2 AND ends_at > $2
	`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}

	s, err := scanSubscription(conn(ctx, r.db).QueryRow(ctx, query, userID, now))
	if err != nil {
		return nil, mapError("get active subscription", err)
	}
	return s, nil
}

// GetByID retrieves a subscription by ID
func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}

	s, err := scanSubscription(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get subscription by ID", err)
	}
	return s, nil
}

// Update persists status, plan and period changes
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, s *domain.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan_id = $1, plan_tier = $2, purchase_id = $3, status = $4, starts_at = $5, ends_at = $6
		WHERE id = $7
		RETURNING updated_at
	`

	err := conn(ctx, r.db).QueryRow(ctx, query,
		s.PlanID,
		s.PlanTier,
		s.PurchaseID,
		s.Status,
		s.StartsAt,
		s.EndsAt,
		s.ID,
	).Scan(&s.UpdatedAt)
	return mapError("update subscription", err)
}

// ExpireDue marks ACTIVE subscriptions ending at or before now as EXPIRED
func (r *SubscriptionRepositoryImpl) ExpireDue(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = 'EXPIRED'
		WHERE status = 'ACTIVE' AND ends_at <= $1
		RETURNING ` + subscriptionColumns

	rows, err := conn(ctx, r.db).Query(ctx, query, now)
	if err != nil {
		return nil, mapError("expire subscriptions", err)
	}
	defer rows.Close()

	expired := make([]*domain.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		expired = append(expired, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}
	return expired, nil
}

// ExpireDueForUser expires one user's ACTIVE rows that have already ended.
// A lapsed row still holds uq_subscriptions_one_active until it is expired.
func (r *SubscriptionRepositoryImpl) ExpireDueForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = 'EXPIRED'
		WHERE user_id = $1 AND status = 'ACTIVE' AND ends_at <= $2
	`

	tag, err := conn(ctx, r.db).Exec(ctx, query, userID, now)
	if err != nil {
		return 0, mapError("expire user subscriptions", err)
	}
	return tag.RowsAffected(), nil
}

// CountActiveByTier returns active subscription counts per tier
func (r *SubscriptionRepositoryImpl) CountActiveByTier(ctx context.Context, now time.Time) (map[string]int, error) {
	query := `
		SELECT plan_tier, COUNT(*)
		FROM subscriptions
		WHERE status = 'ACTIVE' AND starts_at <= $1 AND ends_at > $1
		GROUP BY plan_tier
	`
	return countGrouped(ctx, conn(ctx, r.db), query, "count active subscriptions", now)
}
