package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signaldesk/internal/domain"
)

// PurchaseRepositoryImpl implements the PurchaseRepository interface
type PurchaseRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPurchaseRepository creates a new PurchaseRepository
func NewPurchaseRepository(db *pgxpool.Pool) domain.PurchaseRepository {
	return &PurchaseRepositoryImpl{db: db}
}

const purchaseColumns = `id, user_id, plan_id, plan_tier, amount_cents, currency, status, payment_reference, subscription_id, created_at`

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	p := &domain.Purchase{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.PlanID,
		&p.PlanTier,
		&p.AmountCents,
		&p.Currency,
		&p.Status,
		&p.PaymentReference,
		&p.SubscriptionID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func collectPurchases(rows pgx.Rows) ([]*domain.Purchase, error) {
	defer rows.Close()

	purchases := make([]*domain.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}
	return purchases, nil
}

// Create inserts a purchase. The purchases_notify_admin trigger writes the
// matching admin notification in the same transaction.
func (r *PurchaseRepositoryImpl) Create(ctx context.Context, p *domain.Purchase) error {
	query := `
		INSERT INTO purchases (id, user_id, plan_id, plan_tier, amount_cents, currency, status, payment_reference, subscription_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query,
		p.ID,
		p.UserID,
		p.PlanID,
		p.PlanTier,
		p.AmountCents,
		p.Currency,
		p.Status,
		p.PaymentReference,
		p.SubscriptionID,
		p.CreatedAt,
	)
	return mapError("create purchase", err)
}

// GetByID retrieves a purchase by ID, locking it inside a transaction
func (r *PurchaseRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}

	p, err := scanPurchase(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get purchase by ID", err)
	}
	return p, nil
}

// ListByUser returns a user's purchases, newest first
func (r *PurchaseRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, mapError("query user purchases", err)
	}
	return collectPurchases(rows)
}

// List returns all purchases, newest first, plus the total count
func (r *PurchaseRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error) {
	q := conn(ctx, r.db)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&total); err != nil {
		return nil, 0, mapError("count purchases", err)
	}

	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, mapError("query purchases", err)
	}
	purchases, err := collectPurchases(rows)
	if err != nil {
		return nil, 0, err
	}
	return purchases, total, nil
}

// UpdateStatus updates the status of a purchase
func (r *PurchaseRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE purchases SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return mapError("update purchase status", err)
	}
	return requireAffected("update purchase status", tag)
}

// SetSubscription links a purchase to the subscription it paid for
func (r *PurchaseRepositoryImpl) SetSubscription(ctx context.Context, id, subscriptionID uuid.UUID) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE purchases SET subscription_id = $1 WHERE id = $2`, subscriptionID, id)
	if err != nil {
		return mapError("link purchase subscription", err)
	}
	return requireAffected("link purchase subscription", tag)
}

// RevenueByCurrency sums completed purchases per currency
func (r *PurchaseRepositoryImpl) RevenueByCurrency(ctx context.Context) (map[string]int64, error) {
	query := `
		SELECT currency, COALESCE(SUM(amount_cents), 0)::bigint
		FROM purchases
		WHERE status = 'COMPLETED'
		GROUP BY currency
	`

	rows, err := conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, mapError("sum revenue", err)
	}
	defer rows.Close()

	revenue := make(map[string]int64)
	for rows.Next() {
		var currency string
		var cents int64
		if err := rows.Scan(&currency, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan revenue: %w", err)
		}
		revenue[currency] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revenue: %w", err)
	}
	return revenue, nil
}
