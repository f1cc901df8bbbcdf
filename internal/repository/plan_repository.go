package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signaldesk/internal/domain"
)

// PlanRepositoryImpl implements the PlanRepository interface
type PlanRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db *pgxpool.Pool) domain.PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

const planColumns = `id, tier, name, description, price_cents, currency, period, features, is_active, sort_order, created_at, updated_at`

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	p := &domain.Plan{}
	err := row.Scan(
		&p.ID,
		&p.Tier,
		&p.Name,
		&p.Description,
		&p.PriceCents,
		&p.Currency,
		&p.Period,
		&p.Features,
		&p.IsActive,
		&p.SortOrder,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return p, nil
}

// List returns the catalog ordered for display
func (r *PlanRepositoryImpl) List(ctx context.Context, includeInactive bool) ([]*domain.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE is_active OR $1
		ORDER BY sort_order ASC, price_cents ASC
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, includeInactive)
	if err != nil {
		return nil, mapError("query plans", err)
	}
	defer rows.Close()

	plans := make([]*domain.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}
	return plans, nil
}

// GetByTier retrieves a plan by tier
func (r *PlanRepositoryImpl) GetByTier(ctx context.Context, tier string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE tier = $1`

	p, err := scanPlan(conn(ctx, r.db).QueryRow(ctx, query, tier))
	if err != nil {
		return nil, mapError("get plan by tier", err)
	}
	return p, nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	p, err := scanPlan(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get plan by ID", err)
	}
	return p, nil
}

// Upsert inserts the plan or updates the plan with the same tier.
// The stored id and timestamps are written back into plan.
func (r *PlanRepositoryImpl) Upsert(ctx context.Context, plan *domain.Plan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Features == nil {
		plan.Features = []string{}
	}

	query := `
		INSERT INTO plans (id, tier, name, description, price_cents, currency, period, features, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tier) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price_cents = EXCLUDED.price_cents,
			currency = EXCLUDED.currency,
			period = EXCLUDED.period,
			features = EXCLUDED.features,
			is_active = EXCLUDED.is_active,
			sort_order = EXCLUDED.sort_order
		RETURNING id, created_at, updated_at
	`

	err := conn(ctx, r.db).QueryRow(ctx, query,
		plan.ID,
		plan.Tier,
		plan.Name,
		plan.Description,
		plan.PriceCents,
		plan.Currency,
		plan.Period,
		plan.Features,
		plan.IsActive,
		plan.SortOrder,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	return mapError("upsert plan", err)
}

// SetActive toggles whether a plan can be purchased
func (r *PlanRepositoryImpl) SetActive(ctx context.Context, tier string, active bool) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE plans SET is_active = $1 WHERE tier = $2`, active, tier)
	if err != nil {
		return mapError("set plan active", err)
	}
	return requireAffected("set plan active", tag)
}
