package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signaldesk/internal/domain"
)

// SignalRepositoryImpl implements the SignalRepository interface
type SignalRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSignalRepository creates a new SignalRepository
func NewSignalRepository(db *pgxpool.Pool) domain.SignalRepository {
	return &SignalRepositoryImpl{db: db}
}

const signalColumns = `id, symbol, direction, entry_price, stop_loss, take_profit, timeframe, notes,
	status, result, min_tier, created_by, created_at, updated_at, closed_at`

func scanSignal(row pgx.Row) (*domain.Signal, error) {
	s := &domain.Signal{}
	err := row.Scan(
		&s.ID,
		&s.Symbol,
		&s.Direction,
		&s.EntryPrice,
		&s.StopLoss,
		&s.TakeProfit,
		&s.Timeframe,
		&s.Notes,
		&s.Status,
		&s.Result,
		&s.MinTier,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func collectSignals(rows pgx.Rows) ([]*domain.Signal, error) {
	defer rows.Close()

	signals := make([]*domain.Signal, 0)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return signals, nil
}

// Create saves a new signal to the database
func (r *SignalRepositoryImpl) Create(ctx context.Context, s *domain.Signal) error {
	query := `
		INSERT INTO signals (
			id, symbol, direction, entry_price, stop_loss, take_profit, timeframe, notes,
			status, result, min_tier, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query,
		s.ID,
		s.Symbol,
		s.Direction,
		s.EntryPrice,
		s.StopLoss,
		s.TakeProfit,
		s.Timeframe,
		s.Notes,
		s.Status,
		s.Result,
		s.MinTier,
		s.CreatedBy,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return mapError("save signal", err)
}

// Update persists every mutable field of a signal
func (r *SignalRepositoryImpl) Update(ctx context.Context, s *domain.Signal) error {
	query := `
		UPDATE signals
		SET symbol = $1, direction = $2, entry_price = $3, stop_loss = $4, take_profit = $5,
		    timeframe = $6, notes = $7, status = $8, result = $9, min_tier = $10, closed_at = $11
		WHERE id = $12
		RETURNING updated_at
	`

	err := conn(ctx, r.db).QueryRow(ctx, query,
		s.Symbol,
		s.Direction,
		s.EntryPrice,
		s.StopLoss,
		s.TakeProfit,
		s.Timeframe,
		s.Notes,
		s.Status,
		s.Result,
		s.MinTier,
		s.ClosedAt,
		s.ID,
	).Scan(&s.UpdatedAt)
	return mapError("update signal", err)
}

// GetByID retrieves a signal by its ID
func (r *SignalRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE id = $1`

	s, err := scanSignal(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get signal by ID", err)
	}
	return s, nil
}

// Delete removes a signal
func (r *SignalRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM signals WHERE id = $1`, id)
	if err != nil {
		return mapError("delete signal", err)
	}
	return requireAffected("delete signal", tag)
}

// List retrieves signals without a visibility predicate, newest first
func (r *SignalRepositoryImpl) List(ctx context.Context, filter domain.SignalFilter) ([]*domain.Signal, error) {
	where, args := filterClause(filter, nil)
	query := fmt.Sprintf(`
		SELECT %s
		FROM signals
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, signalColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("query signals", err)
	}
	return collectSignals(rows)
}

// ListVisible applies the same predicate as the signals_subscriber_read policy
// plus a tier check
func (r *SignalRepositoryImpl) ListVisible(ctx context.Context, userID uuid.UUID, tiers []string, filter domain.SignalFilter) ([]*domain.Signal, error) {
	where, args := filterClause(filter, []string{
		"has_active_subscription($1)",
		"min_tier = ANY($2)",
	}, userID, tiers)
	query := fmt.Sprintf(`
		SELECT %s
		FROM signals
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, signalColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("query visible signals", err)
	}
	return collectSignals(rows)
}

// GetVisible is the single-row form of ListVisible
func (r *SignalRepositoryImpl) GetVisible(ctx context.Context, userID uuid.UUID, tiers []string, id uuid.UUID) (*domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE id = $1 AND has_active_subscription($2) AND min_tier = ANY($3)
	`

	s, err := scanSignal(conn(ctx, r.db).QueryRow(ctx, query, id, userID, tiers))
	if err != nil {
		return nil, mapError("get visible signal", err)
	}
	return s, nil
}

// CountByStatus returns signal counts per status
func (r *SignalRepositoryImpl) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countGrouped(ctx, conn(ctx, r.db), `SELECT status, COUNT(*) FROM signals GROUP BY status`, "count signals by status")
}

// filterClause builds a WHERE clause from fixed conditions (already numbered
// against base args) followed by the optional symbol and status filters
func filterClause(filter domain.SignalFilter, conditions []string, base ...any) (string, []any) {
	args := append([]any{}, base...)

	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		conditions = append(conditions, fmt.Sprintf("symbol = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
