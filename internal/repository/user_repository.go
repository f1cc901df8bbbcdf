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

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

const userColumns = `id, email, full_name, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, full_name, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query,
		user.ID,
		strings.ToLower(user.Email),
		user.FullName,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapError("create user", err)
}

// GetByID retrieves a user by ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get user by ID", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(conn(ctx, r.db).QueryRow(ctx, query, strings.ToLower(email)))
	if err != nil {
		return nil, mapError("get user by email", err)
	}
	return user, nil
}

// UpdatePasswordHash replaces the stored password hash
func (r *UserRepositoryImpl) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return mapError("update password hash", err)
	}
	return requireAffected("update password hash", tag)
}

// UpdateRole changes a user's role
func (r *UserRepositoryImpl) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return mapError("update user role", err)
	}
	return requireAffected("update user role", tag)
}

// Search returns users whose email or full name contains query
func (r *UserRepositoryImpl) Search(ctx context.Context, query string, limit, offset int) ([]*domain.User, int, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	q := conn(ctx, r.db)

	var total int
	countQuery := `
		SELECT COUNT(*) FROM users
		WHERE email LIKE $1 OR LOWER(full_name) LIKE $1
	`
	if err := q.QueryRow(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, mapError("count users", err)
	}

	listQuery := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email LIKE $1 OR LOWER(full_name) LIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.Query(ctx, listQuery, pattern, limit, offset)
	if err != nil {
		return nil, 0, mapError("search users", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

// CountByRole returns the number of users per role
func (r *UserRepositoryImpl) CountByRole(ctx context.Context) (map[string]int, error) {
	return countGrouped(ctx, conn(ctx, r.db), `SELECT role, COUNT(*) FROM users GROUP BY role`, "count users by role")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// countGrouped runs a "SELECT key, COUNT(*) ... GROUP BY key" query
func countGrouped(ctx context.Context, q querier, sql string, op string, args ...any) (map[string]int, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", op, err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", op, err)
	}
	return counts, nil
}
