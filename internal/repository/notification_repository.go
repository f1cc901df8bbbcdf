package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signaldesk/internal/domain"
)

// NotificationRepositoryImpl implements the NotificationRepository interface
type NotificationRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) domain.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

const notificationColumns = `id, kind, title, message, user_id, purchase_id, is_read, created_at`

func scanNotification(row pgx.Row) (*domain.AdminNotification, error) {
	n := &domain.AdminNotification{}
	err := row.Scan(
		&n.ID,
		&n.Kind,
		&n.Title,
		&n.Message,
		&n.UserID,
		&n.PurchaseID,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Create inserts a notification
func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *domain.AdminNotification) error {
	query := `
		INSERT INTO admin_notifications (id, kind, title, message, user_id, purchase_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query,
		n.ID,
		n.Kind,
		n.Title,
		n.Message,
		n.UserID,
		n.PurchaseID,
		n.IsRead,
		n.CreatedAt,
	)
	return mapError("create notification", err)
}

// GetByPurchaseID returns the notification the purchase trigger wrote
func (r *NotificationRepositoryImpl) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*domain.AdminNotification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM admin_notifications
		WHERE purchase_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	n, err := scanNotification(conn(ctx, r.db).QueryRow(ctx, query, purchaseID))
	if err != nil {
		return nil, mapError("get notification by purchase", err)
	}
	return n, nil
}

// List returns notifications newest first, plus the total matching count
func (r *NotificationRepositoryImpl) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*domain.AdminNotification, int, error) {
	q := conn(ctx, r.db)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM admin_notifications WHERE NOT is_read OR NOT $1`, unreadOnly).Scan(&total); err != nil {
		return nil, 0, mapError("count notifications", err)
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM admin_notifications
		WHERE NOT is_read OR NOT $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.Query(ctx, query, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, mapError("query notifications", err)
	}
	defer rows.Close()

	items := make([]*domain.AdminNotification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notifications: %w", err)
	}
	return items, total, nil
}

// UnreadCount returns the number of unread notifications
func (r *NotificationRepositoryImpl) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM admin_notifications WHERE NOT is_read`).Scan(&n); err != nil {
		return 0, mapError("count unread notifications", err)
	}
	return n, nil
}

// MarkRead marks one notification as read
func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE admin_notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return mapError("mark notification read", err)
	}
	return requireAffected("mark notification read", tag)
}

// MarkAllRead marks every unread notification as read
func (r *NotificationRepositoryImpl) MarkAllRead(ctx context.Context) (int64, error) {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE admin_notifications SET is_read = TRUE WHERE NOT is_read`)
	if err != nil {
		return 0, mapError("mark all notifications read", err)
	}
	return tag.RowsAffected(), nil
}
