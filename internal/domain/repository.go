package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TxManager runs fn inside one database transaction. Repositories called with
// the ctx passed to fn take part in that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by lower-cased email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdatePasswordHash replaces the stored password hash
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error

	// UpdateRole changes a user's role
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error

	// Search returns users whose email or name contains query, plus the total match count
	Search(ctx context.Context, query string, limit, offset int) ([]*User, int, error)

	// CountByRole returns the number of users per role
	CountByRole(ctx context.Context) (map[string]int, error)
}

// PlanRepository defines the interface for plan catalog operations
type PlanRepository interface {
	List(ctx context.Context, includeInactive bool) ([]*Plan, error)
	GetByTier(ctx context.Context, tier string) (*Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// Upsert inserts the plan or updates the existing plan with the same tier
	Upsert(ctx context.Context, plan *Plan) error

	SetActive(ctx context.Context, tier string, active bool) error
}

// PurchaseRepository defines the interface for purchase operations
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Purchase, error)
	List(ctx context.Context, limit, offset int) ([]*Purchase, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// SetSubscription records which subscription the purchase paid for
	SetSubscription(ctx context.Context, id, subscriptionID uuid.UUID) error

	// RevenueByCurrency sums completed purchases per currency
	RevenueByCurrency(ctx context.Context) (map[string]int64, error)
}

// SubscriptionRepository defines the interface for subscription operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error

	// GetActiveByUser returns the user's ACTIVE subscription covering now
	GetActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*Subscription, error)

	// GetByID loads a subscription, locking it when called inside a transaction
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// Update persists status, plan and period changes
	Update(ctx context.Context, sub *Subscription) error

	// ExpireDue marks ACTIVE subscriptions ending at or before now as EXPIRED and returns them
	ExpireDue(ctx context.Context, now time.Time) ([]*Subscription, error)

	// ExpireDueForUser does the same for one user's lapsed rows and returns how many changed
	ExpireDueForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)

	// CountActiveByTier returns active subscription counts per tier
	CountActiveByTier(ctx context.Context, now time.Time) (map[string]int, error)
}

// SignalRepository defines the interface for signal data operations
type SignalRepository interface {
	Create(ctx context.Context, signal *Signal) error
	Update(ctx context.Context, signal *Signal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Signal, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns signals without any visibility predicate (staff view)
	List(ctx context.Context, filter SignalFilter) ([]*Signal, error)

	// ListVisible returns signals the user may read: the user must hold an active
	// subscription and the signal's min tier must be in tiers
	ListVisible(ctx context.Context, userID uuid.UUID, tiers []string, filter SignalFilter) ([]*Signal, error)

	// GetVisible is the single-row form of ListVisible
	GetVisible(ctx context.Context, userID uuid.UUID, tiers []string, id uuid.UUID) (*Signal, error)

	CountByStatus(ctx context.Context) (map[string]int, error)
}

// NotificationRepository defines the interface for admin notification operations
type NotificationRepository interface {
	Create(ctx context.Context, n *AdminNotification) error
	GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*AdminNotification, error)
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*AdminNotification, int, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}
