package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subscription grants access to signals for a period
type Subscription struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	PlanID     uuid.UUID  `json:"plan_id"`
	PlanTier   string     `json:"plan_tier"`
	PurchaseID *uuid.UUID `json:"purchase_id,omitempty"`
	Status     string     `json:"status"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     time.Time  `json:"ends_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SubscriptionStatus constants
const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionExpired   = "EXPIRED"
	SubscriptionCancelled = "CANCELLED"
)

// IsActiveAt reports whether the subscription grants access at t
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.Status == SubscriptionActive && !t.Before(s.StartsAt) && t.Before(s.EndsAt)
}

// Covers reports whether the subscription's tier reaches minTier
func (s *Subscription) Covers(minTier string) bool {
	if minTier == "" {
		return true
	}
	return TierRank(s.PlanTier) >= TierRank(minTier)
}
