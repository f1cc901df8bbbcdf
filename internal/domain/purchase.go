package domain

import (
	"time"

	"github.com/google/uuid"
)

// Purchase records one plan payment by a user. SubscriptionID is the
// subscription the payment started or extended.
type Purchase struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	PlanID           uuid.UUID  `json:"plan_id"`
	PlanTier         string     `json:"plan_tier"`
	AmountCents      int64      `json:"amount_cents"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	PaymentReference string     `json:"payment_reference"`
	SubscriptionID   *uuid.UUID `json:"subscription_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PurchaseStatus constants
const (
	PurchaseCompleted = "COMPLETED"
	PurchaseFailed    = "FAILED"
	PurchaseRefunded  = "REFUNDED"
)

// PurchaseResult is what a successful purchase hands back to the caller
type PurchaseResult struct {
	Purchase     *Purchase          `json:"purchase"`
	Subscription *Subscription      `json:"subscription"`
	Notification *AdminNotification `json:"-"`
}
