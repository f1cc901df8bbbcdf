package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdminNotification is an entry in the admin console feed
type AdminNotification struct {
	ID         uuid.UUID  `json:"id"`
	Kind       string     `json:"kind"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	PurchaseID *uuid.UUID `json:"purchase_id,omitempty"`
	IsRead     bool       `json:"is_read"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NotificationKind constants
const (
	NotificationPurchase            = "PURCHASE"
	NotificationSignup              = "SIGNUP"
	NotificationSubscriptionExpired = "SUBSCRIPTION_EXPIRED"
)

// Event is what the realtime hub delivers to websocket clients
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types
const (
	EventAdminNotification = "admin.notification"
	EventSignalPublished   = "signal.published"
	EventSignalUpdated     = "signal.updated"
	EventSignalClosed      = "signal.closed"
	EventSignalCancelled   = "signal.cancelled"
)

// Realtime topics. Signal events go to one topic per tier so a stream only
// carries signals its subscriber's tier can read.
const (
	TopicAdmin   = "admin"
	TopicSignals = "signals"
)

// SignalTopic is the realtime topic for subscribers of tier
func SignalTopic(tier string) string {
	return TopicSignals + ":" + tier
}

// SignalTopics lists the per-tier signal topics
func SignalTopics() []string {
	tiers := AllTiers()
	topics := make([]string, 0, len(tiers))
	for _, t := range tiers {
		topics = append(topics, SignalTopic(t))
	}
	return topics
}
