package domain

import "context"

// RealtimePublisher delivers events to connected websocket clients of a topic
type RealtimePublisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

// AdminChatNotifier mirrors admin notifications to an external chat
type AdminChatNotifier interface {
	NotifyAdmin(ctx context.Context, n *AdminNotification) error
}

// DashboardStats is the admin console overview
type DashboardStats struct {
	UsersByRole         map[string]int   `json:"users_by_role"`
	TotalUsers          int              `json:"total_users"`
	ActiveSubscriptions map[string]int   `json:"active_subscriptions"`
	RevenueCents        map[string]int64 `json:"revenue_cents"`
	SignalsByStatus     map[string]int   `json:"signals_by_status"`
	UnreadNotifications int              `json:"unread_notifications"`
}

// UserOverview is the customer-service view of one account
type UserOverview struct {
	User         *User         `json:"user"`
	Subscription *Subscription `json:"subscription,omitempty"`
	Purchases    []*Purchase   `json:"purchases"`
}
