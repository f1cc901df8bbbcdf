package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"signaldesk/internal/domain"
	"signaldesk/internal/metrics"
	"signaldesk/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// NotificationService records admin notifications and fans them out to the
// admin console and the admin chat
type NotificationService interface {
	Notify(ctx context.Context, n *domain.AdminNotification) error
	Fanout(ctx context.Context, n *domain.AdminNotification)
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*domain.AdminNotification, int, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

// NewNotificationService creates a new notification service. chat may be nil.
func NewNotificationService(
	notificationRepo domain.NotificationRepository,
	publisher domain.RealtimePublisher,
	chat domain.AdminChatNotifier,
	log *logger.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		chat:             chat,
		logger:           log,
	}
}

type notificationService struct {
	notificationRepo domain.NotificationRepository
	publisher        domain.RealtimePublisher
	chat             domain.AdminChatNotifier
	logger           *logger.Logger
}

// Notify stores n and fans it out
func (s *notificationService) Notify(ctx context.Context, n *domain.AdminNotification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to store admin notification", logger.ErrorField(err), logger.Field("kind", n.Kind))
		return err
	}

	s.Fanout(ctx, n)
	return nil
}

// Fanout delivers n to connected consoles and the admin chat. Delivery failures are logged only.
func (s *notificationService) Fanout(ctx context.Context, n *domain.AdminNotification) {
	err := s.publisher.Publish(ctx, domain.TopicAdmin, domain.Event{Type: domain.EventAdminNotification, Data: n})
	metrics.RecordFanout("realtime", err == nil)
	if err != nil {
		s.logger.Warn("Failed to publish admin notification", logger.ErrorField(err), logger.Field("notification_id", n.ID))
	}

	if s.chat == nil {
		return
	}
	err = s.chat.NotifyAdmin(ctx, n)
	metrics.RecordFanout("telegram", err == nil)
	if err != nil {
		s.logger.Warn("Failed to mirror admin notification to chat", logger.ErrorField(err), logger.Field("notification_id", n.ID))
	}
}

func (s *notificationService) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*domain.AdminNotification, int, error) {
	limit, offset = page(limit, offset)
	return s.notificationRepo.List(ctx, unreadOnly, limit, offset)
}

func (s *notificationService) UnreadCount(ctx context.Context) (int, error) {
	return s.notificationRepo.UnreadCount(ctx)
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx)
}

// page clamps list paging arguments
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
