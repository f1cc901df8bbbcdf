package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"signaldesk/internal/domain"
	"signaldesk/internal/metrics"
	"signaldesk/pkg/logger"
)

const maxExtendDays = 365

// SubscriptionService manages a user's access period
type SubscriptionService interface {
	Current(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	HasActive(ctx context.Context, userID uuid.UUID) (bool, error)
	Cancel(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	Extend(ctx context.Context, userID uuid.UUID, days int) (*domain.Subscription, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptionRepo domain.SubscriptionRepository,
	userRepo domain.UserRepository,
	notifications NotificationService,
	tx domain.TxManager,
	log *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		notifications:    notifications,
		tx:               tx,
		logger:           log,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

type subscriptionService struct {
	subscriptionRepo domain.SubscriptionRepository
	userRepo         domain.UserRepository
	notifications    NotificationService
	tx               domain.TxManager
	logger           *logger.Logger
	now              func() time.Time
}

// Current returns the active subscription or domain.ErrNotFound
func (s *subscriptionService) Current(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return s.subscriptionRepo.GetActiveByUser(ctx, userID, s.now())
}

func (s *subscriptionService) HasActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := s.Current(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Cancel ends the user's active subscription immediately
func (s *subscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	var sub *domain.Subscription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subscriptionRepo.GetActiveByUser(ctx, userID, s.now())
		if err != nil {
			return err
		}
		sub.Status = domain.SubscriptionCancelled
		return s.subscriptionRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subscription cancelled", logger.Field("user_id", userID), logger.Field("subscription_id", sub.ID))
	return sub, nil
}

// Extend appends days to the active subscription
func (s *subscriptionService) Extend(ctx context.Context, userID uuid.UUID, days int) (*domain.Subscription, error) {
	if days < 1 || days > maxExtendDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", domain.ErrInvalidInput, maxExtendDays)
	}

	var sub *domain.Subscription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subscriptionRepo.GetActiveByUser(ctx, userID, s.now())
		if err != nil {
			return err
		}
		sub.EndsAt = sub.EndsAt.Add(time.Duration(days) * 24 * time.Hour)
		return s.subscriptionRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subscription extended",
		logger.Field("user_id", userID),
		logger.Field("days", days),
		logger.Field("ends_at", sub.EndsAt),
	)
	return sub, nil
}

// ExpireDue expires lapsed subscriptions and raises one admin notification each
func (s *subscriptionService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.subscriptionRepo.ExpireDue(ctx, now)
	if err != nil {
		s.logger.Error("Failed to expire subscriptions", logger.ErrorField(err))
		return 0, err
	}
	metrics.RecordExpired(len(expired))

	for _, sub := range expired {
		who := sub.UserID.String()
		if user, err := s.userRepo.GetByID(ctx, sub.UserID); err == nil {
			who = user.Email
		}

		userID := sub.UserID
		note := &domain.AdminNotification{
			Kind:    domain.NotificationSubscriptionExpired,
			Title:   fmt.Sprintf("%s subscription expired", sub.PlanTier),
			Message: fmt.Sprintf("%s's %s subscription ended %s", who, sub.PlanTier, sub.EndsAt.UTC().Format(time.RFC3339)),
			UserID:  &userID,
		}
		if err := s.notifications.Notify(ctx, note); err != nil {
			s.logger.Warn("Failed to record expiry notification", logger.ErrorField(err), logger.Field("subscription_id", sub.ID))
		}
	}

	if len(expired) > 0 {
		s.logger.Info("Expired subscriptions", logger.Field("count", len(expired)))
	}
	return len(expired), nil
}
