package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"signaldesk/internal/domain"
	"signaldesk/internal/metrics"
	"signaldesk/pkg/logger"
)

const maxPaymentReferenceLength = 128

// PurchaseService sells plans and keeps subscriptions in step with payments
type PurchaseService interface {
	Purchase(ctx context.Context, userID uuid.UUID, tier, paymentReference string) (*domain.PurchaseResult, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*domain.Purchase, error)
	ListAll(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error)
	Refund(ctx context.Context, purchaseID uuid.UUID) (*domain.Purchase, error)
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	planRepo domain.PlanRepository,
	purchaseRepo domain.PurchaseRepository,
	subscriptionRepo domain.SubscriptionRepository,
	notificationRepo domain.NotificationRepository,
	notifications NotificationService,
	tx domain.TxManager,
	log *logger.Logger,
) PurchaseService {
	return &purchaseService{
		planRepo:         planRepo,
		purchaseRepo:     purchaseRepo,
		subscriptionRepo: subscriptionRepo,
		notificationRepo: notificationRepo,
		notifications:    notifications,
		tx:               tx,
		logger:           log,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

type purchaseService struct {
	planRepo         domain.PlanRepository
	purchaseRepo     domain.PurchaseRepository
	subscriptionRepo domain.SubscriptionRepository
	notificationRepo domain.NotificationRepository
	notifications    NotificationService
	tx               domain.TxManager
	logger           *logger.Logger
	now              func() time.Time
}

// Purchase records a completed payment for tier and activates the subscription.
// Buying the tier already held extends it; buying another tier replaces it from now.
// The purchase trigger writes the admin notification in the same transaction; it is
// fanned out after commit.
func (s *purchaseService) Purchase(ctx context.Context, userID uuid.UUID, tier, paymentReference string) (*domain.PurchaseResult, error) {
	paymentReference = strings.TrimSpace(paymentReference)
	if paymentReference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", domain.ErrInvalidInput)
	}
	if len(paymentReference) > maxPaymentReferenceLength {
		return nil, fmt.Errorf("%w: payment reference is too long", domain.ErrInvalidInput)
	}

	plan, err := s.planRepo.GetByTier(ctx, tier)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlanUnavailable, tier)
	}
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlanUnavailable, tier)
	}

	now := s.now()
	purchase := &domain.Purchase{
		ID:               uuid.New(),
		UserID:           userID,
		PlanID:           plan.ID,
		PlanTier:         plan.Tier,
		AmountCents:      plan.PriceCents,
		Currency:         plan.Currency,
		Status:           domain.PurchaseCompleted,
		PaymentReference: paymentReference,
		CreatedAt:        now,
	}

	var sub *domain.Subscription
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
			return err
		}

		var err error
		sub, err = s.activate(ctx, userID, plan, purchase.ID, now)
		if err != nil {
			return err
		}
		purchase.SubscriptionID = &sub.ID
		return s.purchaseRepo.SetSubscription(ctx, purchase.ID, sub.ID)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Purchase failed", logger.ErrorField(err), logger.Field("user_id", userID), logger.Field("tier", tier))
		}
		return nil, err
	}

	metrics.RecordPurchase(plan.Tier)
	s.logger.Info("Purchase completed",
		logger.Field("purchase_id", purchase.ID),
		logger.Field("user_id", userID),
		logger.Field("tier", plan.Tier),
		logger.Field("ends_at", sub.EndsAt),
	)

	result := &domain.PurchaseResult{Purchase: purchase, Subscription: sub}

	note, err := s.notificationRepo.GetByPurchaseID(ctx, purchase.ID)
	if err != nil {
		s.logger.Warn("Purchase notification not found", logger.ErrorField(err), logger.Field("purchase_id", purchase.ID))
		return result, nil
	}
	s.notifications.Fanout(ctx, note)
	result.Notification = note
	return result, nil
}

// activate extends or replaces the user's subscription for a paid plan.
// The subscription keeps pointing at the purchase that started it.
func (s *purchaseService) activate(ctx context.Context, userID uuid.UUID, plan *domain.Plan, purchaseID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	// A row past ends_at stays ACTIVE until the sweep runs and would block the insert below.
	lapsed, err := s.subscriptionRepo.ExpireDueForUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if lapsed > 0 {
		s.logger.Info("Expired lapsed subscription before purchase", logger.Field("user_id", userID), logger.Field("count", lapsed))
	}

	current, err := s.subscriptionRepo.GetActiveByUser(ctx, userID, now)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if current != nil && current.PlanTier == plan.Tier {
		current.EndsAt = current.EndsAt.Add(plan.Duration())
		if err := s.subscriptionRepo.Update(ctx, current); err != nil {
			return nil, err
		}
		return current, nil
	}

	if current != nil {
		current.Status = domain.SubscriptionCancelled
		if err := s.subscriptionRepo.Update(ctx, current); err != nil {
			return nil, err
		}
	}

	sub := &domain.Subscription{
		ID:         uuid.New(),
		UserID:     userID,
		PlanID:     plan.ID,
		PlanTier:   plan.Tier,
		PurchaseID: &purchaseID,
		Status:     domain.SubscriptionActive,
		StartsAt:   now,
		EndsAt:     now.Add(plan.Duration()),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *purchaseService) ListMine(ctx context.Context, userID uuid.UUID) ([]*domain.Purchase, error) {
	return s.purchaseRepo.ListByUser(ctx, userID)
}

func (s *purchaseService) ListAll(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error) {
	limit, offset = page(limit, offset)
	return s.purchaseRepo.List(ctx, limit, offset)
}

// Refund marks a completed purchase REFUNDED and takes back what it paid for.
// Refunding the purchase that started a subscription cancels it; refunding an
// extension shortens it by one plan period.
func (s *purchaseService) Refund(ctx context.Context, purchaseID uuid.UUID) (*domain.Purchase, error) {
	var purchase *domain.Purchase
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		purchase, err = s.purchaseRepo.GetByID(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase.Status != domain.PurchaseCompleted {
			return fmt.Errorf("%w: purchase is %s", domain.ErrInvalidInput, purchase.Status)
		}

		if err := s.purchaseRepo.UpdateStatus(ctx, purchaseID, domain.PurchaseRefunded); err != nil {
			return err
		}
		purchase.Status = domain.PurchaseRefunded

		if purchase.SubscriptionID == nil {
			return nil
		}
		sub, err := s.subscriptionRepo.GetByID(ctx, *purchase.SubscriptionID)
		if err != nil {
			return err
		}
		if sub.Status != domain.SubscriptionActive {
			return nil
		}
		return s.revoke(ctx, sub, purchase)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase refunded", logger.Field("purchase_id", purchaseID), logger.Field("user_id", purchase.UserID))
	return purchase, nil
}

// revoke removes the access a refunded purchase granted on sub
func (s *purchaseService) revoke(ctx context.Context, sub *domain.Subscription, purchase *domain.Purchase) error {
	if sub.PurchaseID != nil && *sub.PurchaseID == purchase.ID {
		sub.Status = domain.SubscriptionCancelled
		return s.subscriptionRepo.Update(ctx, sub)
	}

	plan, err := s.planRepo.GetByID(ctx, purchase.PlanID)
	if err != nil {
		return err
	}
	endsAt := sub.EndsAt.Add(-plan.Duration())
	switch {
	case !endsAt.After(sub.StartsAt):
		sub.Status = domain.SubscriptionCancelled
	case !endsAt.After(s.now()):
		sub.EndsAt = endsAt
		sub.Status = domain.SubscriptionExpired
	default:
		sub.EndsAt = endsAt
	}
	return s.subscriptionRepo.Update(ctx, sub)
}
