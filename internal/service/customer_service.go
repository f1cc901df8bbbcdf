package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"signaldesk/internal/domain"
	"signaldesk/pkg/logger"
)

const minSearchLength = 2

// CustomerService backs the customer-service console
type CustomerService interface {
	SearchUsers(ctx context.Context, fragment string, limit int) ([]*domain.User, error)
	UserOverview(ctx context.Context, userID uuid.UUID) (*domain.UserOverview, error)
	ExtendSubscription(ctx context.Context, userID uuid.UUID, days int) (*domain.Subscription, error)
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	userRepo domain.UserRepository,
	purchaseRepo domain.PurchaseRepository,
	subscriptions SubscriptionService,
	log *logger.Logger,
) CustomerService {
	return &customerService{
		userRepo:      userRepo,
		purchaseRepo:  purchaseRepo,
		subscriptions: subscriptions,
		logger:        log,
	}
}

type customerService struct {
	userRepo      domain.UserRepository
	purchaseRepo  domain.PurchaseRepository
	subscriptions SubscriptionService
	logger        *logger.Logger
}

func (s *customerService) SearchUsers(ctx context.Context, fragment string, limit int) ([]*domain.User, error) {
	fragment = strings.TrimSpace(fragment)
	if len(fragment) < minSearchLength {
		return nil, fmt.Errorf("%w: search needs at least %d characters", domain.ErrInvalidInput, minSearchLength)
	}
	limit, _ = page(limit, 0)

	users, _, err := s.userRepo.Search(ctx, fragment, limit, 0)
	return users, err
}

func (s *customerService) UserOverview(ctx context.Context, userID uuid.UUID) (*domain.UserOverview, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	overview := &domain.UserOverview{User: user}

	sub, err := s.subscriptions.Current(ctx, userID)
	switch {
	case err == nil:
		overview.Subscription = sub
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if overview.Purchases, err = s.purchaseRepo.ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *customerService) ExtendSubscription(ctx context.Context, userID uuid.UUID, days int) (*domain.Subscription, error) {
	return s.subscriptions.Extend(ctx, userID, days)
}
