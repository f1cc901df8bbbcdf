package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"signaldesk/internal/domain"
	"signaldesk/pkg/logger"
)

// AdminService backs the admin console
type AdminService interface {
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
	ListUsers(ctx context.Context, query string, limit, offset int) ([]*domain.User, int, error)
	SetRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*domain.User, error)
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo domain.UserRepository,
	purchaseRepo domain.PurchaseRepository,
	subscriptionRepo domain.SubscriptionRepository,
	signalRepo domain.SignalRepository,
	notificationRepo domain.NotificationRepository,
	log *logger.Logger,
) AdminService {
	return &adminService{
		userRepo:         userRepo,
		purchaseRepo:     purchaseRepo,
		subscriptionRepo: subscriptionRepo,
		signalRepo:       signalRepo,
		notificationRepo: notificationRepo,
		logger:           log,
	}
}

type adminService struct {
	userRepo         domain.UserRepository
	purchaseRepo     domain.PurchaseRepository
	subscriptionRepo domain.SubscriptionRepository
	signalRepo       domain.SignalRepository
	notificationRepo domain.NotificationRepository
	logger           *logger.Logger
}

func (s *adminService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{}
	var err error

	if stats.UsersByRole, err = s.userRepo.CountByRole(ctx); err != nil {
		return nil, err
	}
	for _, n := range stats.UsersByRole {
		stats.TotalUsers += n
	}
	if stats.ActiveSubscriptions, err = s.subscriptionRepo.CountActiveByTier(ctx, time.Now().UTC()); err != nil {
		return nil, err
	}
	if stats.RevenueCents, err = s.purchaseRepo.RevenueByCurrency(ctx); err != nil {
		return nil, err
	}
	if stats.SignalsByStatus, err = s.signalRepo.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if stats.UnreadNotifications, err = s.notificationRepo.UnreadCount(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *adminService) ListUsers(ctx context.Context, query string, limit, offset int) ([]*domain.User, int, error) {
	limit, offset = page(limit, offset)
	return s.userRepo.Search(ctx, query, limit, offset)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *adminService) SetRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*domain.User, error) {
	if !domain.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if actorID == userID && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot demote themselves", domain.ErrForbidden)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}

	s.logger.Info("User role changed",
		logger.Field("actor_id", actorID),
		logger.Field("user_id", userID),
		logger.Field("role", role),
	)
	return s.userRepo.GetByID(ctx, userID)
}
