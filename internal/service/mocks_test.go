package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"signaldesk/internal/domain"
)

// fakeTx runs fn inline
type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *mockUserRepo) Search(ctx context.Context, query string, limit, offset int) ([]*domain.User, int, error) {
	args := m.Called(ctx, query, limit, offset)
	u, _ := args.Get(0).([]*domain.User)
	return u, args.Int(1), args.Error(2)
}

func (m *mockUserRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(map[string]int)
	return c, args.Error(1)
}

type mockPlanRepo struct{ mock.Mock }

func (m *mockPlanRepo) List(ctx context.Context, includeInactive bool) ([]*domain.Plan, error) {
	args := m.Called(ctx, includeInactive)
	p, _ := args.Get(0).([]*domain.Plan)
	return p, args.Error(1)
}

func (m *mockPlanRepo) GetByTier(ctx context.Context, tier string) (*domain.Plan, error) {
	args := m.Called(ctx, tier)
	p, _ := args.Get(0).(*domain.Plan)
	return p, args.Error(1)
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Plan)
	return p, args.Error(1)
}

func (m *mockPlanRepo) Upsert(ctx context.Context, plan *domain.Plan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *mockPlanRepo) SetActive(ctx context.Context, tier string, active bool) error {
	return m.Called(ctx, tier, active).Error(0)
}

type mockPurchaseRepo struct{ mock.Mock }

func (m *mockPurchaseRepo) Create(ctx context.Context, p *domain.Purchase) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPurchaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Purchase)
	return p, args.Error(1)
}

func (m *mockPurchaseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Purchase, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).([]*domain.Purchase)
	return p, args.Error(1)
}

func (m *mockPurchaseRepo) List(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error) {
	args := m.Called(ctx, limit, offset)
	p, _ := args.Get(0).([]*domain.Purchase)
	return p, args.Int(1), args.Error(2)
}

func (m *mockPurchaseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockPurchaseRepo) SetSubscription(ctx context.Context, id, subscriptionID uuid.UUID) error {
	return m.Called(ctx, id, subscriptionID).Error(0)
}

func (m *mockPurchaseRepo) RevenueByCurrency(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(map[string]int64)
	return r, args.Error(1)
}

type mockSubscriptionRepo struct{ mock.Mock }

func (m *mockSubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSubscriptionRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	args := m.Called(ctx, userID, now)
	s, _ := args.Get(0).(*domain.Subscription)
	return s, args.Error(1)
}

func (m *mockSubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*domain.Subscription)
	return s, args.Error(1)
}

func (m *mockSubscriptionRepo) ExpireDueForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *mockSubscriptionRepo) Update(ctx context.Context, s *domain.Subscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSubscriptionRepo) ExpireDue(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	args := m.Called(ctx, now)
	s, _ := args.Get(0).([]*domain.Subscription)
	return s, args.Error(1)
}

func (m *mockSubscriptionRepo) CountActiveByTier(ctx context.Context, now time.Time) (map[string]int, error) {
	args := m.Called(ctx, now)
	c, _ := args.Get(0).(map[string]int)
	return c, args.Error(1)
}

type mockSignalRepo struct{ mock.Mock }

func (m *mockSignalRepo) Create(ctx context.Context, s *domain.Signal) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSignalRepo) Update(ctx context.Context, s *domain.Signal) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSignalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*domain.Signal)
	return s, args.Error(1)
}

func (m *mockSignalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSignalRepo) List(ctx context.Context, filter domain.SignalFilter) ([]*domain.Signal, error) {
	args := m.Called(ctx, filter)
	s, _ := args.Get(0).([]*domain.Signal)
	return s, args.Error(1)
}

func (m *mockSignalRepo) ListVisible(ctx context.Context, userID uuid.UUID, tiers []string, filter domain.SignalFilter) ([]*domain.Signal, error) {
	args := m.Called(ctx, userID, tiers, filter)
	s, _ := args.Get(0).([]*domain.Signal)
	return s, args.Error(1)
}

func (m *mockSignalRepo) GetVisible(ctx context.Context, userID uuid.UUID, tiers []string, id uuid.UUID) (*domain.Signal, error) {
	args := m.Called(ctx, userID, tiers, id)
	s, _ := args.Get(0).(*domain.Signal)
	return s, args.Error(1)
}

func (m *mockSignalRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(map[string]int)
	return c, args.Error(1)
}

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.AdminNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationRepo) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*domain.AdminNotification, error) {
	args := m.Called(ctx, purchaseID)
	n, _ := args.Get(0).(*domain.AdminNotification)
	return n, args.Error(1)
}

func (m *mockNotificationRepo) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*domain.AdminNotification, int, error) {
	args := m.Called(ctx, unreadOnly, limit, offset)
	n, _ := args.Get(0).([]*domain.AdminNotification)
	return n, args.Int(1), args.Error(2)
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topic string, event domain.Event) error {
	return m.Called(ctx, topic, event).Error(0)
}

type mockChat struct{ mock.Mock }

func (m *mockChat) NotifyAdmin(ctx context.Context, n *domain.AdminNotification) error {
	return m.Called(ctx, n).Error(0)
}

type mockNotifications struct{ mock.Mock }

func (m *mockNotifications) Notify(ctx context.Context, n *domain.AdminNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotifications) Fanout(ctx context.Context, n *domain.AdminNotification) {
	m.Called(ctx, n)
}

func (m *mockNotifications) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*domain.AdminNotification, int, error) {
	args := m.Called(ctx, unreadOnly, limit, offset)
	n, _ := args.Get(0).([]*domain.AdminNotification)
	return n, args.Int(1), args.Error(2)
}

func (m *mockNotifications) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockNotifications) MarkRead(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotifications) MarkAllRead(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type fakeTokens struct{}

func (fakeTokens) Generate(userID uuid.UUID, role string) (string, time.Time, error) {
	return "token-" + userID.String(), time.Now().Add(time.Hour), nil
}
