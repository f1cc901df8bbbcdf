package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signaldesk/internal/domain"
	"signaldesk/pkg/logger"
)

type purchaseFixture struct {
	plans         *mockPlanRepo
	purchases     *mockPurchaseRepo
	subs          *mockSubscriptionRepo
	notes         *mockNotificationRepo
	notifications *mockNotifications
	tx            *fakeTx
	svc           *purchaseService
	now           time.Time
}

func newPurchaseFixture() *purchaseFixture {
	f := &purchaseFixture{
		plans:         &mockPlanRepo{},
		purchases:     &mockPurchaseRepo{},
		subs:          &mockSubscriptionRepo{},
		notes:         &mockNotificationRepo{},
		notifications: &mockNotifications{},
		tx:            &fakeTx{},
		now:           time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewPurchaseService(f.plans, f.purchases, f.subs, f.notes, f.notifications, f.tx, logger.NewNop()).(*purchaseService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func proPlan() *domain.Plan {
	return &domain.Plan{
		ID: uuid.New(), Tier: domain.TierPro, Name: "Pro",
		PriceCents: 7900, Currency: "USD", Period: domain.PeriodQuarterly, IsActive: true,
	}
}

func TestPurchaseService_Purchase_NewSubscription(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture()
	plan := proPlan()
	userID := uuid.New()
	note := &domain.AdminNotification{ID: uuid.New(), Kind: domain.NotificationPurchase}

	f.plans.On("GetByTier", ctx, domain.TierPro).Return(plan, nil)
	f.purchases.On("Create", ctx, mock.MatchedBy(func(p *domain.Purchase) bool {
		return p.AmountCents == 7900 && p.Status == domain.PurchaseCompleted && p.PaymentReference == "pay_1"
	})).Return(nil)
	f.subs.On("ExpireDueForUser", ctx, userID, f.now).Return(int64(0), nil)
	f.subs.On("GetActiveByUser", ctx, userID, f.now).Return(nil, domain.ErrNotFound)
	f.subs.On("Create", ctx, mock.MatchedBy(func(s *domain.Subscription) bool {
		return s.PlanTier == domain.TierPro && s.StartsAt.Equal(f.now) && s.EndsAt.Equal(f.now.Add(90*24*time.Hour))
	})).Return(nil)
	f.purchases.On("SetSubscription", ctx, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("uuid.UUID")).Return(nil)
	f.notes.On("GetByPurchaseID", ctx, mock.AnythingOfType("uuid.UUID")).Return(note, nil)
	f.notifications.On("Fanout", ctx, note).Return()

	res, err := f.svc.Purchase(ctx, userID, domain.TierPro, " pay_1 ")
	require.NoError(t, err)

	assert.Equal(t, 1, f.tx.calls)
	assert.Equal(t, res.Purchase.ID, *res.Subscription.PurchaseID)
	assert.Equal(t, res.Subscription.ID, *res.Purchase.SubscriptionID)
	assert.Equal(t, note, res.Notification)
	f.purchases.AssertCalled(t, "SetSubscription", ctx, res.Purchase.ID, res.Subscription.ID)
	f.subs.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
}

func TestPurchaseService_Purchase_SameTierExtends(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture()
	plan := proPlan()
	userID := uuid.New()
	ends := f.now.Add(10 * 24 * time.Hour)
	firstPurchase := uuid.New()
	current := &domain.Subscription{
		ID: uuid.New(), UserID: userID, PlanID: plan.ID, PlanTier: domain.TierPro, PurchaseID: &firstPurchase,
		Status: domain.SubscriptionActive, StartsAt: f.now.Add(-80 * 24 * time.Hour), EndsAt: ends,
	}

	f.plans.On("GetByTier", ctx, domain.TierPro).Return(plan, nil)
	f.purchases.On("Create", ctx, mock.Anything).Return(nil)
	f.subs.On("ExpireDueForUser", ctx, userID, f.now).Return(int64(0), nil)
	f.subs.On("GetActiveByUser", ctx, userID, f.now).Return(current, nil)
	f.subs.On("Update", ctx, current).Return(nil)
	f.purchases.On("SetSubscription", ctx, mock.AnythingOfType("uuid.UUID"), current.ID).Return(nil)
	f.notes.On("GetByPurchaseID", ctx, mock.Anything).Return(nil, domain.ErrNotFound)

	res, err := f.svc.Purchase(ctx, userID, domain.TierPro, "pay_2")
	require.NoError(t, err)

	assert.Equal(t, current.ID, res.Subscription.ID)
	assert.Equal(t, ends.Add(90*24*time.Hour), res.Subscription.EndsAt)
	assert.Equal(t, domain.SubscriptionActive, res.Subscription.Status)
	assert.Equal(t, firstPurchase, *res.Subscription.PurchaseID, "the starting purchase stays linked")
	assert.Equal(t, current.ID, *res.Purchase.SubscriptionID)
	assert.Nil(t, res.Notification)
	f.subs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifications.AssertNotCalled(t, "Fanout", mock.Anything, mock.Anything)
}

func TestPurchaseService_Purchase_OtherTierReplaces(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture()
	plan := proPlan()
	userID := uuid.New()
	current := &domain.Subscription{
		ID: uuid.New(), UserID: userID, PlanTier: domain.TierStarter,
		Status: domain.SubscriptionActive, StartsAt: f.now.Add(-time.Hour), EndsAt: f.now.Add(time.Hour),
	}

	f.plans.On("GetByTier", ctx, domain.TierPro).Return(plan, nil)
	f.purchases.On("Create", ctx, mock.Anything).Return(nil)
	f.subs.On("ExpireDueForUser", ctx, userID, f.now).Return(int64(0), nil)
	f.subs.On("GetActiveByUser", ctx, userID, f.now).Return(current, nil)
	f.subs.On("Update", ctx, mock.MatchedBy(func(s *domain.Subscription) bool {
		return s.ID == current.ID && s.Status == domain.SubscriptionCancelled
	})).Return(nil)
	f.subs.On("Create", ctx, mock.MatchedBy(func(s *domain.Subscription) bool {
		return s.PlanTier == domain.TierPro && s.Status == domain.SubscriptionActive
	})).Return(nil)
	f.purchases.On("SetSubscription", ctx, mock.Anything, mock.Anything).Return(nil)
	f.notes.On("GetByPurchaseID", ctx, mock.Anything).Return(nil, domain.ErrNotFound)

	res, err := f.svc.Purchase(ctx, userID, domain.TierPro, "pay_3")
	require.NoError(t, err)
	assert.NotEqual(t, current.ID, res.Subscription.ID)
	f.subs.AssertExpectations(t)
}

func TestPurchaseService_Purchase_AfterLapseBeforeSweep(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture()
	plan := proPlan()
	userID := uuid.New()

	// The lapsed row is hidden from GetActiveByUser but still holds the
	// one-active-per-user index until it is expired.
	expired := false
	f.plans.On("GetByTier", ctx, domain.TierPro).Return(plan, nil)
	f.purchases.On("Create", ctx, mock.Anything).Return(nil)
	f.subs.On("ExpireDueForUser", ctx, userID, f.now).
		Run(func(mock.Arguments) { expired = true }).
		Return(int64(1), nil)
	f.subs.On("GetActiveByUser", ctx, userID, f.now).Return(nil, domain.ErrNotFound)
	f.subs.On("Create", ctx, mock.MatchedBy(func(*domain.Subscription) bool { return expired })).Return(nil)
	f.subs.On("Create", ctx, mock.MatchedBy(func(*domain.Subscription) bool { return !expired })).Return(domain.ErrAlreadyExists)
	f.purchases.On("SetSubscription", ctx, mock.Anything, mock.Anything).Return(nil)
	f.notes.On("GetByPurchaseID", ctx, mock.Anything).Return(nil, domain.ErrNotFound)

	res, err := f.svc.Purchase(ctx, userID, domain.TierPro, "pay_renew")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, res.Subscription.Status)
	assert.True(t, res.Subscription.StartsAt.Equal(f.now))
}

func TestPurchaseService_Purchase_Rejections(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("empty payment reference", func(t *testing.T) {
		f := newPurchaseFixture()
		_, err := f.svc.Purchase(ctx, userID, domain.TierPro, "  ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown plan", func(t *testing.T) {
		f := newPurchaseFixture()
		f.plans.On("GetByTier", ctx, "gold").Return(nil, domain.ErrNotFound)
		_, err := f.svc.Purchase(ctx, userID, "gold", "pay")
		assert.ErrorIs(t, err, domain.ErrPlanUnavailable)
	})

	t.Run("inactive plan", func(t *testing.T) {
		f := newPurchaseFixture()
		plan := proPlan()
		plan.IsActive = false
		f.plans.On("GetByTier", ctx, domain.TierPro).Return(plan, nil)
		_, err := f.svc.Purchase(ctx, userID, domain.TierPro, "pay")
		assert.ErrorIs(t, err, domain.ErrPlanUnavailable)
		assert.Equal(t, 0, f.tx.calls)
	})

	t.Run("duplicate payment reference", func(t *testing.T) {
		f := newPurchaseFixture()
		f.plans.On("GetByTier", ctx, domain.TierPro).Return(proPlan(), nil)
		f.purchases.On("Create", ctx, mock.Anything).Return(domain.ErrAlreadyExists)
		_, err := f.svc.Purchase(ctx, userID, domain.TierPro, "pay_dup")
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		f.subs.AssertNotCalled(t, "GetActiveByUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPurchaseService_Refund(t *testing.T) {
	ctx := context.Background()

	// starting purchase P1 opened S for 90 days; renewal P2 extended it by another 90
	setup := func() (*purchaseFixture, *domain.Purchase, *domain.Purchase, *domain.Subscription) {
		f := newPurchaseFixture()
		plan := proPlan()
		userID := uuid.New()
		subID := uuid.New()
		p1 := &domain.Purchase{ID: uuid.New(), UserID: userID, PlanID: plan.ID, Status: domain.PurchaseCompleted, SubscriptionID: &subID}
		p2 := &domain.Purchase{ID: uuid.New(), UserID: userID, PlanID: plan.ID, Status: domain.PurchaseCompleted, SubscriptionID: &subID}
		sub := &domain.Subscription{
			ID: subID, UserID: userID, PlanTier: domain.TierPro, PurchaseID: &p1.ID, Status: domain.SubscriptionActive,
			StartsAt: f.now.Add(-10 * 24 * time.Hour), EndsAt: f.now.Add(170 * 24 * time.Hour),
		}
		f.plans.On("GetByID", ctx, plan.ID).Return(plan, nil)
		f.subs.On("GetByID", ctx, subID).Return(sub, nil)
		f.subs.On("Update", ctx, sub).Return(nil)
		for _, p := range []*domain.Purchase{p1, p2} {
			f.purchases.On("GetByID", ctx, p.ID).Return(p, nil)
			f.purchases.On("UpdateStatus", ctx, p.ID, domain.PurchaseRefunded).Return(nil)
		}
		return f, p1, p2, sub
	}

	t.Run("starting purchase cancels the subscription", func(t *testing.T) {
		f, p1, _, sub := setup()

		got, err := f.svc.Refund(ctx, p1.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseRefunded, got.Status)
		assert.Equal(t, domain.SubscriptionCancelled, sub.Status)
	})

	t.Run("renewal only takes back its own period", func(t *testing.T) {
		f, _, p2, sub := setup()
		ends := sub.EndsAt

		_, err := f.svc.Refund(ctx, p2.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionActive, sub.Status)
		assert.Equal(t, ends.Add(-90*24*time.Hour), sub.EndsAt)
	})

	t.Run("renewal then starting purchase", func(t *testing.T) {
		f, p1, p2, sub := setup()

		_, err := f.svc.Refund(ctx, p2.ID)
		require.NoError(t, err)
		_, err = f.svc.Refund(ctx, p1.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionCancelled, sub.Status)
	})

	t.Run("renewal whose remaining period already ran out", func(t *testing.T) {
		f, _, p2, sub := setup()
		sub.StartsAt = f.now.Add(-100 * 24 * time.Hour)
		sub.EndsAt = f.now.Add(30 * 24 * time.Hour)

		_, err := f.svc.Refund(ctx, p2.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionExpired, sub.Status)
		assert.False(t, sub.EndsAt.After(f.now))
	})

	t.Run("inactive subscription is left alone", func(t *testing.T) {
		f, p1, _, sub := setup()
		sub.Status = domain.SubscriptionCancelled

		_, err := f.svc.Refund(ctx, p1.ID)
		require.NoError(t, err)
		f.subs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("already refunded", func(t *testing.T) {
		f := newPurchaseFixture()
		p := &domain.Purchase{ID: uuid.New(), Status: domain.PurchaseRefunded}
		f.purchases.On("GetByID", ctx, p.ID).Return(p, nil)

		_, err := f.svc.Refund(ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no linked subscription", func(t *testing.T) {
		f := newPurchaseFixture()
		p := &domain.Purchase{ID: uuid.New(), Status: domain.PurchaseCompleted}
		f.purchases.On("GetByID", ctx, p.ID).Return(p, nil)
		f.purchases.On("UpdateStatus", ctx, p.ID, domain.PurchaseRefunded).Return(nil)

		_, err := f.svc.Refund(ctx, p.ID)
		assert.NoError(t, err)
		f.subs.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestPurchaseService_ListAllClampsPaging(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture()
	f.purchases.On("List", ctx, maxPageSize, 0).Return([]*domain.Purchase{}, 0, nil)

	_, _, err := f.svc.ListAll(ctx, 10_000, -5)
	require.NoError(t, err)
	f.purchases.AssertExpectations(t)
}
