package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signaldesk/internal/adapter/realtime"
	"signaldesk/internal/domain"
	"signaldesk/internal/service"
	"signaldesk/pkg/logger"
)

func newPurchaseService(pool *pgxpool.Pool) service.PurchaseService {
	log := logger.NewNop()
	notificationRepo := NewNotificationRepository(pool)
	broker := realtime.NewBroker(realtime.NewHub(nil, log), nil, log)
	notifications := service.NewNotificationService(notificationRepo, broker, nil, log)

	return service.NewPurchaseService(
		NewPlanRepository(pool),
		NewPurchaseRepository(pool),
		NewSubscriptionRepository(pool),
		notificationRepo,
		notifications,
		NewTxManager(pool),
		log,
	)
}

func TestSubscriptionRepository_ExpireDueForUser(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	user := seedUser(t, users, "lapsed@example.com")
	other := seedUser(t, users, "other@example.com")
	plan := seedPlan(t, NewPlanRepository(pool), domain.TierStarter)
	subs := NewSubscriptionRepository(pool)

	now := time.Now().UTC()
	lapsed := &domain.Subscription{
		ID: uuid.New(), UserID: user.ID, PlanID: plan.ID, PlanTier: plan.Tier,
		Status: domain.SubscriptionActive, StartsAt: now.Add(-48 * time.Hour), EndsAt: now.Add(-time.Hour),
		CreatedAt: now, UpdatedAt: now,
	}
	otherLapsed := *lapsed
	otherLapsed.ID = uuid.New()
	otherLapsed.UserID = other.ID
	require.NoError(t, subs.Create(ctx, lapsed))
	require.NoError(t, subs.Create(ctx, &otherLapsed))

	_, err := subs.GetActiveByUser(ctx, user.ID, now)
	assert.ErrorIs(t, err, domain.ErrNotFound, "a lapsed row is not current")

	fresh := &domain.Subscription{
		ID: uuid.New(), UserID: user.ID, PlanID: plan.ID, PlanTier: plan.Tier,
		Status: domain.SubscriptionActive, StartsAt: now, EndsAt: now.Add(time.Hour),
		CreatedAt: now, UpdatedAt: now,
	}
	assert.ErrorIs(t, subs.Create(ctx, fresh), domain.ErrAlreadyExists, "but it still holds the active slot")

	n, err := subs.ExpireDueForUser(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, subs.Create(ctx, fresh))

	got, err := subs.GetByID(ctx, otherLapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, got.Status, "other users are left to the sweep")
}

func TestPurchaseFlow_RenewAfterLapseBeforeSweep(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	user := seedUser(t, NewUserRepository(pool), "renew@example.com")
	plan := seedPlan(t, NewPlanRepository(pool), domain.TierStarter)
	subs := NewSubscriptionRepository(pool)

	now := time.Now().UTC()
	require.NoError(t, subs.Create(ctx, &domain.Subscription{
		ID: uuid.New(), UserID: user.ID, PlanID: plan.ID, PlanTier: plan.Tier,
		Status: domain.SubscriptionActive, StartsAt: now.Add(-31 * 24 * time.Hour), EndsAt: now.Add(-time.Minute),
		CreatedAt: now, UpdatedAt: now,
	}))

	res, err := newPurchaseService(pool).Purchase(ctx, user.ID, plan.Tier, "pay_"+uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, res.Subscription.Status)
	assert.True(t, res.Subscription.EndsAt.After(now))

	current, err := subs.GetActiveByUser(ctx, user.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, res.Subscription.ID, current.ID)
}

func TestPurchaseFlow_RefundStartingAndRenewal(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	plan := seedPlan(t, NewPlanRepository(pool), domain.TierStarter)
	subs := NewSubscriptionRepository(pool)
	purchases := NewPurchaseRepository(pool)
	svc := newPurchaseService(pool)

	buy := func(userID uuid.UUID) *domain.PurchaseResult {
		res, err := svc.Purchase(ctx, userID, plan.Tier, "pay_"+uuid.NewString())
		require.NoError(t, err)
		return res
	}

	t.Run("refunding the renewal keeps the starting period", func(t *testing.T) {
		user := seedUser(t, users, "renewal-refund@example.com")
		first := buy(user.ID)
		second := buy(user.ID)
		require.Equal(t, first.Subscription.ID, second.Subscription.ID)

		stored, err := purchases.GetByID(ctx, second.Purchase.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.SubscriptionID)
		assert.Equal(t, first.Subscription.ID, *stored.SubscriptionID)

		_, err = svc.Refund(ctx, second.Purchase.ID)
		require.NoError(t, err)

		sub, err := subs.GetByID(ctx, first.Subscription.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionActive, sub.Status)
		assert.WithinDuration(t, first.Subscription.EndsAt, sub.EndsAt, time.Second)
		assert.Equal(t, first.Purchase.ID, *sub.PurchaseID)
	})

	t.Run("refunding the starting purchase cancels", func(t *testing.T) {
		user := seedUser(t, users, "starting-refund@example.com")
		first := buy(user.ID)
		buy(user.ID)

		_, err := svc.Refund(ctx, first.Purchase.ID)
		require.NoError(t, err)

		sub, err := subs.GetByID(ctx, first.Subscription.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionCancelled, sub.Status)
	})
}
