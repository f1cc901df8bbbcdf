package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTierRank(t *testing.T) {
	assert.Less(t, TierRank(TierKickstarter), TierRank(TierStarter))
	assert.Less(t, TierRank(TierStarter), TierRank(TierPro))
	assert.Less(t, TierRank(TierPro), TierRank(TierEnterprise))
	assert.Equal(t, 0, TierRank("platinum"))
	assert.False(t, IsValidTier(""))
}

func TestPlan_Duration(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, (&Plan{Period: PeriodMonthly}).Duration())
	assert.Equal(t, 90*24*time.Hour, (&Plan{Period: PeriodQuarterly}).Duration())
	assert.Equal(t, 365*24*time.Hour, (&Plan{Period: PeriodYearly}).Duration())
	assert.Equal(t, time.Duration(0), (&Plan{Period: "weekly"}).Duration())
}

func TestPlan_Validate(t *testing.T) {
	valid := Plan{Tier: TierPro, Name: "Pro", PriceCents: 100, Currency: "USD", Period: PeriodMonthly}
	assert.NoError(t, valid.Validate())

	cases := map[string]Plan{
		"tier":     {Tier: "gold", Name: "Gold", Currency: "USD", Period: PeriodMonthly},
		"name":     {Tier: TierPro, Currency: "USD", Period: PeriodMonthly},
		"period":   {Tier: TierPro, Name: "Pro", Currency: "USD", Period: "weekly"},
		"price":    {Tier: TierPro, Name: "Pro", Currency: "USD", Period: PeriodMonthly, PriceCents: -1},
		"currency": {Tier: TierPro, Name: "Pro", Currency: "usd", Period: PeriodMonthly},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, p.Validate(), ErrInvalidInput)
		})
	}
}

func TestDefaultPlans(t *testing.T) {
	plans := DefaultPlans()
	assert.Len(t, plans, 4)
	for _, p := range plans {
		assert.NoError(t, p.Validate(), p.Tier)
	}
}

func TestSubscription_IsActiveAt(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	sub := Subscription{
		Status:   SubscriptionActive,
		PlanTier: TierStarter,
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
	}
	assert.True(t, sub.IsActiveAt(now))
	assert.False(t, sub.IsActiveAt(now.Add(time.Hour)))
	assert.False(t, sub.IsActiveAt(now.Add(-2*time.Hour)))

	sub.Status = SubscriptionCancelled
	assert.False(t, sub.IsActiveAt(now))
}

func TestSubscription_Covers(t *testing.T) {
	sub := Subscription{PlanTier: TierStarter}
	assert.True(t, sub.Covers(""))
	assert.True(t, sub.Covers(TierKickstarter))
	assert.True(t, sub.Covers(TierStarter))
	assert.False(t, sub.Covers(TierPro))
}

func TestTierSets(t *testing.T) {
	assert.Equal(t, []string{TierKickstarter, TierStarter}, TiersUpTo(TierStarter))
	assert.Equal(t, []string{TierPro, TierEnterprise}, TiersFrom(TierPro))
	assert.Equal(t, AllTiers(), TiersFrom(TierKickstarter))
	assert.Empty(t, TiersUpTo("gold"))
	assert.Equal(t, []string{"signals:kickstarter", "signals:starter", "signals:pro", "signals:enterprise"}, SignalTopics())
}
