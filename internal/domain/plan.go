package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Plan is a named subscription tier with price, period and feature list
type Plan struct {
	ID          uuid.UUID `json:"id"`
	Tier        string    `json:"tier"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Period      string    `json:"period"`
	Features    []string  `json:"features"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlanTier constants, lowest to highest
const (
	TierKickstarter = "kickstarter"
	TierStarter     = "starter"
	TierPro         = "pro"
	TierEnterprise  = "enterprise"
)

// BillingPeriod constants
const (
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodYearly    = "yearly"
)

var tierRank = map[string]int{
	TierKickstarter: 1,
	TierStarter:     2,
	TierPro:         3,
	TierEnterprise:  4,
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// TierRank returns the ordering of a tier; unknown tiers rank 0
func TierRank(tier string) int {
	return tierRank[tier]
}

// TiersUpTo returns every tier ranked at or below tier, lowest first
func TiersUpTo(tier string) []string {
	var out []string
	for _, t := range AllTiers() {
		if TierRank(t) <= TierRank(tier) {
			out = append(out, t)
		}
	}
	return out
}

// TiersFrom returns every tier ranked at or above tier, lowest first
func TiersFrom(tier string) []string {
	var out []string
	for _, t := range AllTiers() {
		if TierRank(t) >= TierRank(tier) {
			out = append(out, t)
		}
	}
	return out
}

// AllTiers lists the tiers lowest first
func AllTiers() []string {
	return []string{TierKickstarter, TierStarter, TierPro, TierEnterprise}
}

// IsValidTier reports whether tier is a known plan tier
func IsValidTier(tier string) bool {
	return TierRank(tier) > 0
}

// PeriodDuration returns the length of one billing period
func PeriodDuration(period string) (time.Duration, bool) {
	switch period {
	case PeriodMonthly:
		return 30 * 24 * time.Hour, true
	case PeriodQuarterly:
		return 90 * 24 * time.Hour, true
	case PeriodYearly:
		return 365 * 24 * time.Hour, true
	}
	return 0, false
}

// Duration returns the length of the plan's billing period
func (p *Plan) Duration() time.Duration {
	d, _ := PeriodDuration(p.Period)
	return d
}

// Validate checks the fields an admin can edit
func (p *Plan) Validate() error {
	if !IsValidTier(p.Tier) {
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, p.Tier)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: plan name is required", ErrInvalidInput)
	}
	if _, ok := PeriodDuration(p.Period); !ok {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidInput, p.Period)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if !currencyPattern.MatchString(p.Currency) {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code", ErrInvalidInput)
	}
	return nil
}

// DefaultPlans is the catalog seeded into an empty database
func DefaultPlans() []*Plan {
	return []*Plan{
		{
			Tier:        TierKickstarter,
			Name:        "Kickstarter",
			Description: "Try the signal feed",
			PriceCents:  900,
			Currency:    "USD",
			Period:      PeriodMonthly,
			Features:    []string{"Daily swing signals", "Email support"},
			IsActive:    true,
			SortOrder:   1,
		},
		{
			Tier:        TierStarter,
			Name:        "Starter",
			Description: "For part-time traders",
			PriceCents:  2900,
			Currency:    "USD",
			Period:      PeriodMonthly,
			Features:    []string{"All kickstarter signals", "Intraday signals", "Realtime feed"},
			IsActive:    true,
			SortOrder:   2,
		},
		{
			Tier:        TierPro,
			Name:        "Pro",
			Description: "Full signal coverage",
			PriceCents:  7900,
			Currency:    "USD",
			Period:      PeriodQuarterly,
			Features:    []string{"All starter signals", "Scalping signals", "Priority support"},
			IsActive:    true,
			SortOrder:   3,
		},
		{
			Tier:        TierEnterprise,
			Name:        "Enterprise",
			Description: "Desks and trading teams",
			PriceCents:  49900,
			Currency:    "USD",
			Period:      PeriodYearly,
			Features:    []string{"All pro signals", "Dedicated account manager", "Team seats"},
			IsActive:    true,
			SortOrder:   4,
		},
	}
}
