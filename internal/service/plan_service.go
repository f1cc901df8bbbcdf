package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"signaldesk/internal/domain"
	"signaldesk/pkg/logger"
)

const activePlansKey = "plans:active"

// PlanService manages the public plan catalog
type PlanService interface {
	List(ctx context.Context, includeInactive bool) ([]*domain.Plan, error)
	GetByTier(ctx context.Context, tier string) (*domain.Plan, error)
	Upsert(ctx context.Context, plan *domain.Plan) (*domain.Plan, error)
	SetActive(ctx context.Context, tier string, active bool) error
	SeedDefaults(ctx context.Context) (int, error)
}

// NewPlanService creates a new plan service. The active catalog is cached for ttl.
func NewPlanService(planRepo domain.PlanRepository, ttl time.Duration, log *logger.Logger) PlanService {
	return &planService{
		planRepo: planRepo,
		cache:    cache.New(ttl, 2*ttl),
		logger:   log,
	}
}

type planService struct {
	planRepo domain.PlanRepository
	cache    *cache.Cache
	logger   *logger.Logger
}

// List returns the catalog sorted by sort order
func (s *planService) List(ctx context.Context, includeInactive bool) ([]*domain.Plan, error) {
	if !includeInactive {
		if cached, ok := s.cache.Get(activePlansKey); ok {
			return cached.([]*domain.Plan), nil
		}
	}

	plans, err := s.planRepo.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("Failed to list plans", logger.ErrorField(err))
		return nil, err
	}

	if !includeInactive {
		s.cache.SetDefault(activePlansKey, plans)
	}
	return plans, nil
}

// GetByTier returns one plan
func (s *planService) GetByTier(ctx context.Context, tier string) (*domain.Plan, error) {
	if !domain.IsValidTier(tier) {
		return nil, fmt.Errorf("%w: unknown tier %q", domain.ErrNotFound, tier)
	}
	return s.planRepo.GetByTier(ctx, tier)
}

// Upsert creates or replaces the plan for plan.Tier
func (s *planService) Upsert(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Features == nil {
		plan.Features = []string{}
	}

	if err := s.planRepo.Upsert(ctx, plan); err != nil {
		s.logger.Error("Failed to upsert plan", logger.ErrorField(err), logger.Field("tier", plan.Tier))
		return nil, err
	}
	s.cache.Delete(activePlansKey)

	s.logger.Info("Plan saved", logger.Field("tier", plan.Tier), logger.Field("price_cents", plan.PriceCents))
	return plan, nil
}

// SetActive shows or hides a plan from the public catalog
func (s *planService) SetActive(ctx context.Context, tier string, active bool) error {
	if err := s.planRepo.SetActive(ctx, tier, active); err != nil {
		return err
	}
	s.cache.Delete(activePlansKey)
	return nil
}

// SeedDefaults inserts the default tiers that do not exist yet and returns how many were added
func (s *planService) SeedDefaults(ctx context.Context) (int, error) {
	added := 0
	for _, plan := range domain.DefaultPlans() {
		_, err := s.planRepo.GetByTier(ctx, plan.Tier)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return added, err
		}

		if _, err := s.Upsert(ctx, plan); err != nil {
			return added, fmt.Errorf("failed to seed %s plan: %w", plan.Tier, err)
		}
		added++
	}
	return added, nil
}
