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

// SignalInput carries the editable fields of a signal
type SignalInput struct {
	Symbol     string
	Direction  string
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Timeframe  string
	Notes      string
	MinTier    string
}

// SignalService publishes signals and serves them to subscribers
type SignalService interface {
	Publish(ctx context.Context, adminID uuid.UUID, in SignalInput) (*domain.Signal, error)
	Update(ctx context.Context, id uuid.UUID, in SignalInput) (*domain.Signal, error)
	Close(ctx context.Context, id uuid.UUID, result string) (*domain.Signal, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Signal, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListVisible(ctx context.Context, userID uuid.UUID, filter domain.SignalFilter) ([]*domain.Signal, error)
	GetVisible(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.Signal, error)
	ListAll(ctx context.Context, filter domain.SignalFilter) ([]*domain.Signal, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Signal, error)
}

// NewSignalService creates a new signal service
func NewSignalService(
	signalRepo domain.SignalRepository,
	subscriptionRepo domain.SubscriptionRepository,
	publisher domain.RealtimePublisher,
	log *logger.Logger,
) SignalService {
	return &signalService{
		signalRepo:       signalRepo,
		subscriptionRepo: subscriptionRepo,
		publisher:        publisher,
		logger:           log,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

type signalService struct {
	signalRepo       domain.SignalRepository
	subscriptionRepo domain.SubscriptionRepository
	publisher        domain.RealtimePublisher
	logger           *logger.Logger
	now              func() time.Time
}

func (in SignalInput) apply(sig *domain.Signal) {
	sig.Symbol = in.Symbol
	sig.Direction = strings.ToUpper(strings.TrimSpace(in.Direction))
	sig.EntryPrice = in.EntryPrice
	sig.StopLoss = in.StopLoss
	sig.TakeProfit = in.TakeProfit
	sig.Timeframe = strings.TrimSpace(in.Timeframe)
	sig.Notes = strings.TrimSpace(in.Notes)
	sig.MinTier = strings.ToLower(strings.TrimSpace(in.MinTier))
}

func (s *signalService) Publish(ctx context.Context, adminID uuid.UUID, in SignalInput) (*domain.Signal, error) {
	now := s.now()
	sig := &domain.Signal{
		ID:        uuid.New(),
		Status:    domain.SignalActive,
		CreatedBy: adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(sig)
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	if err := s.signalRepo.Create(ctx, sig); err != nil {
		s.logger.Error("Failed to save signal", logger.ErrorField(err), logger.Field("symbol", sig.Symbol))
		return nil, err
	}

	metrics.RecordSignalPublished(sig.MinTier)
	s.logger.Info("Signal published",
		logger.Field("signal_id", sig.ID),
		logger.Field("symbol", sig.Symbol),
		logger.Field("direction", sig.Direction),
		logger.Field("min_tier", sig.MinTier),
	)
	s.broadcast(ctx, domain.EventSignalPublished, sig)
	return sig, nil
}

func (s *signalService) Update(ctx context.Context, id uuid.UUID, in SignalInput) (*domain.Signal, error) {
	sig, err := s.activeSignal(ctx, id)
	if err != nil {
		return nil, err
	}

	in.apply(sig)
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	if err := s.signalRepo.Update(ctx, sig); err != nil {
		return nil, err
	}

	s.broadcast(ctx, domain.EventSignalUpdated, sig)
	return sig, nil
}

func (s *signalService) Close(ctx context.Context, id uuid.UUID, result string) (*domain.Signal, error) {
	result = strings.ToUpper(strings.TrimSpace(result))
	if !domain.IsValidResult(result) {
		return nil, fmt.Errorf("%w: result must be WIN, LOSS or BREAKEVEN", domain.ErrInvalidInput)
	}

	sig, err := s.activeSignal(ctx, id)
	if err != nil {
		return nil, err
	}

	closedAt := s.now()
	sig.Status = domain.SignalClosed
	sig.Result = &result
	sig.ClosedAt = &closedAt
	if err := s.signalRepo.Update(ctx, sig); err != nil {
		return nil, err
	}

	s.logger.Info("Signal closed", logger.Field("signal_id", sig.ID), logger.Field("result", result))
	s.broadcast(ctx, domain.EventSignalClosed, sig)
	return sig, nil
}

func (s *signalService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	sig, err := s.activeSignal(ctx, id)
	if err != nil {
		return nil, err
	}

	closedAt := s.now()
	sig.Status = domain.SignalCancelled
	sig.ClosedAt = &closedAt
	if err := s.signalRepo.Update(ctx, sig); err != nil {
		return nil, err
	}

	s.broadcast(ctx, domain.EventSignalCancelled, sig)
	return sig, nil
}

func (s *signalService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.signalRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Signal deleted", logger.Field("signal_id", id))
	return nil
}

// activeSignal loads a signal that can still be edited
func (s *signalService) activeSignal(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	sig, err := s.signalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sig.Status != domain.SignalActive {
		return nil, fmt.Errorf("%w: signal is %s", domain.ErrInvalidInput, sig.Status)
	}
	return sig, nil
}

// ListVisible returns the signals userID's subscription can read
func (s *signalService) ListVisible(ctx context.Context, userID uuid.UUID, filter domain.SignalFilter) ([]*domain.Signal, error) {
	tiers, err := s.readableTiers(ctx, userID)
	if err != nil {
		return nil, err
	}
	filter.Normalize()
	return s.signalRepo.ListVisible(ctx, userID, tiers, filter)
}

func (s *signalService) GetVisible(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.Signal, error) {
	tiers, err := s.readableTiers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.signalRepo.GetVisible(ctx, userID, tiers, id)
}

func (s *signalService) readableTiers(ctx context.Context, userID uuid.UUID) ([]string, error) {
	sub, err := s.subscriptionRepo.GetActiveByUser(ctx, userID, s.now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrSubscriptionRequired
	}
	if err != nil {
		return nil, err
	}
	return domain.TiersUpTo(sub.PlanTier), nil
}

func (s *signalService) ListAll(ctx context.Context, filter domain.SignalFilter) ([]*domain.Signal, error) {
	filter.Normalize()
	return s.signalRepo.List(ctx, filter)
}

func (s *signalService) Get(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	return s.signalRepo.GetByID(ctx, id)
}

// broadcast sends the event to every tier topic allowed to read sig
func (s *signalService) broadcast(ctx context.Context, eventType string, sig *domain.Signal) {
	event := domain.Event{Type: eventType, Data: sig}
	for _, tier := range domain.TiersFrom(sig.MinTier) {
		if err := s.publisher.Publish(ctx, domain.SignalTopic(tier), event); err != nil {
			s.logger.Warn("Failed to broadcast signal event",
				logger.ErrorField(err),
				logger.Field("signal_id", sig.ID),
				logger.Field("tier", tier),
			)
		}
	}
}
