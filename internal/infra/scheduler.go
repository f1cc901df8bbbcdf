package infra

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"signaldesk/pkg/logger"
)

// SubscriptionExpirer is the job the scheduler runs on every sweep
type SubscriptionExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	expirer SubscriptionExpirer
	timeout time.Duration
	logger  *logger.Logger
}

// NewScheduler creates a new scheduler running the expiry sweep on spec (standard 5-field cron)
func NewScheduler(spec string, expirer SubscriptionExpirer, log *logger.Logger) *Scheduler {
	if spec == "" {
		spec = "*/5 * * * *"
	}
	return &Scheduler{
		cron:    cron.New(),
		spec:    spec,
		expirer: expirer,
		timeout: time.Minute,
		logger:  log,
	}
}

// Start registers the sweep and starts the cron loop
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler", logger.Field("expiry_sweep", s.spec))

	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunNow(); err != nil {
			s.logger.Error("Scheduled subscription sweep failed", logger.ErrorField(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// RunNow runs one sweep synchronously and returns the number of expired subscriptions
func (s *Scheduler) RunNow() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.expirer.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired subscriptions", logger.Field("count", n))
	}
	return n, nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
