package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/cip-api/internal/service"
)

// Scheduler runs the periodic lifecycle sweep. The sweep itself is idempotent,
// so overlapping or repeated runs are harmless.
type Scheduler struct {
	cron         *cron.Cron
	partnerships *service.PartnershipService
	logger       *zap.Logger
}

// New constructs a Scheduler registering the lifecycle refresh job with the
// provided cron spec (for example "0 15 0 * * *" for a nightly run).
func New(partnerships *service.PartnershipService, refreshSpec string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{cron: c, partnerships: partnerships, logger: logger}
	if _, err := c.AddFunc(refreshSpec, s.refreshLifecycles); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Sugar().Infow("scheduler started")
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Sugar().Infow("scheduler stopped")
}

func (s *Scheduler) refreshLifecycles() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	refreshed, err := s.partnerships.RefreshDueLifecycles(ctx)
	if err != nil {
		s.logger.Error("lifecycle sweep failed", zap.Error(err))
		return
	}
	s.logger.Sugar().Infow("lifecycle sweep finished", "refreshed", refreshed)
}
