package scheduler

import (
	"context"
	"time"

	"spaced_review_scheduler/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DispatchScheduler drives the notification bucketing dispatcher on a fixed
// hourly cron tick. Ticks are independent: an overrunning tick never blocks
// the next one.
type DispatchScheduler struct {
	cronEngine *cron.Cron
	dispatch   *app.DispatchService
	logger     *logrus.Logger
	cronSpec   string
}

func NewDispatchScheduler(dispatch *app.DispatchService, logger *logrus.Logger, cronSpec string) *DispatchScheduler {
	return &DispatchScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		dispatch:   dispatch,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *DispatchScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		now := time.Now()
		s.logger.WithField("hour", now.Hour()).Info("Dispatch tick started")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		s.dispatch.RunHourlyTick(ctx, now)
		s.logger.WithField("hour", now.Hour()).Info("Dispatch tick finished")
	})
	if err != nil {
		return err
	}
	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Dispatch scheduler started")
	return nil
}

func (s *DispatchScheduler) Stop() {
	s.logger.Info("Stopping dispatch scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done() // wait for a running tick to drain
	s.logger.Info("Dispatch scheduler stopped")
}
