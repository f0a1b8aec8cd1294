package app

import (
	"context"
	"time"

	"spaced_review_scheduler/internal/domain/notification"
	"spaced_review_scheduler/internal/domain/review"

	"github.com/sirupsen/logrus"
)

// DispatchService groups due schedules into per-user notification jobs on an
// hourly tick. Its responsibility ends at enqueueing: delivery is owned by
// external workers draining the task queue.
type DispatchService struct {
	scheduleRepo   review.ScheduleRepository
	outcomeRepo    review.OutcomeRepository
	prefRepo       notification.PreferenceRepository
	queue          notification.Queue
	logger         *logrus.Logger
	summaryWeekday time.Weekday
	maxAttempts    int
	retryDelay     time.Duration
}

func NewDispatchService(
	sr review.ScheduleRepository,
	or review.OutcomeRepository,
	pr notification.PreferenceRepository,
	queue notification.Queue,
	logger *logrus.Logger,
	summaryWeekday time.Weekday,
	maxAttempts int,
	retryDelay time.Duration,
) *DispatchService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DispatchService{
		scheduleRepo:   sr,
		outcomeRepo:    or,
		prefRepo:       pr,
		queue:          queue,
		logger:         logger,
		summaryWeekday: summaryWeekday,
		maxAttempts:    maxAttempts,
		retryDelay:     retryDelay,
	}
}

// RunHourlyTick evaluates all three buckets for the hour containing now.
// Ticks are idempotent over the due predicate: an overlapping run produces
// at most duplicate jobs, never lost ones. Errors never propagate to the
// cron invoker; each user is processed independently.
func (s *DispatchService) RunHourlyTick(ctx context.Context, now time.Time) {
	hour := now.Hour()
	s.dispatchDaily(ctx, now, hour)
	s.dispatchEvening(ctx, now, hour)
	if now.Weekday() == s.summaryWeekday {
		s.dispatchWeekly(ctx, now, hour)
	}
}

// dispatchDaily emits one job per user whose daily reminder hour matches and
// who has at least one due schedule. Users with nothing due produce no job.
func (s *DispatchService) dispatchDaily(ctx context.Context, now time.Time, hour int) {
	prefs, err := s.prefRepo.ListByHour(ctx, notification.KindDaily, hour)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list daily reminder preferences")
		return
	}
	for _, p := range prefs {
		due, err := s.scheduleRepo.ListDue(ctx, p.UserID, now, "")
		if err != nil {
			s.logger.WithError(err).WithField("user_id", p.UserID).
				Error("Failed to list due schedules for daily reminder")
			continue
		}
		if len(due) == 0 {
			continue
		}
		s.enqueueWithRetry(ctx, notification.NewJob(p.UserID, notification.KindDaily, scheduleIDs(due), now))
	}
}

// dispatchEvening is the daily selection minus schedules whose content was
// already reviewed today.
func (s *DispatchService) dispatchEvening(ctx context.Context, now time.Time, hour int) {
	prefs, err := s.prefRepo.ListByHour(ctx, notification.KindEvening, hour)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list evening reminder preferences")
		return
	}
	for _, p := range prefs {
		due, err := s.scheduleRepo.ListDue(ctx, p.UserID, now, "")
		if err != nil {
			s.logger.WithError(err).WithField("user_id", p.UserID).
				Error("Failed to list due schedules for evening reminder")
			continue
		}
		reviewed, err := s.outcomeRepo.ContentIDsReviewedOn(ctx, p.UserID, now)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", p.UserID).
				Error("Failed to list today's reviewed content for evening reminder")
			continue
		}
		var pending []*review.Schedule
		for _, sched := range due {
			if !reviewed[sched.ContentID] {
				pending = append(pending, sched)
			}
		}
		if len(pending) == 0 {
			continue
		}
		s.enqueueWithRetry(ctx, notification.NewJob(p.UserID, notification.KindEvening, scheduleIDs(pending), now))
	}
}

// dispatchWeekly fires for every user whose summary hour matches, regardless
// of due-schedule state: the summary always goes out when enabled.
func (s *DispatchService) dispatchWeekly(ctx context.Context, now time.Time, hour int) {
	prefs, err := s.prefRepo.ListByHour(ctx, notification.KindWeeklySummary, hour)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list weekly summary preferences")
		return
	}
	for _, p := range prefs {
		s.enqueueWithRetry(ctx, notification.NewJob(p.UserID, notification.KindWeeklySummary, nil, now))
	}
}

// enqueueWithRetry submits a job with a bounded number of attempts and a
// fixed delay between them. After the last failure the job is dropped and
// logged; one user's failure never blocks the rest of the tick.
func (s *DispatchService) enqueueWithRetry(ctx context.Context, job *notification.Job) {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.queue.Enqueue(ctx, job)
		if err == nil {
			s.logger.WithFields(logrus.Fields{
				"job_id":    job.ID,
				"user_id":   job.UserID,
				"kind":      job.Kind,
				"schedules": len(job.ScheduleIDs),
			}).Info("Dispatch job enqueued")
			return
		}
		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			s.logger.WithField("job_id", job.ID).Warn("Context cancelled during enqueue retry")
			return
		case <-time.After(s.retryDelay):
		}
	}
	s.logger.WithError(err).WithFields(logrus.Fields{
		"job_id":   job.ID,
		"user_id":  job.UserID,
		"kind":     job.Kind,
		"attempts": s.maxAttempts,
	}).Error("Dropping dispatch job after exhausting enqueue retries")
}

func scheduleIDs(scheds []*review.Schedule) []int64 {
	ids := make([]int64, 0, len(scheds))
	for _, sched := range scheds {
		ids = append(ids, sched.ID)
	}
	return ids
}
