package app

import (
	"context"
	"fmt"
	"time"

	"spaced_review_scheduler/internal/domain/review"
	"spaced_review_scheduler/internal/domain/subscription"
	idb "spaced_review_scheduler/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the review service.
var ErrScheduleAlreadyExists = fmt.Errorf("schedule for this user and content already exists")
var ErrScheduleInactive = fmt.Errorf("schedule is inactive")

// ReviewService owns the synchronous schedule operations: the content
// lifecycle hook, review completion, and due-review selection.
type ReviewService struct {
	scheduleRepo review.ScheduleRepository
	outcomeRepo  review.OutcomeRepository
	subRepo      subscription.Repository
	policies     review.PolicySet
	logger       *logrus.Logger
	now          func() time.Time
}

func NewReviewService(
	sr review.ScheduleRepository,
	or review.OutcomeRepository,
	subs subscription.Repository,
	policies review.PolicySet,
	logger *logrus.Logger,
) *ReviewService {
	return &ReviewService{
		scheduleRepo: sr,
		outcomeRepo:  or,
		subRepo:      subs,
		policies:     policies,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateSchedule is the content-creation hook: one schedule per
// (user, content) pair, starting at the bottom of the user's ladder with the
// initial review still pending.
func (s *ReviewService) CreateSchedule(ctx context.Context, userID, contentID int64) (*review.Schedule, error) {
	_, err := s.scheduleRepo.GetByUserAndContent(ctx, userID, contentID)
	if err == nil {
		return nil, ErrScheduleAlreadyExists
	}
	if err != idb.ErrScheduleNotFound {
		return nil, fmt.Errorf("failed to check existing schedule: %w", err)
	}

	pol := s.policies.For(s.currentTier(ctx, userID))
	now := s.now()
	sched := &review.Schedule{
		UserID:         userID,
		ContentID:      contentID,
		IntervalIndex:  0,
		NextReviewDate: now.AddDate(0, 0, pol.Table[0]),
		IsActive:       true,
	}
	if err := s.scheduleRepo.Create(ctx, sched); err != nil {
		if err == idb.ErrDuplicateSchedule {
			return nil, ErrScheduleAlreadyExists
		}
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "content_id": contentID}).
		Info("Schedule created")
	return sched, nil
}

// CompleteReview records one review outcome and advances the schedule state
// machine under the user's current tier policy. Validation failures are
// returned before anything is written; the schedule row itself is updated in
// a single atomic mutation (index and date together).
func (s *ReviewService) CompleteReview(ctx context.Context, userID, contentID int64, result review.Result, timeSpent *int, notes string) (*review.Schedule, error) {
	outcome := &review.Outcome{
		UserID:           userID,
		ContentID:        contentID,
		Result:           result,
		TimeSpentSeconds: timeSpent,
		Notes:            notes,
	}
	if err := outcome.Validate(); err != nil {
		return nil, err
	}

	// Verify the schedule before touching the audit trail: a failed
	// completion must not leave a dangling outcome row behind, or the
	// evening bucket would treat the content as reviewed today.
	existing, err := s.scheduleRepo.GetByUserAndContent(ctx, userID, contentID)
	if err != nil {
		if err == idb.ErrScheduleNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if !existing.IsActive {
		return nil, ErrScheduleInactive
	}

	pol := s.policies.For(s.currentTier(ctx, userID))
	now := s.now()

	if err := s.outcomeRepo.Create(ctx, outcome); err != nil {
		return nil, fmt.Errorf("failed to record review outcome: %w", err)
	}

	sched, err := s.scheduleRepo.Mutate(ctx, userID, contentID, func(sc *review.Schedule) error {
		if !sc.IsActive {
			return ErrScheduleInactive
		}
		sc.Apply(result, pol, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"content_id":  contentID,
		"result":      result,
		"interval":    pol.Table[sched.IntervalIndex],
		"next_review": sched.NextReviewDate.Format("2006-01-02"),
	}).Info("Review completed")
	return sched, nil
}

// TodayReviews returns the user's due schedules as of now, sorted by
// next_review_date ascending. category narrows by the owning content's
// category; empty matches everything.
func (s *ReviewService) TodayReviews(ctx context.Context, userID int64, category string) ([]*review.Schedule, error) {
	scheds, err := s.scheduleRepo.ListDue(ctx, userID, s.now(), category)
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	return scheds, nil
}

// DeactivateSchedule soft-disables a schedule, removing it from due
// selection and notification bucketing without discarding its progress.
func (s *ReviewService) DeactivateSchedule(ctx context.Context, userID, contentID int64) error {
	if err := s.scheduleRepo.Deactivate(ctx, userID, contentID); err != nil {
		if err == idb.ErrScheduleNotFound {
			return err
		}
		return fmt.Errorf("failed to deactivate schedule: %w", err)
	}
	return nil
}

// currentTier resolves the user's tier, falling back to FREE when the
// subscription row is unavailable. Policy lookup is total either way.
func (s *ReviewService) currentTier(ctx context.Context, userID int64) subscription.Tier {
	tier, err := s.subRepo.CurrentTier(ctx, userID)
	if err != nil {
		if err != idb.ErrSubscriptionNotFound {
			s.logger.WithError(err).WithField("user_id", userID).
				Warn("Could not resolve subscription tier, using FREE")
		}
		return subscription.TierFree
	}
	return tier
}
