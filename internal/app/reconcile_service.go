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

// ReconcileService re-clamps a user's active schedules after a subscription
// tier change. It runs asynchronously (triggered by a tier-change event, not
// inline with the billing transaction) and is safe to re-run: a second pass
// with no intervening tier change mutates nothing.
type ReconcileService struct {
	scheduleRepo review.ScheduleRepository
	subRepo      subscription.Repository
	policies     review.PolicySet
	logger       *logrus.Logger
	now          func() time.Time
}

func NewReconcileService(
	sr review.ScheduleRepository,
	subs subscription.Repository,
	policies review.PolicySet,
	logger *logrus.Logger,
) *ReconcileService {
	return &ReconcileService{
		scheduleRepo: sr,
		subRepo:      subs,
		policies:     policies,
		logger:       logger,
		now:          time.Now,
	}
}

// HandleTierChange re-clamps every active schedule of the user against the
// new tier's policy. A vanished subscription (race with account deletion) is
// logged and dropped, never raised. Per-schedule persistence failures are
// logged and do not abort the batch.
func (s *ReconcileService) HandleTierChange(ctx context.Context, userID int64) error {
	tier, err := s.subRepo.CurrentTier(ctx, userID)
	if err != nil {
		if err == idb.ErrSubscriptionNotFound {
			s.logger.WithField("user_id", userID).
				Warn("Subscription vanished before reconciliation; dropping event")
			return nil
		}
		return fmt.Errorf("failed to resolve tier for user %d: %w", userID, err)
	}
	pol := s.policies.For(tier)

	scheds, err := s.scheduleRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list active schedules for user %d: %w", userID, err)
	}

	now := s.now()
	changed := 0
	for _, sched := range scheds {
		if !sched.Reconcile(pol, now) {
			continue
		}
		if err := s.scheduleRepo.Update(ctx, sched); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":    userID,
				"content_id": sched.ContentID,
			}).Error("Failed to persist reconciled schedule")
			continue
		}
		changed++
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"tier":    tier,
		"total":   len(scheds),
		"changed": changed,
	}).Info("Tier reconciliation finished")
	return nil
}
