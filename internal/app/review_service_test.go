package app

import (
	"context"
	"testing"
	"time"

	"spaced_review_scheduler/internal/domain/review"
	"spaced_review_scheduler/internal/domain/subscription"
	idb "spaced_review_scheduler/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) // a Monday

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newReviewFixture(tier subscription.Tier) (*ReviewService, *fakeScheduleRepo, *fakeOutcomeRepo) {
	schedRepo := newFakeScheduleRepo()
	outcomeRepo := &fakeOutcomeRepo{}
	subs := &fakeSubscriptionRepo{tiers: map[int64]subscription.Tier{1: tier}}
	svc := NewReviewService(schedRepo, outcomeRepo, subs, review.DefaultPolicies(), quietLogger())
	svc.now = func() time.Time { return testNow }
	return svc, schedRepo, outcomeRepo
}

func intPtr(v int) *int { return &v }

func TestCreateSchedule(t *testing.T) {
	svc, _, _ := newReviewFixture(subscription.TierPro)

	sched, err := svc.CreateSchedule(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 0, sched.IntervalIndex)
	assert.False(t, sched.InitialReviewCompleted)
	assert.True(t, sched.IsActive)
	assert.Equal(t, testNow.AddDate(0, 0, 1), sched.NextReviewDate)

	_, err = svc.CreateSchedule(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrScheduleAlreadyExists)
}

func TestCompleteReviewAdvancesAndRecords(t *testing.T) {
	svc, schedRepo, outcomeRepo := newReviewFixture(subscription.TierPro)
	schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 10, IntervalIndex: 2,
		NextReviewDate: testNow.AddDate(0, 0, -1),
		IsActive:       true, InitialReviewCompleted: true,
		CreatedAt: testNow.AddDate(0, 0, -30),
	})

	sched, err := svc.CompleteReview(context.Background(), 1, 10, review.ResultRemembered, intPtr(45), "")
	require.NoError(t, err)

	assert.Equal(t, 3, sched.IntervalIndex)
	assert.Equal(t, testNow.AddDate(0, 0, 14), sched.NextReviewDate)
	require.Len(t, outcomeRepo.outcomes, 1)
	assert.Equal(t, review.ResultRemembered, outcomeRepo.outcomes[0].Result)
}

func TestCompleteReviewFirstEverMarksInitial(t *testing.T) {
	svc, schedRepo, _ := newReviewFixture(subscription.TierFree)
	schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 10,
		NextReviewDate: testNow.AddDate(0, 0, 1),
		IsActive:       true,
	})

	sched, err := svc.CompleteReview(context.Background(), 1, 10, review.ResultForgot, nil, "")
	require.NoError(t, err)

	assert.True(t, sched.InitialReviewCompleted)
	assert.Equal(t, 0, sched.IntervalIndex)
	assert.Equal(t, testNow.AddDate(0, 0, 1), sched.NextReviewDate)
}

func TestCompleteReviewValidationRejectedBeforeAnyWrite(t *testing.T) {
	svc, schedRepo, outcomeRepo := newReviewFixture(subscription.TierPro)
	orig := schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 10, IntervalIndex: 2,
		NextReviewDate: testNow.AddDate(0, 0, -1),
		IsActive:       true, InitialReviewCompleted: true,
	})
	snapshot := *orig

	_, err := svc.CompleteReview(context.Background(), 1, 10, review.Result("guessed"), nil, "")
	assert.ErrorIs(t, err, review.ErrValidation)

	_, err = svc.CompleteReview(context.Background(), 1, 10, review.ResultRemembered, intPtr(90000), "")
	assert.ErrorIs(t, err, review.ErrValidation)

	assert.Empty(t, outcomeRepo.outcomes, "no outcome rows on validation failure")
	assert.Equal(t, snapshot, *orig, "schedule state must be untouched")
}

func TestCompleteReviewUnknownSchedule(t *testing.T) {
	svc, _, _ := newReviewFixture(subscription.TierPro)

	_, err := svc.CompleteReview(context.Background(), 1, 99, review.ResultRemembered, nil, "")
	assert.ErrorIs(t, err, idb.ErrScheduleNotFound)
}

func TestCompleteReviewInactiveSchedule(t *testing.T) {
	svc, schedRepo, _ := newReviewFixture(subscription.TierPro)
	schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 10, IsActive: false,
		NextReviewDate: testNow.AddDate(0, 0, -1),
	})

	_, err := svc.CompleteReview(context.Background(), 1, 10, review.ResultRemembered, nil, "")
	assert.ErrorIs(t, err, ErrScheduleInactive)
}

func TestCompleteReviewFailureLeavesNoOutcome(t *testing.T) {
	svc, schedRepo, outcomeRepo := newReviewFixture(subscription.TierPro)
	schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 10, IsActive: false,
		NextReviewDate: testNow.AddDate(0, 0, -1),
	})

	_, err := svc.CompleteReview(context.Background(), 1, 99, review.ResultRemembered, nil, "")
	assert.ErrorIs(t, err, idb.ErrScheduleNotFound)

	_, err = svc.CompleteReview(context.Background(), 1, 10, review.ResultRemembered, nil, "")
	assert.ErrorIs(t, err, ErrScheduleInactive)

	// A failed completion must not be counted as a review: a stray outcome
	// row would suppress the evening reminder for content never reviewed.
	assert.Empty(t, outcomeRepo.outcomes, "no outcome rows on failed completion")
}

func TestCompleteReviewMissingSubscriptionFallsBackToFree(t *testing.T) {
	svc, schedRepo, _ := newReviewFixture(subscription.TierPro)
	// user 2 has no subscription row
	schedRepo.add(&review.Schedule{
		UserID: 2, ContentID: 10, IntervalIndex: 2,
		NextReviewDate: testNow.AddDate(0, 0, -1),
		IsActive:       true, InitialReviewCompleted: true,
	})

	sched, err := svc.CompleteReview(context.Background(), 2, 10, review.ResultRemembered, nil, "")
	require.NoError(t, err)

	// FREE table [1,3,7]: index 2 is the top rung.
	assert.Equal(t, 2, sched.IntervalIndex)
	assert.Equal(t, testNow.AddDate(0, 0, 7), sched.NextReviewDate)
}

func TestTodayReviews(t *testing.T) {
	svc, schedRepo, _ := newReviewFixture(subscription.TierPro)
	due := schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 10,
		NextReviewDate: testNow.AddDate(0, 0, -2),
		IsActive:       true, InitialReviewCompleted: true,
	})
	neverReviewed := schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 11,
		NextReviewDate: testNow.AddDate(0, 0, 30),
		IsActive:       true,
	})
	schedRepo.add(&review.Schedule{ // future, not due
		UserID: 1, ContentID: 12,
		NextReviewDate: testNow.AddDate(0, 0, 5),
		IsActive:       true, InitialReviewCompleted: true,
	})
	schedRepo.add(&review.Schedule{ // inactive
		UserID: 1, ContentID: 13,
		NextReviewDate: testNow.AddDate(0, 0, -5),
		IsActive:       false, InitialReviewCompleted: true,
	})

	scheds, err := svc.TodayReviews(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, scheds, 2)
	assert.Equal(t, due.ID, scheds[0].ID, "sorted by next_review_date ascending")
	assert.Equal(t, neverReviewed.ID, scheds[1].ID,
		"never-reviewed schedule is due despite its future date")
}

func TestTodayReviewsCategoryFilter(t *testing.T) {
	svc, schedRepo, _ := newReviewFixture(subscription.TierPro)
	schedRepo.categories[10] = "history"
	schedRepo.categories[11] = "math"
	schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 10,
		NextReviewDate: testNow.AddDate(0, 0, -1),
		IsActive:       true, InitialReviewCompleted: true,
	})
	schedRepo.add(&review.Schedule{
		UserID: 1, ContentID: 11,
		NextReviewDate: testNow.AddDate(0, 0, -1),
		IsActive:       true, InitialReviewCompleted: true,
	})

	scheds, err := svc.TodayReviews(context.Background(), 1, "math")
	require.NoError(t, err)
	require.Len(t, scheds, 1)
	assert.Equal(t, int64(11), scheds[0].ContentID)
}

func TestDeactivateSchedule(t *testing.T) {
	svc, schedRepo, _ := newReviewFixture(subscription.TierPro)
	s := schedRepo.add(&review.Schedule{UserID: 1, ContentID: 10, IsActive: true})

	require.NoError(t, svc.DeactivateSchedule(context.Background(), 1, 10))
	assert.False(t, s.IsActive)

	assert.ErrorIs(t, svc.DeactivateSchedule(context.Background(), 1, 99), idb.ErrScheduleNotFound)
}
