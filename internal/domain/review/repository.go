package review

import (
	"context"
	"time"
)

// ScheduleRepository defines persistence operations for Schedule rows.
type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByUserAndContent(ctx context.Context, userID, contentID int64) (*Schedule, error)

	// Mutate runs fn against the current row under a row lock and persists
	// the result in the same transaction. Index and date land in one atomic
	// update; concurrent submissions for the same pair serialize on the
	// lock.
	Mutate(ctx context.Context, userID, contentID int64, fn func(*Schedule) error) (*Schedule, error)

	// ListDue returns active schedules with next_review_date <= asOf or with
	// the initial review still pending, ordered by next_review_date
	// ascending. An empty category matches all content.
	ListDue(ctx context.Context, userID int64, asOf time.Time, category string) ([]*Schedule, error)

	ListActiveByUser(ctx context.Context, userID int64) ([]*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Deactivate(ctx context.Context, userID, contentID int64) error
}

// OutcomeRepository defines persistence operations for the append-only
// review history.
type OutcomeRepository interface {
	Create(ctx context.Context, o *Outcome) error

	// ContentIDsReviewedOn returns the content IDs the user reviewed on the
	// calendar day containing day, in the day's location.
	ContentIDsReviewedOn(ctx context.Context, userID int64, day time.Time) (map[int64]bool, error)
}
