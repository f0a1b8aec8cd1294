package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spaced_review_scheduler/internal/domain/review"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type PostgresOutcomeRepository struct {
	db *sql.DB
}

func NewPostgresOutcomeRepository(db *sql.DB) *PostgresOutcomeRepository {
	return &PostgresOutcomeRepository{db: db}
}

// Create appends one review outcome. review_date is assigned by the
// database at insert time and is immutable afterwards.
func (r *PostgresOutcomeRepository) Create(ctx context.Context, o *review.Outcome) error {
	query := `INSERT INTO review_outcomes (user_id, content_id, result, time_spent_seconds, notes)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, review_date`
	var timeSpent sql.NullInt64
	if o.TimeSpentSeconds != nil {
		timeSpent = sql.NullInt64{Int64: int64(*o.TimeSpentSeconds), Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		o.UserID, o.ContentID, o.Result, timeSpent, o.Notes,
	).Scan(&o.ID, &o.ReviewDate)
	if err != nil {
		return fmt.Errorf("error creating review outcome: %w", err)
	}
	return nil
}

// ContentIDsReviewedOn returns the set of content IDs the user reviewed on
// the calendar day containing day.
func (r *PostgresOutcomeRepository) ContentIDsReviewedOn(ctx context.Context, userID int64, day time.Time) (map[int64]bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `SELECT DISTINCT content_id FROM review_outcomes
               WHERE user_id = $1 AND review_date >= $2 AND review_date < $3`
	rows, err := r.db.QueryContext(ctx, query, userID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("error listing reviewed content: %w", err)
	}
	defer rows.Close()

	reviewed := make(map[int64]bool)
	for rows.Next() {
		var contentID int64
		if err := rows.Scan(&contentID); err != nil {
			return nil, fmt.Errorf("error scanning reviewed content: %w", err)
		}
		reviewed[contentID] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviewed content: %w", err)
	}
	return reviewed, nil
}
