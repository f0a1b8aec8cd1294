package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"spaced_review_scheduler/internal/domain/review"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors specific to the schedule repository.
var ErrScheduleNotFound = fmt.Errorf("schedule not found")
var ErrDuplicateSchedule = fmt.Errorf("schedule for this (user_id, content_id) already exists")

type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

const scheduleColumns = `id, user_id, content_id, interval_index, next_review_date,
	initial_review_completed, is_active, created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (*review.Schedule, error) {
	s := &review.Schedule{}
	err := row.Scan(&s.ID, &s.UserID, &s.ContentID, &s.IntervalIndex, &s.NextReviewDate,
		&s.InitialReviewCompleted, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresScheduleRepository) Create(ctx context.Context, s *review.Schedule) error {
	query := `INSERT INTO schedules (user_id, content_id, interval_index, next_review_date, initial_review_completed, is_active)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.ContentID, s.IntervalIndex, s.NextReviewDate, s.InitialReviewCompleted, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "schedules_user_content_unique") {
			return ErrDuplicateSchedule
		}
		return fmt.Errorf("error creating schedule: %w", err)
	}
	return nil
}

func (r *PostgresScheduleRepository) GetByUserAndContent(ctx context.Context, userID, contentID int64) (*review.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE user_id = $1 AND content_id = $2`
	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, userID, contentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("error getting schedule: %w", err)
	}
	return s, nil
}

// Mutate locks the schedule row, applies fn, and persists interval_index,
// next_review_date, initial_review_completed and is_active in a single
// UPDATE within the same transaction. Concurrent review submissions for the
// same (user, content) pair serialize on the row lock; partial writes are
// never observable.
func (r *PostgresScheduleRepository) Mutate(ctx context.Context, userID, contentID int64, fn func(*review.Schedule) error) (*review.Schedule, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin schedule mutation: %w", err)
	}
	defer txn.Rollback()

	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE user_id = $1 AND content_id = $2 FOR UPDATE`
	s, err := scanSchedule(txn.QueryRowContext(ctx, query, userID, contentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("error locking schedule: %w", err)
	}

	if err := fn(s); err != nil {
		return nil, err
	}
	if s.IntervalIndex < 0 {
		return nil, fmt.Errorf("refusing to persist negative interval_index %d", s.IntervalIndex)
	}

	update := `UPDATE schedules
               SET interval_index = $1, next_review_date = $2, initial_review_completed = $3, is_active = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`
	if err := txn.QueryRowContext(ctx, update,
		s.IntervalIndex, s.NextReviewDate, s.InitialReviewCompleted, s.IsActive, s.ID,
	).Scan(&s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("error updating schedule: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit schedule mutation: %w", err)
	}
	return s, nil
}

// ListDue relies on the (user_id, is_active, next_review_date) index plus
// the partial index on initial_review_completed = FALSE; never-reviewed
// schedules qualify regardless of their precomputed date.
func (r *PostgresScheduleRepository) ListDue(ctx context.Context, userID int64, asOf time.Time, category string) ([]*review.Schedule, error) {
	query := `SELECT s.id, s.user_id, s.content_id, s.interval_index, s.next_review_date,
                      s.initial_review_completed, s.is_active, s.created_at, s.updated_at
               FROM schedules s
               WHERE s.user_id = $1 AND s.is_active = TRUE
                 AND (s.next_review_date <= $2 OR s.initial_review_completed = FALSE)`
	args := []any{userID, asOf}
	if category != "" {
		query += ` AND EXISTS (SELECT 1 FROM contents c WHERE c.id = s.content_id AND c.category = $3)`
		args = append(args, category)
	}
	query += ` ORDER BY s.next_review_date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing due schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]*review.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning due schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due schedules: %w", err)
	}
	return schedules, nil
}

func (r *PostgresScheduleRepository) ListActiveByUser(ctx context.Context, userID int64) ([]*review.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE user_id = $1 AND is_active = TRUE ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing active schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]*review.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning active schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active schedules: %w", err)
	}
	return schedules, nil
}

func (r *PostgresScheduleRepository) Update(ctx context.Context, s *review.Schedule) error {
	query := `UPDATE schedules
               SET interval_index = $1, next_review_date = $2, initial_review_completed = $3, is_active = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.IntervalIndex, s.NextReviewDate, s.InitialReviewCompleted, s.IsActive, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("error updating schedule: %w", err)
	}
	return nil
}

func (r *PostgresScheduleRepository) Deactivate(ctx context.Context, userID, contentID int64) error {
	query := `UPDATE schedules SET is_active = FALSE, updated_at = NOW()
               WHERE user_id = $1 AND content_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, contentID)
	if err != nil {
		return fmt.Errorf("error deactivating schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deactivation result: %w", err)
	}
	if affected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}
