package queue

import (
	"context"
	"database/sql"
	"fmt"

	"spaced_review_scheduler/internal/domain/notification"

	"github.com/lib/pq" // pq.Array and driver registration
)

// PostgresQueue submits dispatch jobs into a relational outbox table.
// External delivery workers poll and delete rows, giving at-least-once
// semantics; the job UUID plus (user_id, kind, bucket_date) is the
// deduplication handle on their side.
type PostgresQueue struct {
	db *sql.DB
}

func NewPostgresQueue(db *sql.DB) *PostgresQueue {
	return &PostgresQueue{db: db}
}

func (q *PostgresQueue) Enqueue(ctx context.Context, job *notification.Job) error {
	query := `INSERT INTO dispatch_jobs (id, user_id, kind, schedule_ids, bucket_date)
               VALUES ($1, $2, $3, $4, $5::date)
               RETURNING created_at`
	err := q.db.QueryRowContext(ctx, query,
		job.ID, job.UserID, job.Kind, pq.Array(job.ScheduleIDs), job.BucketDate,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("error enqueueing dispatch job: %w", err)
	}
	return nil
}
