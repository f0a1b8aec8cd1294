package notification

import (
	"time"

	"github.com/google/uuid"
)

// Job is one fire-and-forget dispatch submitted to the task queue. The queue
// delivers at least once; the UUID together with (UserID, Kind, BucketDate)
// lets downstream workers deduplicate overlapping ticks if they choose to.
type Job struct {
	ID          uuid.UUID
	UserID      int64
	Kind        Kind
	ScheduleIDs []int64
	BucketDate  time.Time
	CreatedAt   time.Time
}

// NewJob builds a job for one user and bucket. bucketDate is truncated to
// the calendar day by the queue implementation.
func NewJob(userID int64, kind Kind, scheduleIDs []int64, bucketDate time.Time) *Job {
	return &Job{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        kind,
		ScheduleIDs: scheduleIDs,
		BucketDate:  bucketDate,
	}
}
