package review

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks outcome rejections that are the caller's fault; the
// web layer maps it to a 4xx and nothing is written.
var ErrValidation = errors.New("validation failed")

// Outcome is one completed review action. Rows are append-only: they are
// never mutated or deleted and serve as the audit trail and analytics input.
// The state machine acts only on the outcome just submitted, never on
// history.
type Outcome struct {
	ID               int64
	UserID           int64
	ContentID        int64
	Result           Result
	ReviewDate       time.Time
	TimeSpentSeconds *int
	Notes            string
}

// Validate rejects malformed outcomes before any row is written.
func (o *Outcome) Validate() error {
	if !o.Result.Valid() {
		return fmt.Errorf("%w: result must be one of remembered, partial, forgot; got %q", ErrValidation, o.Result)
	}
	if o.TimeSpentSeconds != nil {
		if *o.TimeSpentSeconds < 0 {
			return fmt.Errorf("%w: time_spent must not be negative", ErrValidation)
		}
		if *o.TimeSpentSeconds > MaxTimeSpentSeconds {
			return fmt.Errorf("%w: time_spent must not exceed %d seconds", ErrValidation, MaxTimeSpentSeconds)
		}
	}
	return nil
}
