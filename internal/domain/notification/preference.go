package notification

import "time"

// Kind identifies which reminder bucket a dispatch job belongs to.
type Kind string

const (
	KindDaily         Kind = "DAILY_REMINDER"
	KindEvening       Kind = "EVENING_REMINDER"
	KindWeeklySummary Kind = "WEEKLY_SUMMARY"
)

// Preferences holds a user's notification settings. Hours are 0-23 in the
// dispatcher's clock. The unsubscribe token is an opaque value embedded in
// outgoing mail by the delivery workers.
type Preferences struct {
	UserID           int64
	DailyEnabled     bool
	DailyHour        int
	EveningEnabled   bool
	EveningHour      int
	WeeklyEnabled    bool
	WeeklyHour       int
	UnsubscribeToken string
	UpdatedAt        time.Time
}
