package notification

import "context"

// PreferenceRepository defines access to per-user notification settings.
type PreferenceRepository interface {
	GetByUser(ctx context.Context, userID int64) (*Preferences, error)
	Upsert(ctx context.Context, p *Preferences) error

	// ListByHour returns preferences of users who enabled the given kind
	// with its configured hour equal to hour.
	ListByHour(ctx context.Context, kind Kind, hour int) ([]*Preferences, error)
}

// Queue accepts dispatch jobs for external delivery workers. Enqueue is the
// full extent of this system's delivery responsibility.
type Queue interface {
	Enqueue(ctx context.Context, job *Job) error
}
