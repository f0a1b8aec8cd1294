package database

import (
	"context"
	"database/sql"
	"fmt"

	"spaced_review_scheduler/internal/domain/notification"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

var ErrPreferencesNotFound = fmt.Errorf("notification preferences not found")

type PostgresPreferenceRepository struct {
	db *sql.DB
}

func NewPostgresPreferenceRepository(db *sql.DB) *PostgresPreferenceRepository {
	return &PostgresPreferenceRepository{db: db}
}

const preferenceColumns = `user_id, daily_enabled, daily_hour, evening_enabled, evening_hour,
	weekly_enabled, weekly_hour, unsubscribe_token, updated_at`

func scanPreferences(row interface{ Scan(...any) error }) (*notification.Preferences, error) {
	p := &notification.Preferences{}
	err := row.Scan(&p.UserID, &p.DailyEnabled, &p.DailyHour, &p.EveningEnabled, &p.EveningHour,
		&p.WeeklyEnabled, &p.WeeklyHour, &p.UnsubscribeToken, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresPreferenceRepository) GetByUser(ctx context.Context, userID int64) (*notification.Preferences, error) {
	query := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE user_id = $1`
	p, err := scanPreferences(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("error getting notification preferences: %w", err)
	}
	return p, nil
}

// Upsert writes the user's preferences, generating an unsubscribe token on
// first insert. The token survives later updates.
func (r *PostgresPreferenceRepository) Upsert(ctx context.Context, p *notification.Preferences) error {
	if p.UnsubscribeToken == "" {
		p.UnsubscribeToken = uuid.NewString()
	}
	query := `INSERT INTO notification_preferences
               (user_id, daily_enabled, daily_hour, evening_enabled, evening_hour, weekly_enabled, weekly_hour, unsubscribe_token)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               ON CONFLICT (user_id) DO UPDATE SET
                 daily_enabled = EXCLUDED.daily_enabled,
                 daily_hour = EXCLUDED.daily_hour,
                 evening_enabled = EXCLUDED.evening_enabled,
                 evening_hour = EXCLUDED.evening_hour,
                 weekly_enabled = EXCLUDED.weekly_enabled,
                 weekly_hour = EXCLUDED.weekly_hour,
                 updated_at = NOW()
               RETURNING unsubscribe_token, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.DailyEnabled, p.DailyHour, p.EveningEnabled, p.EveningHour,
		p.WeeklyEnabled, p.WeeklyHour, p.UnsubscribeToken,
	).Scan(&p.UnsubscribeToken, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting notification preferences: %w", err)
	}
	return nil
}

func (r *PostgresPreferenceRepository) ListByHour(ctx context.Context, kind notification.Kind, hour int) ([]*notification.Preferences, error) {
	var predicate string
	switch kind {
	case notification.KindDaily:
		predicate = `daily_enabled = TRUE AND daily_hour = $1`
	case notification.KindEvening:
		predicate = `evening_enabled = TRUE AND evening_hour = $1`
	case notification.KindWeeklySummary:
		predicate = `weekly_enabled = TRUE AND weekly_hour = $1`
	default:
		return nil, fmt.Errorf("unknown notification kind: %s", kind)
	}

	query := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE ` + predicate + ` ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, hour)
	if err != nil {
		return nil, fmt.Errorf("error listing preferences by hour: %w", err)
	}
	defer rows.Close()

	prefs := make([]*notification.Preferences, 0)
	for rows.Next() {
		p, err := scanPreferences(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning preferences: %w", err)
		}
		prefs = append(prefs, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return prefs, nil
}
