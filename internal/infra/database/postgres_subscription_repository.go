package database

import (
	"context"
	"database/sql"
	"fmt"

	"spaced_review_scheduler/internal/domain/subscription"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var ErrSubscriptionNotFound = fmt.Errorf("subscription not found")

// PostgresSubscriptionRepository reads the billing service's subscription
// rows. This side never writes them.
type PostgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) CurrentTier(ctx context.Context, userID int64) (subscription.Tier, error) {
	query := `SELECT tier FROM subscriptions WHERE user_id = $1`
	var raw string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrSubscriptionNotFound
		}
		return "", fmt.Errorf("error getting subscription tier: %w", err)
	}
	return subscription.ParseTier(raw), nil
}
