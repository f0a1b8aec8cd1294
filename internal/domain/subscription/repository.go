package subscription

import "context"

// Repository exposes read access to the billing service's subscription rows.
type Repository interface {
	// CurrentTier returns the active tier for the user. Implementations
	// return a not-found error when the subscription row is missing.
	CurrentTier(ctx context.Context, userID int64) (Tier, error)
}
