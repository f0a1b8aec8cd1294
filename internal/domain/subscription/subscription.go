package subscription

import "strings"

// Tier is the billing level of a user account. It bounds how far apart
// reviews are allowed to drift for that user's schedules.
type Tier string

const (
	TierFree    Tier = "FREE"
	TierBasic   Tier = "BASIC"
	TierPremium Tier = "PREMIUM"
	TierPro     Tier = "PRO"
)

// ParseTier normalizes a raw tier string. Unknown or empty values map to
// FREE so that degraded accounts keep a working (short) review ladder.
func ParseTier(raw string) Tier {
	switch Tier(strings.ToUpper(strings.TrimSpace(raw))) {
	case TierBasic:
		return TierBasic
	case TierPremium:
		return TierPremium
	case TierPro:
		return TierPro
	default:
		return TierFree
	}
}
