package review

import (
	"spaced_review_scheduler/internal/domain/subscription"
)

// IntervalPolicy is the review spacing allowed for one subscription tier:
// an ascending ladder of day-counts plus a ceiling on the effective interval.
// MaxDays may be smaller than the last table entry; the state machine never
// lands on an entry above it.
type IntervalPolicy struct {
	Table   []int
	MaxDays int
}

// PolicySet maps tiers to their interval policies. It is built once at
// startup and injected into the services, so the state machine stays a pure
// function of its inputs.
type PolicySet map[subscription.Tier]IntervalPolicy

// fullLadder is the complete interval progression used by the paid tiers.
// Paid tiers share the ladder and differ only in the MaxDays ceiling.
var fullLadder = []int{1, 3, 7, 14, 30, 60, 120, 180}

// DefaultPolicies returns the standard tier policies.
func DefaultPolicies() PolicySet {
	return PolicySet{
		subscription.TierFree:    {Table: []int{1, 3, 7}, MaxDays: 7},
		subscription.TierBasic:   {Table: fullLadder, MaxDays: 90},
		subscription.TierPremium: {Table: fullLadder, MaxDays: 60},
		subscription.TierPro:     {Table: fullLadder, MaxDays: 180},
	}
}

// For returns the policy for a tier. It is total: unknown tiers fall back to
// the FREE policy so downstream index math never sees an empty table.
func (ps PolicySet) For(tier subscription.Tier) IntervalPolicy {
	if pol, ok := ps[tier]; ok && len(pol.Table) > 0 {
		return pol
	}
	if pol, ok := ps[subscription.TierFree]; ok && len(pol.Table) > 0 {
		return pol
	}
	return IntervalPolicy{Table: []int{1}, MaxDays: 1}
}

// clampIndex forces idx into [0, len(Table)) and then walks backward until
// the entry fits under MaxDays. Index 0 is the floor even when the first
// entry exceeds the ceiling.
func (p IntervalPolicy) clampIndex(idx int) int {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.Table) {
		idx = len(p.Table) - 1
	}
	for idx > 0 && p.Table[idx] > p.MaxDays {
		idx--
	}
	return idx
}

// largestAllowedIndex returns the position of the greatest table entry that
// does not exceed MaxDays, or 0 when no entry fits.
func (p IntervalPolicy) largestAllowedIndex() int {
	for i := len(p.Table) - 1; i > 0; i-- {
		if p.Table[i] <= p.MaxDays {
			return i
		}
	}
	return 0
}
