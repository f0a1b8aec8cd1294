package review

import (
	"time"
)

// Schedule tracks spaced-repetition state for one (user, content) pair.
// Corresponds to the 'schedules' table; unique on (user_id, content_id).
type Schedule struct {
	ID                     int64
	UserID                 int64
	ContentID              int64
	IntervalIndex          int
	NextReviewDate         time.Time
	InitialReviewCompleted bool
	IsActive               bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsDue reports whether the schedule should surface for review at asOf.
// A schedule that has never completed its first review is due
// unconditionally, regardless of NextReviewDate.
func (s *Schedule) IsDue(asOf time.Time) bool {
	if !s.IsActive {
		return false
	}
	if !s.InitialReviewCompleted {
		return true
	}
	return !s.NextReviewDate.After(asOf)
}

// Apply advances the state machine for a submitted review result.
//
//	remembered → move one step up the ladder (stay at the top rung)
//	partial    → hold the current rung
//	forgot     → reset to rung 0
//
// The index is always clamped into the policy's table and under its MaxDays
// ceiling before the date is computed. NextReviewDate is based off now, so
// forward transitions never move the due date backward relative to now.
// Every transition marks the initial review as completed.
func (s *Schedule) Apply(result Result, pol IntervalPolicy, now time.Time) {
	idx := s.IntervalIndex
	switch result {
	case ResultRemembered:
		if idx+1 < len(pol.Table) {
			idx++
		}
	case ResultForgot:
		idx = 0
	case ResultPartial:
		// hold
	}
	idx = pol.clampIndex(idx)

	s.IntervalIndex = idx
	s.NextReviewDate = now.AddDate(0, 0, pol.Table[idx])
	s.InitialReviewCompleted = true
}

// Reconcile re-clamps the schedule against a (possibly new) tier policy and
// reports whether anything changed. Already-due dates are left untouched so
// a tier change never delays a pending review. Future dates keep their
// original elapsed-time position (CreatedAt + interval) when that position
// is still in the future; otherwise they are rebased off now.
func (s *Schedule) Reconcile(pol IntervalPolicy, now time.Time) bool {
	idx := s.IntervalIndex
	if idx < 0 {
		idx = 0
	}
	if idx >= len(pol.Table) {
		idx = len(pol.Table) - 1
	}
	if pol.Table[idx] > pol.MaxDays {
		idx = pol.largestAllowedIndex()
	}

	changed := idx != s.IntervalIndex
	s.IntervalIndex = idx

	if !s.NextReviewDate.After(now) {
		return changed
	}

	interval := pol.Table[idx]
	next := s.CreatedAt.AddDate(0, 0, interval)
	if !next.After(now) {
		next = now.AddDate(0, 0, interval)
	}
	if !next.Equal(s.NextReviewDate) {
		s.NextReviewDate = next
		changed = true
	}
	return changed
}
