package app

import (
	"context"
	"sort"
	"time"

	"spaced_review_scheduler/internal/domain/notification"
	"spaced_review_scheduler/internal/domain/review"
	"spaced_review_scheduler/internal/domain/subscription"
	idb "spaced_review_scheduler/internal/infra/database"
)

type pairKey struct{ user, content int64 }

type fakeScheduleRepo struct {
	nextID      int64
	byPair      map[pairKey]*review.Schedule
	categories  map[int64]string // content_id → category
	listDueErr  map[int64]error  // per-user failures
	failUpdates int              // fail this many Update calls before succeeding
	updates     int
	updatedIDs  []int64
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		byPair:     make(map[pairKey]*review.Schedule),
		categories: make(map[int64]string),
		listDueErr: make(map[int64]error),
	}
}

func (r *fakeScheduleRepo) add(s *review.Schedule) *review.Schedule {
	r.nextID++
	s.ID = r.nextID
	r.byPair[pairKey{s.UserID, s.ContentID}] = s
	return s
}

func (r *fakeScheduleRepo) Create(ctx context.Context, s *review.Schedule) error {
	if _, ok := r.byPair[pairKey{s.UserID, s.ContentID}]; ok {
		return idb.ErrDuplicateSchedule
	}
	s.CreatedAt = time.Now()
	r.add(s)
	return nil
}

func (r *fakeScheduleRepo) GetByUserAndContent(ctx context.Context, userID, contentID int64) (*review.Schedule, error) {
	s, ok := r.byPair[pairKey{userID, contentID}]
	if !ok {
		return nil, idb.ErrScheduleNotFound
	}
	return s, nil
}

func (r *fakeScheduleRepo) Mutate(ctx context.Context, userID, contentID int64, fn func(*review.Schedule) error) (*review.Schedule, error) {
	s, ok := r.byPair[pairKey{userID, contentID}]
	if !ok {
		return nil, idb.ErrScheduleNotFound
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *fakeScheduleRepo) ListDue(ctx context.Context, userID int64, asOf time.Time, category string) ([]*review.Schedule, error) {
	if err := r.listDueErr[userID]; err != nil {
		return nil, err
	}
	var due []*review.Schedule
	for _, s := range r.byPair {
		if s.UserID != userID || !s.IsDue(asOf) {
			continue
		}
		if category != "" && r.categories[s.ContentID] != category {
			continue
		}
		due = append(due, s)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextReviewDate.Before(due[j].NextReviewDate) })
	return due, nil
}

func (r *fakeScheduleRepo) ListActiveByUser(ctx context.Context, userID int64) ([]*review.Schedule, error) {
	var out []*review.Schedule
	for _, s := range r.byPair {
		if s.UserID == userID && s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeScheduleRepo) Update(ctx context.Context, s *review.Schedule) error {
	if r.failUpdates > 0 {
		r.failUpdates--
		return context.DeadlineExceeded
	}
	r.updates++
	r.updatedIDs = append(r.updatedIDs, s.ID)
	r.byPair[pairKey{s.UserID, s.ContentID}] = s
	return nil
}

func (r *fakeScheduleRepo) Deactivate(ctx context.Context, userID, contentID int64) error {
	s, ok := r.byPair[pairKey{userID, contentID}]
	if !ok {
		return idb.ErrScheduleNotFound
	}
	s.IsActive = false
	return nil
}

type fakeOutcomeRepo struct {
	outcomes  []*review.Outcome
	createErr error
}

func (r *fakeOutcomeRepo) Create(ctx context.Context, o *review.Outcome) error {
	if r.createErr != nil {
		return r.createErr
	}
	o.ID = int64(len(r.outcomes) + 1)
	if o.ReviewDate.IsZero() {
		o.ReviewDate = time.Now()
	}
	r.outcomes = append(r.outcomes, o)
	return nil
}

func (r *fakeOutcomeRepo) ContentIDsReviewedOn(ctx context.Context, userID int64, day time.Time) (map[int64]bool, error) {
	reviewed := make(map[int64]bool)
	y, m, d := day.Date()
	for _, o := range r.outcomes {
		oy, om, od := o.ReviewDate.Date()
		if o.UserID == userID && oy == y && om == m && od == d {
			reviewed[o.ContentID] = true
		}
	}
	return reviewed, nil
}

type fakePrefRepo struct {
	prefs []*notification.Preferences
}

func (r *fakePrefRepo) GetByUser(ctx context.Context, userID int64) (*notification.Preferences, error) {
	for _, p := range r.prefs {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, idb.ErrPreferencesNotFound
}

func (r *fakePrefRepo) Upsert(ctx context.Context, p *notification.Preferences) error {
	r.prefs = append(r.prefs, p)
	return nil
}

func (r *fakePrefRepo) ListByHour(ctx context.Context, kind notification.Kind, hour int) ([]*notification.Preferences, error) {
	var out []*notification.Preferences
	for _, p := range r.prefs {
		switch kind {
		case notification.KindDaily:
			if p.DailyEnabled && p.DailyHour == hour {
				out = append(out, p)
			}
		case notification.KindEvening:
			if p.EveningEnabled && p.EveningHour == hour {
				out = append(out, p)
			}
		case notification.KindWeeklySummary:
			if p.WeeklyEnabled && p.WeeklyHour == hour {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type fakeQueue struct {
	jobs      []*notification.Job
	attempts  int
	failFirst int            // fail this many calls before succeeding
	failUsers map[int64]bool // users whose enqueues always fail
}

func (q *fakeQueue) Enqueue(ctx context.Context, job *notification.Job) error {
	q.attempts++
	if q.failUsers[job.UserID] {
		return context.DeadlineExceeded
	}
	if q.failFirst > 0 {
		q.failFirst--
		return context.DeadlineExceeded
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeSubscriptionRepo struct {
	tiers map[int64]subscription.Tier
}

func (r *fakeSubscriptionRepo) CurrentTier(ctx context.Context, userID int64) (subscription.Tier, error) {
	tier, ok := r.tiers[userID]
	if !ok {
		return "", idb.ErrSubscriptionNotFound
	}
	return tier, nil
}
