package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"spaced_review_scheduler/internal/app"
	"spaced_review_scheduler/internal/domain/notification"
	"spaced_review_scheduler/internal/domain/review"
	idb "spaced_review_scheduler/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Server is the thin web layer over the scheduler services. Authentication
// is owned by the upstream gateway, which injects the authenticated user in
// the X-User-ID header.
type Server struct {
	reviews *app.ReviewService
	prefs   notification.PreferenceRepository
	logger  *logrus.Logger
}

func NewServer(reviews *app.ReviewService, prefs notification.PreferenceRepository, logger *logrus.Logger) *Server {
	return &Server{reviews: reviews, prefs: prefs, logger: logger}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /today-reviews", s.handleTodayReviews)
	mux.HandleFunc("POST /complete-review", s.handleCompleteReview)
	mux.HandleFunc("POST /schedules", s.handleCreateSchedule)
	mux.HandleFunc("GET /notification-preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /notification-preferences", s.handleUpdatePreferences)
}

type scheduleResponse struct {
	ContentID              int64     `json:"content_id"`
	IntervalIndex          int       `json:"interval_index"`
	NextReviewDate         time.Time `json:"next_review_date"`
	InitialReviewCompleted bool      `json:"initial_review_completed"`
}

func toScheduleResponse(sched *review.Schedule) scheduleResponse {
	return scheduleResponse{
		ContentID:              sched.ContentID,
		IntervalIndex:          sched.IntervalIndex,
		NextReviewDate:         sched.NextReviewDate,
		InitialReviewCompleted: sched.InitialReviewCompleted,
	}
}

func (s *Server) handleTodayReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	scheds, err := s.reviews.TodayReviews(r.Context(), userID, r.URL.Query().Get("category"))
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	out := make([]scheduleResponse, 0, len(scheds))
	for _, sched := range scheds {
		out = append(out, toScheduleResponse(sched))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"reviews": out})
}

type completeReviewRequest struct {
	ContentID int64         `json:"content_id"`
	Result    review.Result `json:"result"`
	TimeSpent *int          `json:"time_spent,omitempty"`
	Notes     string        `json:"notes,omitempty"`
}

func (s *Server) handleCompleteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req completeReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sched, err := s.reviews.CompleteReview(r.Context(), userID, req.ContentID, req.Result, req.TimeSpent, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrValidation):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case err == idb.ErrScheduleNotFound:
			s.writeError(w, http.StatusNotFound, "schedule not found")
		case err == app.ErrScheduleInactive:
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.serverError(w, r, err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"next_review_date": sched.NextReviewDate,
		"interval_index":   sched.IntervalIndex,
	})
}

type createScheduleRequest struct {
	ContentID int64 `json:"content_id"`
}

// handleCreateSchedule is the content lifecycle hook: the content service
// calls it once per created content item.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sched, err := s.reviews.CreateSchedule(r.Context(), userID, req.ContentID)
	if err != nil {
		if err == app.ErrScheduleAlreadyExists {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toScheduleResponse(sched))
}

type preferencesRequest struct {
	DailyEnabled   bool `json:"daily_enabled"`
	DailyHour      int  `json:"daily_hour"`
	EveningEnabled bool `json:"evening_enabled"`
	EveningHour    int  `json:"evening_hour"`
	WeeklyEnabled  bool `json:"weekly_enabled"`
	WeeklyHour     int  `json:"weekly_hour"`
}

type preferencesResponse struct {
	preferencesRequest
	UnsubscribeToken string `json:"unsubscribe_token"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	prefs, err := s.prefs.GetByUser(r.Context(), userID)
	if err != nil {
		if err == idb.ErrPreferencesNotFound {
			s.writeError(w, http.StatusNotFound, "notification preferences not found")
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, preferencesResponse{
		preferencesRequest: preferencesRequest{
			DailyEnabled:   prefs.DailyEnabled,
			DailyHour:      prefs.DailyHour,
			EveningEnabled: prefs.EveningEnabled,
			EveningHour:    prefs.EveningHour,
			WeeklyEnabled:  prefs.WeeklyEnabled,
			WeeklyHour:     prefs.WeeklyHour,
		},
		UnsubscribeToken: prefs.UnsubscribeToken,
	})
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	for _, hour := range []int{req.DailyHour, req.EveningHour, req.WeeklyHour} {
		if hour < 0 || hour > 23 {
			s.writeError(w, http.StatusBadRequest, "hours must be between 0 and 23")
			return
		}
	}
	prefs := &notification.Preferences{
		UserID:         userID,
		DailyEnabled:   req.DailyEnabled,
		DailyHour:      req.DailyHour,
		EveningEnabled: req.EveningEnabled,
		EveningHour:    req.EveningHour,
		WeeklyEnabled:  req.WeeklyEnabled,
		WeeklyHour:     req.WeeklyHour,
	}
	if err := s.prefs.Upsert(r.Context(), prefs); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"unsubscribe_token": prefs.UnsubscribeToken})
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-ID")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		s.writeError(w, http.StatusUnauthorized, "missing or invalid X-User-ID header")
		return 0, false
	}
	return userID, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response body")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	s.writeError(w, http.StatusInternalServerError, "internal error")
}
