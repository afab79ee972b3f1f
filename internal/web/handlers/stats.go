package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/match"
)

// StatsHandler serves operational counters.
type StatsHandler struct {
	store   database.IdentityStore
	log     database.AttendanceLog
	matcher *match.Matcher
	now     func() time.Time
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(store database.IdentityStore, attendanceLog database.AttendanceLog, matcher *match.Matcher) *StatsHandler {
	return &StatsHandler{store: store, log: attendanceLog, matcher: matcher, now: time.Now}
}

// Stats handles GET /api/v1/stats.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	enrolled, err := h.store.Count(r.Context())
	if err != nil {
		log.Printf("counting enrollments: %v", err)
		respondError(w, http.StatusInternalServerError, "counting enrollments failed")
		return
	}

	today := h.now().Format(database.DateLayout)
	events, _, err := h.log.EventsFor(r.Context(), today)
	if err != nil {
		log.Printf("counting events: %v", err)
		respondError(w, http.StatusInternalServerError, "counting events failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"enrolled":     enrolled,
		"events_today": len(events),
		"metric":       h.matcher.Metric().Name(),
		"threshold":    h.matcher.Threshold(),
		"indexed":      h.matcher.IndexLen(),
	})
}

// RefreshHandler reloads persisted state on demand. Callers decide the
// refresh cadence; nothing reloads implicitly per request.
type RefreshHandler struct {
	store   database.IdentityStore
	log     database.AttendanceLog
	matcher *match.Matcher
}

// NewRefreshHandler creates a refresh handler.
func NewRefreshHandler(store database.IdentityStore, attendanceLog database.AttendanceLog, matcher *match.Matcher) *RefreshHandler {
	return &RefreshHandler{store: store, log: attendanceLog, matcher: matcher}
}

// Refresh handles POST /api/v1/refresh.
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Refresh(r.Context()); err != nil {
		log.Printf("refreshing store: %v", err)
		respondError(w, http.StatusInternalServerError, "refreshing store failed")
		return
	}
	if err := h.log.Refresh(r.Context()); err != nil {
		log.Printf("refreshing log: %v", err)
		respondError(w, http.StatusInternalServerError, "refreshing log failed")
		return
	}
	if err := h.matcher.RebuildIndex(r.Context()); err != nil {
		log.Printf("rebuilding index: %v", err)
		respondError(w, http.StatusInternalServerError, "rebuilding index failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
