package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/timeline"
)

// AnalyzeHandler computes daily attendance reports.
type AnalyzeHandler struct {
	store   database.IdentityStore
	log     database.AttendanceLog
	workday config.WorkdayConfig
}

// NewAnalyzeHandler creates an analysis handler. workday supplies the window
// used when a request omits start/end times.
func NewAnalyzeHandler(store database.IdentityStore, attendanceLog database.AttendanceLog, workday config.WorkdayConfig) *AnalyzeHandler {
	return &AnalyzeHandler{store: store, log: attendanceLog, workday: workday}
}

// AnalyzeRequest is the query consumed by the web layer.
type AnalyzeRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Analyze handles POST /api/v1/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Date == "" {
		respondError(w, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse(database.DateLayout, req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	start, end := req.StartTime, req.EndTime
	if start == "" {
		start = h.workday.Start
	}
	if end == "" {
		end = h.workday.End
	}
	window, err := timeline.ParseWindow(start, end)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	roster, err := h.store.Roster(r.Context())
	if err != nil {
		log.Printf("loading roster: %v", err)
		respondError(w, http.StatusInternalServerError, "loading roster failed")
		return
	}
	events, malformed, err := h.log.EventsFor(r.Context(), req.Date)
	if err != nil {
		log.Printf("loading events: %v", err)
		respondError(w, http.StatusInternalServerError, "loading events failed")
		return
	}

	report, err := timeline.Analyze(roster, events, malformed, req.Date, window)
	if errors.Is(err, timeline.ErrInvalidWindow) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("analysis failed: %v", err)
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
