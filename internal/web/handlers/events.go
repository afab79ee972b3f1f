package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/facegate/facegate/internal/database"
)

// EventsHandler serves raw attendance events.
type EventsHandler struct {
	log database.AttendanceLog
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(attendanceLog database.AttendanceLog) *EventsHandler {
	return &EventsHandler{log: attendanceLog}
}

type eventResponse struct {
	Identity  string `json:"identity"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Direction string `json:"direction"`
}

// List handles GET /api/v1/events?date=YYYY-MM-DD.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	if _, err := time.Parse(database.DateLayout, date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	events, malformed, err := h.log.EventsFor(r.Context(), date)
	if err != nil {
		log.Printf("loading events: %v", err)
		respondError(w, http.StatusInternalServerError, "loading events failed")
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			Identity:  string(e.Identity),
			Date:      e.Date(),
			Time:      e.Timestamp.Format(database.TimeLayout),
			Direction: string(e.Direction),
		})
	}

	warnings := make([]string, 0, len(malformed))
	for _, m := range malformed {
		warnings = append(warnings, m.String())
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":     date,
		"events":   out,
		"warnings": warnings,
	})
}
