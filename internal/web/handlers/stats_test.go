package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/mock"
	"github.com/facegate/facegate/internal/match"
)

func TestStatsHandler_Stats(t *testing.T) {
	store := mock.NewIdentityStore()
	eventLog := mock.NewAttendanceLog()
	seedIdentity(t, store, "id-1", "Jana", []float32{1, 0})
	seedIdentity(t, store, "id-2", "Petr", []float32{0, 1})
	recordEvent(t, eventLog, "id-1", "2026-03-02 08:40:00", database.DirectionEnter)
	recordEvent(t, eventLog, "id-1", "2026-03-01 08:40:00", database.DirectionEnter)

	matcher := match.New(store, match.EuclideanMetric{}, 0.6)
	handler := NewStatsHandler(store, eventLog, matcher)
	handler.now = func() time.Time {
		return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	}

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	recorder := httptest.NewRecorder()

	handler.Stats(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]any
	parseJSONResponse(t, recorder, &resp)

	if resp["enrolled"] != float64(2) {
		t.Errorf("expected enrolled 2, got %v", resp["enrolled"])
	}
	if resp["events_today"] != float64(1) {
		t.Errorf("expected 1 event today, got %v", resp["events_today"])
	}
	if resp["metric"] != "euclidean" {
		t.Errorf("expected metric euclidean, got %v", resp["metric"])
	}
	if resp["threshold"] != 0.6 {
		t.Errorf("expected threshold 0.6, got %v", resp["threshold"])
	}
	if resp["indexed"] != float64(0) {
		t.Errorf("expected no index entries, got %v", resp["indexed"])
	}
}

func TestStatsHandler_Stats_StoreError(t *testing.T) {
	store := mock.NewIdentityStore()
	store.EmbeddingsError = errors.New("read failed")

	matcher := match.New(store, match.EuclideanMetric{}, 0.6)
	handler := NewStatsHandler(store, mock.NewAttendanceLog(), matcher)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	recorder := httptest.NewRecorder()

	handler.Stats(recorder, req)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "counting enrollments failed")
}

func TestRefreshHandler_Refresh(t *testing.T) {
	store := mock.NewIdentityStore()
	eventLog := mock.NewAttendanceLog()
	matcher := match.New(store, match.EuclideanMetric{}, 0.6)

	handler := NewRefreshHandler(store, eventLog, matcher)

	req := httptest.NewRequest("POST", "/api/v1/refresh", nil)
	recorder := httptest.NewRecorder()

	handler.Refresh(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)
	if resp["status"] != "refreshed" {
		t.Errorf("expected status 'refreshed', got '%s'", resp["status"])
	}
}

func TestRefreshHandler_Refresh_StoreError(t *testing.T) {
	store := mock.NewIdentityStore()
	store.RefreshError = errors.New("stat failed")
	matcher := match.New(store, match.EuclideanMetric{}, 0.6)

	handler := NewRefreshHandler(store, mock.NewAttendanceLog(), matcher)

	req := httptest.NewRequest("POST", "/api/v1/refresh", nil)
	recorder := httptest.NewRecorder()

	handler.Refresh(recorder, req)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "refreshing store failed")
}
