package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facegate/facegate/internal/database/mock"
)

type rosterResponse struct {
	Identities []rosterEntryResponse `json:"identities"`
	Count      int                   `json:"count"`
}

func TestRosterHandler_List_All(t *testing.T) {
	store := mock.NewIdentityStore()
	seedIdentity(t, store, "id-1", "Jana Nováková", []float32{1, 0})
	seedIdentity(t, store, "id-2", "Petr Svoboda", []float32{0, 1})

	handler := NewRosterHandler(store)

	req := httptest.NewRequest("GET", "/api/v1/roster", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var resp rosterResponse
	parseJSONResponse(t, recorder, &resp)

	if resp.Count != 2 {
		t.Errorf("expected count 2, got %d", resp.Count)
	}
	if len(resp.Identities) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp.Identities))
	}
	if resp.Identities[0].Identity != "id-1" {
		t.Errorf("expected first identity 'id-1', got '%s'", resp.Identities[0].Identity)
	}
	if resp.Identities[0].RegisteredAt != "2026-03-01 09:00:00" {
		t.Errorf("unexpected registered_at '%s'", resp.Identities[0].RegisteredAt)
	}
}

func TestRosterHandler_List_LabelFilter(t *testing.T) {
	store := mock.NewIdentityStore()
	seedIdentity(t, store, "id-1", "Jana Nováková", []float32{1, 0})
	seedIdentity(t, store, "id-2", "Petr Svoboda", []float32{0, 1})

	handler := NewRosterHandler(store)

	// diacritic-insensitive match
	req := httptest.NewRequest("GET", "/api/v1/roster?label=novakova", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp rosterResponse
	parseJSONResponse(t, recorder, &resp)

	if resp.Count != 1 {
		t.Fatalf("expected 1 filtered entry, got %d", resp.Count)
	}
	if resp.Identities[0].Identity != "id-1" {
		t.Errorf("expected 'id-1', got '%s'", resp.Identities[0].Identity)
	}
}

func TestRosterHandler_List_Empty(t *testing.T) {
	handler := NewRosterHandler(mock.NewIdentityStore())

	req := httptest.NewRequest("GET", "/api/v1/roster", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp rosterResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 0 {
		t.Errorf("expected empty roster, got %d", resp.Count)
	}
}

func TestRosterHandler_List_StoreError(t *testing.T) {
	store := mock.NewIdentityStore()
	store.RosterError = errors.New("corrupted file")

	handler := NewRosterHandler(store)

	req := httptest.NewRequest("GET", "/api/v1/roster", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "loading roster failed")
}
