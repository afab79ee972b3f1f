package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/facegate/facegate/internal/database"
)

// RosterHandler serves the enrolled identities.
type RosterHandler struct {
	store database.IdentityStore
}

// NewRosterHandler creates a roster handler.
func NewRosterHandler(store database.IdentityStore) *RosterHandler {
	return &RosterHandler{store: store}
}

type rosterEntryResponse struct {
	Identity     string `json:"identity"`
	Label        string `json:"label,omitempty"`
	RegisteredAt string `json:"registered_at"`
}

// List handles GET /api/v1/roster. An optional "label" query filters by
// diacritic-insensitive label match.
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	roster, err := h.store.Roster(r.Context())
	if err != nil {
		log.Printf("loading roster: %v", err)
		respondError(w, http.StatusInternalServerError, "loading roster failed")
		return
	}

	filter := database.NormalizeLabel(r.URL.Query().Get("label"))

	entries := make([]rosterEntryResponse, 0, len(roster))
	for _, entry := range roster {
		if filter != "" && !strings.Contains(database.NormalizeLabel(entry.Label), filter) {
			continue
		}
		entries = append(entries, rosterEntryResponse{
			Identity:     string(entry.Identity),
			Label:        entry.Label,
			RegisteredAt: entry.RegisteredAt.Format(database.DateLayout + " " + database.TimeLayout),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"identities": entries,
		"count":      len(entries),
	})
}
