package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/facegate/facegate/internal/attendance"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/encoder"
	"github.com/facegate/facegate/internal/match"
)

// RecognizeHandler resolves uploaded images and records enter/exit events.
type RecognizeHandler struct {
	encoder  encoder.Encoder
	matcher  *match.Matcher
	recorder *attendance.Recorder
	now      func() time.Time
}

// NewRecognizeHandler creates a recognition handler.
func NewRecognizeHandler(enc encoder.Encoder, matcher *match.Matcher, recorder *attendance.Recorder) *RecognizeHandler {
	return &RecognizeHandler{
		encoder:  enc,
		matcher:  matcher,
		recorder: recorder,
		now:      time.Now,
	}
}

// Recognize handles POST /api/v1/recognize: multipart form with an "image"
// file and a "direction" field (enter or exit). The first detected face is
// resolved; on a match the event is recorded at the capture time.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	imageData, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}

	direction, err := database.ParseDirection(r.FormValue("direction"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "direction must be enter or exit")
		return
	}

	probes, err := h.encoder.Encode(r.Context(), imageData)
	if errors.Is(err, encoder.ErrNoFaceDetected) {
		respondError(w, http.StatusUnprocessableEntity, "no face detected")
		return
	}
	if err != nil {
		log.Printf("encoder failed: %v", err)
		respondError(w, http.StatusBadGateway, "encoder unavailable")
		return
	}

	res, err := h.matcher.Match(r.Context(), probes[0])
	if err != nil {
		log.Printf("match failed: %v", err)
		respondError(w, http.StatusInternalServerError, "match failed")
		return
	}
	if !res.Known {
		respondJSON(w, http.StatusOK, map[string]any{
			"matched":  false,
			"distance": res.Distance,
		})
		return
	}

	ts := h.now()
	if err := h.recorder.Record(r.Context(), res.Identity, direction, ts); err != nil {
		if errors.Is(err, database.ErrUnknownIdentity) {
			// Matched an embedding with no roster entry: the store invariant
			// is broken, surface it loudly.
			log.Printf("matched identity %s has no roster entry", sanitizeForLog(string(res.Identity)))
			respondError(w, http.StatusInternalServerError, "identity not in roster")
			return
		}
		log.Printf("recording event failed: %v", err)
		respondError(w, http.StatusInternalServerError, "recording event failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"matched":   true,
		"identity":  res.Identity,
		"distance":  res.Distance,
		"direction": direction,
		"timestamp": ts.Format(database.DateLayout + " " + database.TimeLayout),
	})
}
