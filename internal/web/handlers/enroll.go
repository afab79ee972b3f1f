package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/facegate/facegate/internal/encoder"
	"github.com/facegate/facegate/internal/enroll"
)

// EnrollHandler registers new identities from uploaded images.
type EnrollHandler struct {
	encoder encoder.Encoder
	service *enroll.Service
}

// NewEnrollHandler creates an enrollment handler.
func NewEnrollHandler(enc encoder.Encoder, service *enroll.Service) *EnrollHandler {
	return &EnrollHandler{encoder: enc, service: service}
}

// Register handles POST /api/v1/register: multipart form with an "image"
// file and an optional "label" field. When the detector reports several
// faces, the first (best detection) is the enrollment subject.
func (h *EnrollHandler) Register(w http.ResponseWriter, r *http.Request) {
	imageData, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	label := r.FormValue("label")

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

	id, err := h.service.Register(r.Context(), probes[0], label)
	if errors.Is(err, enroll.ErrDuplicateRegistration) {
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":    "person already registered",
			"identity": string(id),
		})
		return
	}
	if err != nil {
		log.Printf("registration failed: %v", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	log.Printf("registered identity %s", sanitizeForLog(string(id)))
	respondJSON(w, http.StatusCreated, map[string]string{
		"identity": string(id),
		"label":    label,
	})
}
