package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database/mock"
	"github.com/facegate/facegate/internal/encoder"
	"github.com/facegate/facegate/internal/enroll"
	"github.com/facegate/facegate/internal/match"
)

func newEnrollFixture(enc encoder.Encoder) (*EnrollHandler, *mock.IdentityStore) {
	store := mock.NewIdentityStore()
	matcher := match.New(store, match.EuclideanMetric{}, 0.6)
	service := enroll.NewService(store, matcher, config.StrategyEmbedding)
	return NewEnrollHandler(enc, service), store
}

func TestEnrollHandler_Register_Success(t *testing.T) {
	enc := &stubEncoder{vectors: [][]float32{{1, 0, 0}}}
	handler, store := newEnrollFixture(enc)

	req := multipartImageRequest(t, "/api/v1/register", []byte("jpeg bytes"), map[string]string{
		"label": "Jana Novakova",
	})
	recorder := httptest.NewRecorder()

	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	assertContentType(t, recorder, "application/json")

	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)

	if resp["identity"] == "" {
		t.Error("expected non-empty identity token")
	}
	if resp["label"] != "Jana Novakova" {
		t.Errorf("expected label 'Jana Novakova', got '%s'", resp["label"])
	}

	count, err := store.Count(req.Context())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 enrolled identity, got %d", count)
	}
}

func TestEnrollHandler_Register_MissingImage(t *testing.T) {
	handler, _ := newEnrollFixture(&stubEncoder{vectors: [][]float32{{1, 0, 0}}})

	req := multipartImageRequest(t, "/api/v1/register", nil, map[string]string{"label": "x"})
	recorder := httptest.NewRecorder()

	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "image file is required")
}

func TestEnrollHandler_Register_NoFaceDetected(t *testing.T) {
	handler, _ := newEnrollFixture(&stubEncoder{err: encoder.ErrNoFaceDetected})

	req := multipartImageRequest(t, "/api/v1/register", []byte("jpeg bytes"), nil)
	recorder := httptest.NewRecorder()

	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	assertJSONError(t, recorder, "no face detected")
}

func TestEnrollHandler_Register_EncoderUnavailable(t *testing.T) {
	handler, _ := newEnrollFixture(&stubEncoder{err: errors.New("connection refused")})

	req := multipartImageRequest(t, "/api/v1/register", []byte("jpeg bytes"), nil)
	recorder := httptest.NewRecorder()

	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadGateway)
	assertJSONError(t, recorder, "encoder unavailable")
}

func TestEnrollHandler_Register_Duplicate(t *testing.T) {
	enc := &stubEncoder{vectors: [][]float32{{1, 0, 0}}}
	handler, store := newEnrollFixture(enc)
	seedIdentity(t, store, "existing-id", "Jana", []float32{1, 0, 0})

	req := multipartImageRequest(t, "/api/v1/register", []byte("jpeg bytes"), nil)
	recorder := httptest.NewRecorder()

	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusConflict)

	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)
	if resp["identity"] != "existing-id" {
		t.Errorf("expected existing identity 'existing-id', got '%s'", resp["identity"])
	}

	count, err := store.Count(req.Context())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("duplicate registration must not grow the store, got %d entries", count)
	}
}

func TestEnrollHandler_Register_StoreError(t *testing.T) {
	enc := &stubEncoder{vectors: [][]float32{{1, 0, 0}}}
	handler, store := newEnrollFixture(enc)
	store.EnrollError = errors.New("disk full")

	req := multipartImageRequest(t, "/api/v1/register", []byte("jpeg bytes"), nil)
	recorder := httptest.NewRecorder()

	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "registration failed")
}
