package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const defaultEncoderURL = "http://localhost:8000"

// HTTPEncoder computes face embeddings using an external encoder service.
// The service accepts a multipart image upload and returns one embedding per
// detected face.
type HTTPEncoder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPEncoder creates a new encoder client.
func NewHTTPEncoder(baseURL, model string) *HTTPEncoder {
	if baseURL == "" {
		baseURL = defaultEncoderURL
	}
	return &HTTPEncoder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

// encodeResponse represents the response from the encoder service.
type encodeResponse struct {
	Dim   int    `json:"dim"`
	Model string `json:"model"`
	Faces []struct {
		Embedding []float32 `json:"embedding"`
		BBox      []float64 `json:"bbox"`
		DetScore  float64   `json:"det_score"`
	} `json:"faces"`
}

// Encode posts the image to the encoder service and returns the detected
// face embeddings, ordered as the service returns them (best detection
// first). Returns ErrNoFaceDetected when the service finds no face.
func (e *HTTPEncoder) Encode(ctx context.Context, imageData []byte) ([][]float32, error) {
	body, err := e.postMultipartImage(ctx, "/faces", imageData)
	if err != nil {
		return nil, err
	}

	var resp encodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding encoder response: %w", err)
	}

	var probes [][]float32
	for _, face := range resp.Faces {
		if len(face.Embedding) == 0 {
			continue
		}
		probes = append(probes, face.Embedding)
	}
	if len(probes) == 0 {
		return nil, ErrNoFaceDetected
	}
	return probes, nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint.
func (e *HTTPEncoder) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if e.model != "" {
		if err := writer.WriteField("model", e.model); err != nil {
			return nil, fmt.Errorf("failed to write model field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("encoder request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading encoder response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("encoder returned status %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}
