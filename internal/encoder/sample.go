package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/facegate/facegate/internal/match"
)

// SampleEncoder is the degraded strategy: no face detection, the whole frame
// is normalized into a fixed-size grayscale sample compared with the pixel
// metric. Usable only when the camera frames a single cooperative face.
type SampleEncoder struct {
	size int
}

// NewSampleEncoder creates a sample encoder producing size×size samples.
func NewSampleEncoder(size int) *SampleEncoder {
	return &SampleEncoder{size: size}
}

// Encode decodes the image and returns its normalized sample as the single
// probe. An empty input means there is nothing to embed.
func (e *SampleEncoder) Encode(ctx context.Context, imageData []byte) ([][]float32, error) {
	if len(imageData) == 0 {
		return nil, ErrNoFaceDetected
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return [][]float32{match.NormalizeSample(img, e.size)}, nil
}
