// Package encoder turns captured images into probe vectors. Detection and
// embedding are external concerns; this package only defines the contract
// and thin client implementations.
package encoder

import (
	"context"
	"errors"
)

// ErrNoFaceDetected is returned when the encoder finds nothing to embed in
// the input image.
var ErrNoFaceDetected = errors.New("no face detected in image")

// Encoder produces one probe vector per face detected in the image, ordered
// by detection confidence. Implementations return ErrNoFaceDetected when the
// image contains no usable face.
type Encoder interface {
	Encode(ctx context.Context, imageData []byte) ([][]float32, error)
}
