package match

import (
	"fmt"
	"math"
)

// Metric computes a distance between a probe vector and a stored reference.
// Smaller is more similar; every metric returns its maximum for invalid input
// so that broken references can never win a match.
type Metric interface {
	Distance(a, b []float32) float64
	Name() string
}

// NewMetric returns the metric registered under the given name.
func NewMetric(name string) (Metric, error) {
	switch name {
	case "cosine":
		return CosineMetric{}, nil
	case "euclidean":
		return EuclideanMetric{}, nil
	case "pixel":
		return PixelMetric{}, nil
	}
	return nil, fmt.Errorf("unknown metric %q", name)
}

// CosineMetric measures angular distance between embedding vectors.
type CosineMetric struct{}

func (CosineMetric) Name() string { return "cosine" }

// Distance computes the cosine distance between two vectors.
// Returns a value between 0 (identical) and 2 (opposite).
// Cosine distance = 1 - cosine similarity.
func (CosineMetric) Distance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0 // Maximum distance for invalid input
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0 // Maximum distance for zero vectors
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return 1 - similarity
}

// EuclideanMetric measures L2 distance between embedding vectors. This is the
// metric face encoder libraries calibrate their thresholds against.
type EuclideanMetric struct{}

func (EuclideanMetric) Name() string { return "euclidean" }

func (EuclideanMetric) Distance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// PixelMetric is the degraded strategy: mean absolute difference between two
// normalized grayscale image samples with values in [0, 1].
type PixelMetric struct{}

func (PixelMetric) Name() string { return "pixel" }

func (PixelMetric) Distance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0 // samples are normalized, 1.0 is the maximum mean difference
	}

	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum / float64(len(a))
}
