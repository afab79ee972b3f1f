package match

import (
	"image"

	"golang.org/x/image/draw"
)

// NormalizeSample converts an image into the fixed-length vector the pixel
// metric compares: grayscale, bilinear-downscaled to size×size, with values
// scaled to [0, 1]. Every enrollment and probe goes through the same
// normalization so samples of different capture resolutions stay comparable.
func NormalizeSample(img image.Image, size int) []float32 {
	gray := image.NewGray(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	sample := make([]float32, size*size)
	for i, px := range gray.Pix {
		sample[i] = float32(px) / 255.0
	}
	return sample
}
