package embed

import (
	"context"
	"image"
	"math"
)

const (
	histogramGrid = 2 // 2x2 spatial cells
	histogramBins = 4 // bins per color channel
)

// Histogram embeds images as spatial color histograms: the image is split
// into a 2x2 grid and each cell contributes a 4x4x4 quantized RGB histogram.
// Dimensionality is fixed at grid^2 * bins^3 = 256. It is a local stand-in
// for a learned joint encoder; the interface lets one be swapped in.
type Histogram struct{}

// NewHistogram creates the color-histogram image embedder.
func NewHistogram() *Histogram {
	return &Histogram{}
}

// EmbedImage converts a decoded image to an L2-normalized histogram vector.
func (h *Histogram) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	bounds := img.Bounds()
	vec := make([]float32, h.Dimensions())
	cellDims := histogramBins * histogramBins * histogramBins

	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return vec, nil
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()

			// 16-bit channels quantized into histogramBins buckets.
			ri := int(r) * histogramBins / 0x10000
			gi := int(g) * histogramBins / 0x10000
			bi := int(b) * histogramBins / 0x10000

			cellX := (x - bounds.Min.X) * histogramGrid / width
			cellY := (y - bounds.Min.Y) * histogramGrid / height
			cell := cellY*histogramGrid + cellX

			bin := ri*histogramBins*histogramBins + gi*histogramBins + bi
			vec[cell*cellDims+bin]++
		}
	}

	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = float32(math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec, nil
}

// Dimensions returns the fixed vector dimensionality.
func (h *Histogram) Dimensions() int {
	return histogramGrid * histogramGrid * histogramBins * histogramBins * histogramBins
}

// Name returns the embedder name.
func (h *Histogram) Name() string {
	return "histogram"
}
