// Package engine holds the frame sampling and change-detection algorithms.
// Everything here is deterministic: the same video and parameters always
// produce the same output.
package engine

import (
	"image"
	"math"
)

// histogram is a normalized 256-bin grayscale intensity distribution.
type histogram [256]float64

func grayHistogram(img *image.Gray) histogram {
	var h histogram
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()]
		for _, v := range row {
			h[v]++
		}
	}
	total := float64(b.Dx() * b.Dy())
	if total > 0 {
		for i := range h {
			h[i] /= total
		}
	}
	return h
}

// bhattacharyyaDistance measures dissimilarity between two normalized
// histograms: 0 for identical distributions, 1 for disjoint ones.
func bhattacharyyaDistance(a, b histogram) float64 {
	var bc float64
	for i := range a {
		bc += math.Sqrt(a[i] * b[i])
	}
	if bc > 1 {
		bc = 1
	}
	return math.Sqrt(1 - bc)
}
