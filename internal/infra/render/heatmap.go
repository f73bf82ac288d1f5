package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Heatmap blends a jet-colored motion intensity map over a reference frame
// at equal weight. values is a heatW x heatH row-major grid of accumulated
// per-pixel differences; it is normalized to its own maximum before
// coloring, so a static region stays blue regardless of scale.
func Heatmap(base image.Image, heatW, heatH int, values []float64) *image.RGBA {
	bb := base.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(out, out.Bounds(), base, bb.Min, draw.Src)

	if heatW < 1 || heatH < 1 || len(values) < heatW*heatH {
		return out
	}

	var max float64
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	small := image.NewRGBA(image.Rect(0, 0, heatW, heatH))
	for y := 0; y < heatH; y++ {
		for x := 0; x < heatW; x++ {
			norm := 0.0
			if max > 0 {
				norm = values[y*heatW+x] / max
			}
			small.SetRGBA(x, y, jet(norm))
		}
	}

	colored := image.NewRGBA(out.Bounds())
	draw.ApproxBiLinear.Scale(colored, colored.Bounds(), small, small.Bounds(), draw.Src, nil)

	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i+0] = uint8((int(out.Pix[i+0]) + int(colored.Pix[i+0])) / 2)
		out.Pix[i+1] = uint8((int(out.Pix[i+1]) + int(colored.Pix[i+1])) / 2)
		out.Pix[i+2] = uint8((int(out.Pix[i+2]) + int(colored.Pix[i+2])) / 2)
		out.Pix[i+3] = 0xff
	}
	return out
}

// jet maps [0,1] to the classic blue-cyan-yellow-red colormap.
func jet(v float64) color.RGBA {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	r := clampChannel(1.5 - abs(4*v-3))
	g := clampChannel(1.5 - abs(4*v-2))
	b := clampChannel(1.5 - abs(4*v-1))
	return color.RGBA{r, g, b, 0xff}
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v * 255)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
