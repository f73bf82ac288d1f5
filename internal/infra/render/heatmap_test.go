package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJetColormapEndpoints(t *testing.T) {
	cold := jet(0)
	hot := jet(1)

	assert.Greater(t, cold.B, cold.R, "low intensity is blue")
	assert.Greater(t, hot.R, hot.B, "high intensity is red")

	mid := jet(0.5)
	assert.Equal(t, uint8(255), mid.G, "midpoint is green-dominant")

	// Out-of-range inputs clamp instead of wrapping.
	assert.Equal(t, jet(0), jet(-2))
	assert.Equal(t, jet(1), jet(5))
}

func TestHeatmapBlendsOverBase(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			base.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	// Heat only in the right half.
	heat := make([]float64, 16)
	for y := 0; y < 4; y++ {
		heat[y*4+3] = 100
	}

	out := Heatmap(base, 4, 4, heat)
	assert.Equal(t, base.Bounds(), out.Bounds())

	// Hot side carries more red than blue after the blend; cold side is
	// blue-shifted.
	hot := out.RGBAAt(7, 4)
	cold := out.RGBAAt(0, 4)
	assert.Greater(t, hot.R, hot.B)
	assert.Greater(t, cold.B, cold.R)
	assert.Equal(t, uint8(0xff), hot.A)
}

func TestHeatmapEmptyGridReturnsBase(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 4, 4))
	base.SetRGBA(2, 2, color.RGBA{10, 20, 30, 255})

	out := Heatmap(base, 0, 0, nil)
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, out.RGBAAt(2, 2))
}
