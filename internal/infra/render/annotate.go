package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const defaultThickness = 2

// Annotate draws measurement overlays onto img in place and returns one
// measurement string per angle. Coordinates outside the image are clipped
// silently so callers can annotate without pre-validating geometry.
func Annotate(img *image.RGBA, lines []entity.LineSpec, angles []entity.AngleSpec, labels []entity.LabelSpec) []string {
	for _, l := range lines {
		thickness := l.Thickness
		if thickness < 1 {
			thickness = defaultThickness
		}
		drawLine(img, l.From, l.To, specColor(l.Color, color.RGBA{255, 0, 0, 255}), thickness)
	}

	measurements := make([]string, 0, len(angles))
	for i, a := range angles {
		c := specColor(a.Color, color.RGBA{255, 220, 0, 255})
		drawLine(img, a.Points[0], a.Points[1], c, defaultThickness)
		drawLine(img, a.Points[1], a.Points[2], c, defaultThickness)

		deg := angleDegrees(a.Points)
		drawArc(img, a.Points, c)

		name := a.Label
		if name == "" {
			name = fmt.Sprintf("angle %d", i+1)
		}
		text := fmt.Sprintf("%.1f deg", deg)
		drawText(img, a.Points[1][0]+10, a.Points[1][1]-10, text, c)
		measurements = append(measurements, fmt.Sprintf("%s: %.1f deg", name, deg))
	}

	for _, l := range labels {
		drawText(img, l.Point[0], l.Point[1], l.Text, specColor(l.Color, color.RGBA{255, 255, 255, 255}))
	}
	return measurements
}

// angleDegrees measures the interior angle at the middle point.
func angleDegrees(pts [3][2]int) float64 {
	v1x := float64(pts[0][0] - pts[1][0])
	v1y := float64(pts[0][1] - pts[1][1])
	v2x := float64(pts[2][0] - pts[1][0])
	v2y := float64(pts[2][1] - pts[1][1])

	n1 := math.Hypot(v1x, v1y)
	n2 := math.Hypot(v2x, v2y)
	if n1 == 0 || n2 == 0 {
		return 0
	}
	cos := (v1x*v2x + v1y*v2y) / (n1 * n2)
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// drawLine is integer Bresenham; thickness paints a square brush at each
// step.
func drawLine(img *image.RGBA, from, to [2]int, c color.RGBA, thickness int) {
	x0, y0 := from[0], from[1]
	x1, y1 := to[0], to[1]

	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		stamp(img, x0, y0, c, thickness)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawArc sketches a short arc inside an angle's vertex to mark it.
func drawArc(img *image.RGBA, pts [3][2]int, c color.RGBA) {
	const radius = 18.0
	a1 := math.Atan2(float64(pts[0][1]-pts[1][1]), float64(pts[0][0]-pts[1][0]))
	a2 := math.Atan2(float64(pts[2][1]-pts[1][1]), float64(pts[2][0]-pts[1][0]))

	sweep := a2 - a1
	for sweep <= -math.Pi {
		sweep += 2 * math.Pi
	}
	for sweep > math.Pi {
		sweep -= 2 * math.Pi
	}

	steps := 24
	for i := 0; i <= steps; i++ {
		a := a1 + sweep*float64(i)/float64(steps)
		x := pts[1][0] + int(math.Round(radius*math.Cos(a)))
		y := pts[1][1] + int(math.Round(radius*math.Sin(a)))
		stamp(img, x, y, c, 1)
	}
}

// drawText paints text over a dark backing box so labels stay readable on
// any frame content.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Metrics().Height.Ceil()

	box := image.Rect(x-2, y-h+2, x+w+2, y+4)
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(color.RGBA{0, 0, 0, 200}), image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func stamp(img *image.RGBA, x, y int, c color.RGBA, thickness int) {
	half := thickness / 2
	b := img.Bounds()
	for yy := y - half; yy <= y+half; yy++ {
		for xx := x - half; xx <= x+half; xx++ {
			if xx >= b.Min.X && xx < b.Max.X && yy >= b.Min.Y && yy < b.Max.Y {
				img.SetRGBA(xx, yy, c)
			}
		}
	}
}

func specColor(rgb [3]int, fallback color.RGBA) color.RGBA {
	if rgb == [3]int{} {
		return fallback
	}
	return color.RGBA{
		uint8(clampInt(rgb[0], 0, 255)),
		uint8(clampInt(rgb[1], 0, 255)),
		uint8(clampInt(rgb[2], 0, 255)),
		0xff,
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
