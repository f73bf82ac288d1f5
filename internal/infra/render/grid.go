// Package render rasterizes analysis results: frame grids, motion
// heatmaps, and measurement overlays. All output is plain image bytes;
// nothing here touches the decoder.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cellWidth   = 320
	cellHeight  = 240
	labelHeight = 20

	jpegQuality = 85
)

// Layout returns the near-square grid shape for n frames: columns first,
// then however many rows that needs.
func Layout(n int) (cols, rows int) {
	if n < 1 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return cols, rows
}

// FrameGrid composes frames into a labeled contact sheet. Each cell is
// 320x240 with a 20px timestamp strip underneath; frames keep their aspect
// ratio inside the cell. Empty trailing cells stay black.
func FrameGrid(frames []entity.Frame) (*image.RGBA, int, int) {
	cols, rows := Layout(len(frames))
	if cols == 0 {
		return image.NewRGBA(image.Rect(0, 0, cellWidth, cellHeight+labelHeight)), 1, 1
	}

	out := image.NewRGBA(image.Rect(0, 0, cols*cellWidth, rows*(cellHeight+labelHeight)))

	for i, f := range frames {
		col := i % cols
		row := i / cols
		x0 := col * cellWidth
		y0 := row * (cellHeight + labelHeight)

		drawFitted(out, image.Rect(x0, y0, x0+cellWidth, y0+cellHeight), f.Image)
		drawLabel(out, x0, y0+cellHeight, FormatTimestamp(f.Timestamp))
	}
	return out, cols, rows
}

// drawFitted scales src into cell preserving aspect ratio, centered.
func drawFitted(dst *image.RGBA, cell image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}
	scale := math.Min(
		float64(cell.Dx())/float64(sb.Dx()),
		float64(cell.Dy())/float64(sb.Dy()),
	)
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	x := cell.Min.X + (cell.Dx()-w)/2
	y := cell.Min.Y + (cell.Dy()-h)/2

	draw.ApproxBiLinear.Scale(dst, image.Rect(x, y, x+w, y+h), src, sb, draw.Src, nil)
}

// drawLabel paints a timestamp strip under a cell.
func drawLabel(dst *image.RGBA, x, y int, text string) {
	strip := image.Rect(x, y, x+cellWidth, y+labelHeight)
	draw.Draw(dst, strip, image.NewUniform(color.RGBA{30, 30, 30, 255}), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x+6, y+labelHeight-5),
	}
	d.DrawString(text)
}

// FormatTimestamp renders seconds as M:SS.ss for frame labels.
func FormatTimestamp(ts float64) string {
	if ts < 0 {
		ts = 0
	}
	m := int(ts) / 60
	return fmt.Sprintf("%d:%05.2f", m, ts-float64(m*60))
}

// EncodeJPEG serializes an image at the grid quality setting.
func EncodeJPEG(img image.Image) (entity.ImagePayload, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return entity.ImagePayload{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return entity.ImagePayload{Bytes: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// EncodePNG serializes an image losslessly, used for single precise frames
// and annotated output.
func EncodePNG(img image.Image) (entity.ImagePayload, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return entity.ImagePayload{}, fmt.Errorf("encode png: %w", err)
	}
	return entity.ImagePayload{Bytes: buf.Bytes(), MIME: "image/png"}, nil
}
