package engine

import (
	"context"
	"image"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
)

// HeatGrid holds per-pixel accumulated absolute differences at the
// analysis resolution, plus the sample count that produced it.
type HeatGrid struct {
	Width  int
	Height int
	Values []float64
	Frames int
}

// Max returns the largest accumulated value, 0 for an empty grid.
func (g HeatGrid) Max() float64 {
	var max float64
	for _, v := range g.Values {
		if v > max {
			max = v
		}
	}
	return max
}

// AccumulateHeat streams grayscale frames across [start, end] and sums
// per-pixel absolute differences between consecutive frames. The grid is
// sized at the analysis width so large videos stay cheap to scan.
func AccumulateHeat(ctx context.Context, handle port.VideoHandle, start, end float64, cfg SignalConfig) (HeatGrid, error) {
	md := handle.Metadata()
	if end <= 0 || end > md.DurationSeconds {
		end = md.DurationSeconds
	}
	if start < 0 {
		start = 0
	}
	if end <= start {
		return HeatGrid{}, entity.NewError(entity.KindInvalidRange, "heatmap range is empty")
	}

	fps := cfg.Cadence(md)
	var (
		grid HeatGrid
		prev []uint8
	)
	err := handle.GrayFrames(ctx, start, end, fps, cfg.Width, func(ts float64, img *image.Gray) error {
		if grid.Values == nil {
			b := img.Bounds()
			grid.Width = b.Dx()
			grid.Height = b.Dy()
			grid.Values = make([]float64, grid.Width*grid.Height)
			prev = make([]uint8, len(img.Pix))
			copy(prev, img.Pix)
			return nil
		}
		for i, p := range img.Pix {
			d := int(p) - int(prev[i])
			if d < 0 {
				d = -d
			}
			if float64(d) > noiseFloor {
				grid.Values[i] += float64(d)
			}
			prev[i] = p
		}
		grid.Frames++
		return nil
	})
	if err != nil {
		return HeatGrid{}, err
	}
	return grid, nil
}
