package engine

import (
	"context"
	"math"
	"testing"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulateHeatStaticVideo(t *testing.T) {
	h := newFakeHandle(3, 10)

	grid, err := AccumulateHeat(context.Background(), h, 0, 3, DefaultSignalConfig())
	require.NoError(t, err)
	require.NotEmpty(t, grid.Values)
	assert.Zero(t, grid.Max())
}

func TestAccumulateHeatAlternatingVideo(t *testing.T) {
	h := newFakeHandle(2, 10)
	h.lumAt = func(ts float64) uint8 {
		if int(math.Round(ts*10))%2 == 0 {
			return 50
		}
		return 150
	}

	grid, err := AccumulateHeat(context.Background(), h, 0, 2, DefaultSignalConfig())
	require.NoError(t, err)
	require.Positive(t, grid.Frames)

	// Every pixel flips by 100 grey levels each frame pair.
	want := float64(grid.Frames) * 100
	for i, v := range grid.Values {
		assert.InDelta(t, want, v, 1e-9, "pixel %d", i)
	}
	assert.Equal(t, want, grid.Max())
}

func TestAccumulateHeatRangeDefaults(t *testing.T) {
	h := newFakeHandle(5, 10)

	grid, err := AccumulateHeat(context.Background(), h, -1, 0, DefaultSignalConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, grid.Values)

	_, err = AccumulateHeat(context.Background(), h, 4, 2, DefaultSignalConfig())
	assert.True(t, entity.IsKind(err, entity.KindInvalidRange))
}

func TestAccumulateHeatScalesToAnalysisWidth(t *testing.T) {
	h := newFakeHandle(2, 10)
	h.md.Width = 640
	h.md.Height = 360

	cfg := DefaultSignalConfig()
	grid, err := AccumulateHeat(context.Background(), h, 0, 2, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Width, grid.Width)
	assert.Equal(t, 90, grid.Height)
}
