package engine

import (
	"context"
	"testing"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUniformMidpointSpacing(t *testing.T) {
	h := newFakeHandle(10, 30)

	frames, warnings, err := ExtractUniform(context.Background(), h, 0, 10, 4)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, frames, 4)

	want := []float64{1.25, 3.75, 6.25, 8.75}
	for i, f := range frames {
		assert.InDelta(t, want[i], f.Timestamp, 1e-9)
	}
}

func TestExtractUniformSingleFrame(t *testing.T) {
	h := newFakeHandle(10, 30)

	frames, _, err := ExtractUniform(context.Background(), h, 2, 8, 1)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.InDelta(t, 5.0, frames[0].Timestamp, 1e-9)
}

func TestExtractUniformInvalidRange(t *testing.T) {
	h := newFakeHandle(10, 30)

	_, _, err := ExtractUniform(context.Background(), h, 0, 10, 0)
	assert.True(t, entity.IsKind(err, entity.KindInvalidRange))

	_, _, err = ExtractUniform(context.Background(), h, 5, 5, 4)
	assert.True(t, entity.IsKind(err, entity.KindInvalidRange))
}

func TestExtractUniformDecodeFailuresBecomeWarnings(t *testing.T) {
	h := newFakeHandle(10, 30)
	h.frameAtErr = entity.NewError(entity.KindUnreadable, "corrupt packet")

	frames, warnings, err := ExtractUniform(context.Background(), h, 0, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, frames)
	assert.Len(t, warnings, 3)
}

func TestExtractKeyframesSpreadsAcrossDistinctContent(t *testing.T) {
	// Three visually distinct thirds.
	h := newFakeHandle(9, 30)
	h.lumAt = func(ts float64) uint8 {
		switch {
		case ts < 3:
			return 30
		case ts < 6:
			return 128
		default:
			return 220
		}
	}

	frames, warnings, err := ExtractKeyframes(context.Background(), h, 0, 9, 3)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, frames, 3)

	for i := 1; i < len(frames); i++ {
		assert.Greater(t, frames[i].Timestamp, frames[i-1].Timestamp)
	}

	// Each third should contribute a frame.
	thirds := map[int]bool{}
	for _, f := range frames {
		thirds[int(f.Timestamp/3)] = true
	}
	assert.Len(t, thirds, 3)
}

func TestExtractKeyframesFallsBackToUniform(t *testing.T) {
	// At 1 fps over 2s there are fewer candidates than requested frames.
	h := newFakeHandle(2, 1)

	frames, _, err := ExtractKeyframes(context.Background(), h, 0, 2, 4)
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.InDelta(t, 0.25, frames[0].Timestamp, 1e-9)
}

func TestExtractAtPreservesOrderAndDuplicates(t *testing.T) {
	h := newFakeHandle(10, 30)

	frames, warnings, err := ExtractAt(context.Background(), h, []float64{5, 1, 5})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, frames, 3)
	assert.Equal(t, 5.0, frames[0].Timestamp)
	assert.Equal(t, 1.0, frames[1].Timestamp)
	assert.Equal(t, 5.0, frames[2].Timestamp)
}

func TestExtractAtClampsOutOfRange(t *testing.T) {
	h := newFakeHandle(10, 30)

	frames, warnings, err := ExtractAt(context.Background(), h, []float64{-1, 15})
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
	require.Len(t, frames, 2)

	// Requested timestamps are preserved; decode happened at the clamp.
	assert.Equal(t, -1.0, frames[0].Timestamp)
	assert.Equal(t, 0.0, frames[0].ActualTimestamp)
	assert.Equal(t, 15.0, frames[1].Timestamp)
	assert.Equal(t, 10.0, frames[1].ActualTimestamp)
}

func TestExtractAtEmptyInput(t *testing.T) {
	h := newFakeHandle(10, 30)

	_, _, err := ExtractAt(context.Background(), h, nil)
	assert.True(t, entity.IsKind(err, entity.KindInvalidRange))
}
