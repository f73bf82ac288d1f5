package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameDeltaIdenticalFrames(t *testing.T) {
	a := uniformGray(8, 8, 100)
	b := uniformGray(8, 8, 100)

	assert.Zero(t, FrameDelta(a, b))
}

func TestFrameDeltaSymmetric(t *testing.T) {
	a := uniformGray(8, 8, 40)
	b := uniformGray(8, 8, 140)

	assert.Equal(t, FrameDelta(a, b), FrameDelta(b, a))
	assert.InDelta(t, 100.0/255.0, FrameDelta(a, b), 1e-9)
}

func TestFrameDeltaNoiseFloor(t *testing.T) {
	a := uniformGray(8, 8, 100)
	b := uniformGray(8, 8, 101)

	// One grey level of encoder jitter is below the noise floor.
	assert.Zero(t, FrameDelta(a, b))
}

func TestFrameDeltaMismatchedSizes(t *testing.T) {
	a := uniformGray(8, 8, 100)
	b := uniformGray(4, 4, 200)

	assert.Zero(t, FrameDelta(a, b))
}

func TestComputeSignalAlternatingFrames(t *testing.T) {
	h := newFakeHandle(5, 10)
	h.lumAt = func(ts float64) uint8 {
		if int(math.Round(ts*10))%2 == 0 {
			return 50
		}
		return 150
	}

	sig, err := ComputeSignal(context.Background(), h, DefaultSignalConfig())
	require.NoError(t, err)

	assert.Equal(t, 10.0, sig.Cadence)
	assert.Equal(t, 5.0, sig.Duration)
	require.NotEmpty(t, sig.Samples)

	for i, s := range sig.Samples {
		assert.InDelta(t, 100.0/255.0, s.Intensity, 1e-9, "sample %d", i)
		if i > 0 {
			assert.Greater(t, s.Timestamp, sig.Samples[i-1].Timestamp)
		}
	}
}

func TestComputeSignalStaticVideoIsSilent(t *testing.T) {
	h := newFakeHandle(3, 10)

	sig, err := ComputeSignal(context.Background(), h, DefaultSignalConfig())
	require.NoError(t, err)
	require.NotEmpty(t, sig.Samples)

	for _, s := range sig.Samples {
		assert.Zero(t, s.Intensity)
	}
}

func TestComputeSignalCadenceCappedByConfig(t *testing.T) {
	h := newFakeHandle(2, 60)

	sig, err := ComputeSignal(context.Background(), h, DefaultSignalConfig())
	require.NoError(t, err)
	assert.Equal(t, 30.0, sig.Cadence)
}

func TestComputeSignalZeroDuration(t *testing.T) {
	h := newFakeHandle(0, 30)

	sig, err := ComputeSignal(context.Background(), h, DefaultSignalConfig())
	require.NoError(t, err)
	assert.True(t, sig.Empty())
}

func TestSignalConfigCadenceUsesNativeFPSWhenLower(t *testing.T) {
	cfg := DefaultSignalConfig()
	md := newFakeHandle(1, 12).Metadata()

	assert.Equal(t, 12.0, cfg.Cadence(md))

	md.FPS = math.Inf(1)
	assert.Equal(t, 30.0, cfg.Cadence(md))
}
