package engine

import (
	"context"
	"image"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
)

// noiseFloor is the raw mean-absolute-difference (out of 255) below which
// a frame pair counts as identical. Encoder compression jitters otherwise
// static frames by a grey level or two.
const noiseFloor = 2.0

// SignalConfig fixes the cadence and resolution of the shared diff
// pipeline. Motion, scene, and pause detection all read the same signal;
// their parameters change thresholding only.
type SignalConfig struct {
	FPSCap float64 // decode cadence cap, native fps when lower
	Width  int     // downscale width for differencing
}

// DefaultSignalConfig matches the documented analysis defaults.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{FPSCap: 30, Width: 160}
}

// Cadence returns the effective sampling rate for a video.
func (c SignalConfig) Cadence(md entity.VideoMetadata) float64 {
	cadence := md.FPS
	if cadence <= 0 || cadence > c.FPSCap {
		cadence = c.FPSCap
	}
	return cadence
}

// ComputeSignal decodes the whole video once and produces its change
// signal: one sample per consecutive frame pair, intensity normalized to
// [0,1] with the compression noise floor applied.
func ComputeSignal(ctx context.Context, h port.VideoHandle, cfg SignalConfig) (entity.ChangeSignal, error) {
	md := h.Metadata()
	sig := entity.ChangeSignal{
		Cadence:  cfg.Cadence(md),
		Duration: md.DurationSeconds,
	}
	if md.DurationSeconds <= 0 {
		return sig, nil
	}

	var prev *image.Gray
	err := h.GrayFrames(ctx, 0, md.DurationSeconds, sig.Cadence, cfg.Width, func(ts float64, img *image.Gray) error {
		if prev != nil {
			sig.Samples = append(sig.Samples, entity.Sample{
				Timestamp: ts,
				Intensity: FrameDelta(prev, img),
			})
		}
		prev = img
		return nil
	})
	if err != nil {
		return entity.ChangeSignal{}, err
	}
	return sig, nil
}

// FrameDelta returns the normalized mean absolute pixel difference between
// two equally sized grayscale frames. It is symmetric, zero for identical
// frames, and clamps sub-noise-floor differences to zero.
func FrameDelta(a, b *image.Gray) float64 {
	if len(a.Pix) == 0 || len(a.Pix) != len(b.Pix) {
		return 0
	}
	var sum uint64
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		sum += uint64(d)
	}
	mean := float64(sum) / float64(len(a.Pix))
	if mean < noiseFloor {
		return 0
	}
	return mean / 255.0
}
