package engine

import (
	"context"
	"image"
	"math"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
)

// fakeHandle synthesizes frames in memory so engine logic can be tested
// without a decoder. Luminance at a timestamp is controlled by lumAt.
type fakeHandle struct {
	md    entity.VideoMetadata
	lumAt func(ts float64) uint8

	frameAtErr error
}

func newFakeHandle(duration, fps float64) *fakeHandle {
	return &fakeHandle{
		md: entity.VideoMetadata{
			DurationSeconds: duration,
			FPS:             fps,
			Width:           64,
			Height:          48,
		},
		lumAt: func(float64) uint8 { return 128 },
	}
}

func (f *fakeHandle) Metadata() entity.VideoMetadata { return f.md }

func (f *fakeHandle) FrameAt(_ context.Context, ts float64) (*entity.Frame, error) {
	if f.frameAtErr != nil {
		return nil, f.frameAtErr
	}
	if ts < 0 || ts > f.md.DurationSeconds {
		return nil, entity.NewError(entity.KindSeekOutOfRange, "timestamp %.3fs out of range", ts)
	}
	img := image.NewRGBA(image.Rect(0, 0, f.md.Width, f.md.Height))
	lum := f.lumAt(ts)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = lum, lum, lum, 0xff
	}
	return &entity.Frame{
		Timestamp:       ts,
		ActualTimestamp: ts,
		Image:           img,
		Width:           f.md.Width,
		Height:          f.md.Height,
	}, nil
}

func (f *fakeHandle) GrayFrames(_ context.Context, start, end, fps float64, width int, fn port.GrayFrameFunc) error {
	if end <= start {
		return entity.NewError(entity.KindInvalidRange, "empty range")
	}
	w := f.md.Width
	if width > 0 && width < w {
		w = width
	}
	h := int(math.Round(float64(f.md.Height) * float64(w) / float64(f.md.Width)))
	for i := 0; ; i++ {
		ts := start + float64(i)/fps
		if ts > end+1e-9 {
			return nil
		}
		if err := fn(ts, uniformGray(w, h, f.lumAt(ts))); err != nil {
			return err
		}
	}
}

func (f *fakeHandle) ExtractAudio(context.Context, string) error { return nil }

func uniformGray(w, h int, lum uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = lum
	}
	return img
}

// flatSignal builds a signal with the given per-sample intensities at the
// given cadence, one sample per 1/cadence seconds starting at t=0.
func flatSignal(cadence float64, intensities []float64) entity.ChangeSignal {
	sig := entity.ChangeSignal{
		Cadence:  cadence,
		Duration: float64(len(intensities)) / cadence,
		Samples:  make([]entity.Sample, len(intensities)),
	}
	for i, v := range intensities {
		sig.Samples[i] = entity.Sample{Timestamp: float64(i) / cadence, Intensity: v}
	}
	return sig
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
