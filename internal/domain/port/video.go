package port

import (
	"context"
	"image"

	"github.com/framelens/framelens-engine/internal/domain/entity"
)

// GrayFrameFunc receives one decoded grayscale frame. Returning an error
// stops the stream.
type GrayFrameFunc func(timestamp float64, img *image.Gray) error

// VideoHandle exposes one opened video container. Handles are cheap and
// request-scoped: every decode call runs its own decoder, so a handle is
// safe for concurrent use and two handles to the same file never share
// state.
type VideoHandle interface {
	// Metadata returns the container metadata, derived once per handle.
	Metadata() entity.VideoMetadata

	// FrameAt decodes the native frame nearest to ts, in upright display
	// orientation. Fails with SeekOutOfRange when ts is negative or beyond
	// the duration.
	FrameAt(ctx context.Context, ts float64) (*entity.Frame, error)

	// GrayFrames streams grayscale frames over [start, end] at the given
	// cadence. width <= 0 decodes at native resolution; otherwise frames are
	// scaled to the given width preserving aspect ratio.
	GrayFrames(ctx context.Context, start, end, fps float64, width int, fn GrayFrameFunc) error

	// ExtractAudio writes the audio track as 16 kHz mono WAV to destPath.
	ExtractAudio(ctx context.Context, destPath string) error
}

// VideoOpener opens video containers. Implementations hide all decoder and
// container quirks; nothing above this interface branches on codec or
// platform.
type VideoOpener interface {
	Open(ctx context.Context, path string) (VideoHandle, error)
}
