// Package ffmpeg implements the video handle on top of the ffmpeg and
// ffprobe binaries. Every decode call runs its own subprocess, so handles
// carry no mutable decoder state and are safe for concurrent use. Rotation
// side data is honored by ffmpeg's autorotation; all pixel output is in
// upright display orientation.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
	"github.com/framelens/framelens-engine/internal/infra/metrics"
	"go.uber.org/zap"
)

type Opener struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

func NewOpener(ffmpegPath, ffprobePath string, logger *zap.Logger) *Opener {
	return &Opener{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

// Open probes the container and returns a request-scoped handle.
func (o *Opener) Open(ctx context.Context, path string) (port.VideoHandle, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, entity.WrapError(entity.KindNotFound, err, "video not found: %s", path)
	}

	md, err := probe(ctx, o.ffprobePath, path, st.Size(), st.ModTime())
	if err != nil {
		return nil, err
	}

	o.logger.Debug("opened video",
		zap.String("path", path),
		zap.Float64("duration", md.DurationSeconds),
		zap.Float64("fps", md.FPS),
		zap.String("resolution", md.Resolution()),
		zap.String("codec", md.Codec),
		zap.Int("rotation", md.RotationDegrees),
	)

	return &Handle{
		path:       path,
		ffmpegPath: o.ffmpegPath,
		metadata:   md,
	}, nil
}

// Handle is an opened video. All fields are immutable after Open.
type Handle struct {
	path       string
	ffmpegPath string
	metadata   entity.VideoMetadata
}

func (h *Handle) Metadata() entity.VideoMetadata { return h.metadata }

// FrameAt decodes the single native frame nearest to ts.
func (h *Handle) FrameAt(ctx context.Context, ts float64) (*entity.Frame, error) {
	md := h.metadata
	if ts < 0 || ts > md.DurationSeconds {
		return nil, entity.NewError(entity.KindSeekOutOfRange,
			"timestamp %.3fs outside [0, %.3fs]", ts, md.DurationSeconds)
	}

	actual := md.NearestFrameTime(ts)
	// The final frame starts one frame interval before the duration; seeking
	// at or past it decodes nothing.
	if md.FPS > 0 {
		last := md.DurationSeconds - 1.0/md.FPS
		if last > 0 && actual > last {
			actual = md.NearestFrameTime(last)
		}
	}

	w, hgt := md.Width, md.Height
	args := []string{
		"-v", "error",
		"-ss", fmt.Sprintf("%.6f", actual),
		"-i", h.path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}

	raw, err := h.runRawVideo(ctx, args, w*hgt*3)
	if err != nil {
		return nil, err
	}
	if len(raw) < w*hgt*3 {
		return nil, entity.NewError(entity.KindUnreadable,
			"decoded %d bytes at %.3fs, want %d", len(raw), actual, w*hgt*3)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, hgt))
	for y := 0; y < hgt; y++ {
		src := raw[y*w*3 : (y+1)*w*3]
		dst := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			dst[x*4+0] = src[x*3+0]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}

	metrics.FramesDecodedTotal.Inc()

	return &entity.Frame{
		Timestamp:       ts,
		ActualTimestamp: actual,
		Image:           img,
		Width:           w,
		Height:          hgt,
	}, nil
}

// GrayFrames streams grayscale frames over [start, end] at the given
// cadence, scaled to width when width > 0.
func (h *Handle) GrayFrames(ctx context.Context, start, end, fps float64, width int, fn port.GrayFrameFunc) error {
	md := h.metadata
	if end <= start {
		return entity.NewError(entity.KindInvalidRange,
			"start (%.3fs) must be less than end (%.3fs)", start, end)
	}
	if start < 0 || end > md.DurationSeconds+1e-9 {
		return entity.NewError(entity.KindSeekOutOfRange,
			"range [%.3fs, %.3fs] outside [0, %.3fs]", start, end, md.DurationSeconds)
	}
	if fps <= 0 {
		return entity.NewError(entity.KindInvalidRange, "cadence must be positive, got %g", fps)
	}

	w, hgt := md.Width, md.Height
	vf := fmt.Sprintf("fps=%g", fps)
	if width > 0 && width < w {
		hgt = int(math.Round(float64(md.Height) * float64(width) / float64(w)))
		if hgt < 1 {
			hgt = 1
		}
		w = width
		vf = fmt.Sprintf("fps=%g,scale=%d:%d", fps, w, hgt)
	}

	args := []string{
		"-v", "error",
		"-ss", fmt.Sprintf("%.6f", start),
		"-t", fmt.Sprintf("%.6f", end-start),
		"-i", h.path,
		"-vf", vf,
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-",
	}

	cmd := exec.CommandContext(ctx, h.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return entity.WrapError(entity.KindUnreadable, err, "start ffmpeg for %s", h.path)
	}

	frameSize := w * hgt
	buf := make([]byte, frameSize)
	i := 0
	var callbackErr error
	for {
		if _, err := io.ReadFull(stdout, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			callbackErr = fmt.Errorf("read frame %d: %w", i, err)
			break
		}
		metrics.FramesDecodedTotal.Inc()

		img := &image.Gray{
			Pix:    append([]byte(nil), buf...),
			Stride: w,
			Rect:   image.Rect(0, 0, w, hgt),
		}
		ts := start + float64(i)/fps
		if err := fn(ts, img); err != nil {
			callbackErr = err
			break
		}
		i++
	}

	if callbackErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return callbackErr
	}
	if err := cmd.Wait(); err != nil {
		return entity.WrapError(entity.KindUnreadable, err,
			"ffmpeg decode failed for %s: %s", h.path, stderr.String())
	}
	return nil
}

// ExtractAudio writes the audio track to destPath as 16 kHz mono PCM WAV,
// the input format transcription backends expect.
func (h *Handle) ExtractAudio(ctx context.Context, destPath string) error {
	if !h.metadata.HasAudio {
		return entity.NewError(entity.KindInvalidRange, "%s has no audio track", h.path)
	}
	cmd := exec.CommandContext(ctx, h.ffmpegPath,
		"-v", "error",
		"-i", h.path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y", destPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return entity.WrapError(entity.KindUnreadable, err,
			"audio extraction failed: %s", string(out))
	}
	return nil
}

func (h *Handle) runRawVideo(ctx context.Context, args []string, want int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, h.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	stdout.Grow(want)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, entity.WrapError(entity.KindUnreadable, err,
			"ffmpeg decode failed for %s: %s", h.path, stderr.String())
	}
	return stdout.Bytes(), nil
}
