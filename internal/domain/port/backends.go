package port

import (
	"context"

	"github.com/framelens/framelens-engine/internal/domain/entity"
)

// Transcriber converts an extracted audio file into a time-aligned
// transcript. The Unavailable implementation fails every call with
// DependencyUnavailable so missing backends degrade to explicit results
// instead of crashes.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*entity.Transcript, error)
	BackendName() string
}

// TimelineBucket is one aggregated time bucket of a change signal.
type TimelineBucket struct {
	Midpoint  float64
	Intensity float64
}

// TimelinePlotter renders a motion timeline chart as PNG bytes. Charting is
// an optional capability; the Unavailable implementation reports
// DependencyUnavailable.
type TimelinePlotter interface {
	RenderTimeline(title string, buckets []TimelineBucket, bucketSeconds, baseline float64) ([]byte, error)
	Available() bool
}

// ArtifactSink persists debug artifacts. It is a write-only side channel;
// the engine never reads artifacts back.
type ArtifactSink interface {
	// Dir allocates a new artifact directory key for one operation call.
	Dir(filename, operation string) string

	SaveImage(ctx context.Context, dir, name string, data []byte) error
	SaveJSON(ctx context.Context, dir, name string, v any) error
}
