package usecase

import (
	"context"
	"image"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
	"github.com/framelens/framelens-engine/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- fakes -----------------------------------------------------------------

type fakeLibrary struct {
	root  string
	files map[string]entity.VideoIdentity
	names []string
}

func (l *fakeLibrary) Root() string { return l.root }

func (l *fakeLibrary) Resolve(filename string) (entity.VideoIdentity, error) {
	id, ok := l.files[filename]
	if !ok {
		return entity.VideoIdentity{}, entity.NewError(entity.KindNotFound, "file not found: %q", filename)
	}
	return id, nil
}

func (l *fakeLibrary) ListVideoFiles(string) ([]string, error) { return l.names, nil }

type fakeHandle struct {
	md    entity.VideoMetadata
	lumAt func(ts float64) uint8

	audioErr error
}

func (f *fakeHandle) Metadata() entity.VideoMetadata { return f.md }

func (f *fakeHandle) FrameAt(_ context.Context, ts float64) (*entity.Frame, error) {
	if ts < 0 || ts > f.md.DurationSeconds {
		return nil, entity.NewError(entity.KindSeekOutOfRange,
			"timestamp %.3fs outside [0, %.3fs]", ts, f.md.DurationSeconds)
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
		img := image.NewGray(image.Rect(0, 0, w, h))
		lum := f.lumAt(ts)
		for j := range img.Pix {
			img.Pix[j] = lum
		}
		if err := fn(ts, img); err != nil {
			return err
		}
	}
}

func (f *fakeHandle) ExtractAudio(_ context.Context, destPath string) error {
	if f.audioErr != nil {
		return f.audioErr
	}
	return os.WriteFile(destPath, []byte("RIFFfake"), 0o644)
}

type fakeOpener struct {
	handles map[string]*fakeHandle
	opens   int
}

func (o *fakeOpener) Open(_ context.Context, path string) (port.VideoHandle, error) {
	o.opens++
	h, ok := o.handles[path]
	if !ok {
		return nil, entity.NewError(entity.KindNotFound, "video not found: %s", path)
	}
	return h, nil
}

// fakeCache is a simple map-backed passthrough.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	cleared []entity.ClearedEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) GetOrCompute(ctx context.Context, id entity.VideoIdentity, kind entity.CacheKind, fingerprint string, compute port.ComputeFunc) ([]byte, bool, error) {
	key := id.Name + "|" + string(kind) + "|" + fingerprint
	c.mu.Lock()
	if payload, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return payload, true, nil
	}
	c.mu.Unlock()

	payload, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	c.entries[key] = payload
	c.mu.Unlock()
	return payload, false, nil
}

func (c *fakeCache) Invalidate(context.Context, string, entity.CacheKind) ([]entity.ClearedEntry, error) {
	return c.cleared, nil
}

func (c *fakeCache) Status(_ context.Context, filename string) (map[entity.CacheKind]bool, error) {
	status := map[entity.CacheKind]bool{}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) > len(filename) && key[:len(filename)] == filename {
			// key layout: name|kind|fingerprint
			rest := key[len(filename)+1:]
			for i := range rest {
				if rest[i] == '|' {
					status[entity.CacheKind(rest[:i])] = true
					break
				}
			}
		}
	}
	return status, nil
}

type fakeTranscriber struct {
	transcript *entity.Transcript
	err        error
	calls      int
}

func (f *fakeTranscriber) BackendName() string { return "fake" }

func (f *fakeTranscriber) Transcribe(context.Context, string) (*entity.Transcript, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

type fakePlotter struct{ calls int }

func (f *fakePlotter) Available() bool { return true }

func (f *fakePlotter) RenderTimeline(string, []port.TimelineBucket, float64, float64) ([]byte, error) {
	f.calls++
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	images map[string][]byte
	jsons  map[string]any
}

func newRecordingSink() *recordingSink {
	return &recordingSink{images: map[string][]byte{}, jsons: map[string]any{}}
}

func (s *recordingSink) Dir(filename, operation string) string { return filename + "/" + operation }

func (s *recordingSink) SaveImage(_ context.Context, dir, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[dir+"/"+name] = data
	return nil
}

func (s *recordingSink) SaveJSON(_ context.Context, dir, name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jsons[dir+"/"+name] = v
	return nil
}

// --- fixture ---------------------------------------------------------------

type fixture struct {
	analyzer    *Analyzer
	library     *fakeLibrary
	opener      *fakeOpener
	cache       *fakeCache
	transcriber *fakeTranscriber
	plotter     *fakePlotter
	sink        *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	handle := &fakeHandle{
		md: entity.VideoMetadata{
			DurationSeconds: 10,
			FPS:             10,
			Width:           64,
			Height:          48,
			TotalFrames:     100,
			Codec:           "h264",
			HasAudio:        true,
			AudioCodec:      "aac",
		},
		// Hard cut at 5s, otherwise static.
		lumAt: func(ts float64) uint8 {
			if ts < 5 {
				return 40
			}
			return 200
		},
	}

	f := &fixture{
		library: &fakeLibrary{
			root: "/videos",
			files: map[string]entity.VideoIdentity{
				"clip.mp4": {Name: "clip.mp4", Path: "/videos/clip.mp4", Size: 2 << 20},
			},
			names: []string{"clip.mp4"},
		},
		opener:      &fakeOpener{handles: map[string]*fakeHandle{"/videos/clip.mp4": handle}},
		cache:       newFakeCache(),
		transcriber: &fakeTranscriber{},
		plotter:     &fakePlotter{},
		sink:        newRecordingSink(),
	}
	f.analyzer = NewAnalyzer(
		f.library, f.opener, f.cache, f.transcriber, f.plotter, f.sink,
		zap.NewNop(),
		AnalyzerConfig{SignalConfig: engine.DefaultSignalConfig(), TempDir: t.TempDir()},
	)
	return f
}

// --- tests -----------------------------------------------------------------

func TestOverviewBuildsGrid(t *testing.T) {
	f := newFixture(t)

	res, err := f.analyzer.Overview(context.Background(), entity.OverviewParams{
		Filename: "clip.mp4", MaxFrames: 6, Selection: entity.SelectionEven,
	})
	require.NoError(t, err)

	assert.Equal(t, "clip.mp4", res.Filename)
	assert.Equal(t, 6, res.FramesShown)
	assert.Len(t, res.FrameTimestamps, 6)
	assert.Equal(t, 3, res.GridCols)
	assert.Equal(t, 2, res.GridRows)
	assert.Equal(t, 10.0, res.EndSeconds)
	assert.Equal(t, "image/jpeg", res.Image.MIME)
	assert.NotEmpty(t, res.Image.Bytes)
}

func TestOverviewValidatesParams(t *testing.T) {
	f := newFixture(t)

	_, err := f.analyzer.Overview(context.Background(), entity.OverviewParams{
		Filename: "clip.mp4", MaxFrames: 6, Selection: "sideways",
	})
	assert.True(t, entity.IsKind(err, entity.KindInvalidRange))

	_, err = f.analyzer.Overview(context.Background(), entity.OverviewParams{
		Filename: "missing.mp4", MaxFrames: 6, Selection: entity.SelectionEven,
	})
	assert.True(t, entity.IsKind(err, entity.KindNotFound))
}

func TestSectionClampsEndWithWarning(t *testing.T) {
	f := newFixture(t)

	res, err := f.analyzer.Section(context.Background(), entity.SectionParams{
		Filename: "clip.mp4", StartSeconds: 2, EndSeconds: 50,
		MaxFrames: 4, Selection: entity.SelectionEven,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.EndSeconds)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "clamped")
}

func TestSectionStartPastEnd(t *testing.T) {
	f := newFixture(t)

	_, err := f.analyzer.Section(context.Background(), entity.SectionParams{
		Filename: "clip.mp4", StartSeconds: 12, EndSeconds: 15,
		MaxFrames: 4, Selection: entity.SelectionEven,
	})
	assert.True(t, entity.IsKind(err, entity.KindInvalidRange))
}

func TestPreciseFrameSeekOutOfRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.analyzer.PreciseFrame(context.Background(), entity.PreciseFrameParams{
		Filename: "clip.mp4", TimestampSeconds: 11,
	})
	assert.True(t, entity.IsKind(err, entity.KindSeekOutOfRange))

	res, err := f.analyzer.PreciseFrame(context.Background(), entity.PreciseFrameParams{
		Filename: "clip.mp4", TimestampSeconds: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.Image.MIME)
	assert.Equal(t, 3.0, res.RequestedTimestamp)
}

func TestCompareFramesClampsAndWarns(t *testing.T) {
	f := newFixture(t)

	res, err := f.analyzer.CompareFrames(context.Background(), entity.CompareFramesParams{
		Filename: "clip.mp4", Timestamps: []float64{2, 15}, Label: "before/after",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FramesShown)
	assert.Equal(t, "before/after", res.Label)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "clamped")
}

func TestDetectMotionUsesCachedSignal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	params := entity.MotionParams{Filename: "clip.mp4", Sensitivity: 0.5, MinGapSeconds: 0.5}

	_, err := f.analyzer.DetectMotion(ctx, params)
	require.NoError(t, err)
	opensAfterFirst := f.opener.opens

	res, err := f.analyzer.DetectMotion(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, opensAfterFirst, f.opener.opens, "second call must reuse the cached signal")

	// One hard cut at 5s means exactly one motion event.
	require.Equal(t, 1, res.TotalEvents)
	assert.InDelta(t, 5.0, res.Events[0].PeakSeconds, 0.2)
	assert.Equal(t, 10.0, res.DurationSeconds)
}

func TestDetectScenesFindsCut(t *testing.T) {
	f := newFixture(t)

	res, err := f.analyzer.DetectScenes(context.Background(), entity.SceneParams{
		Filename: "clip.mp4", ThresholdMultiplier: 3, MinSceneSeconds: 1,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.TotalScenes)
	require.NotNil(t, res.Scenes[0].CutSeconds)
	assert.InDelta(t, 5.0, *res.Scenes[0].CutSeconds, 0.2)
}

func TestDetectPausesOnMostlyStaticVideo(t *testing.T) {
	f := newFixture(t)

	res, err := f.analyzer.DetectPauses(context.Background(), entity.PauseParams{
		Filename: "clip.mp4", Sensitivity: 0.5, MinDurationSeconds: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", res.Filename)
	assert.NotNil(t, res.Pauses)
}

func TestMotionTimelineRendersChart(t *testing.T) {
	f := newFixture(t)

	res, err := f.analyzer.MotionTimeline(context.Background(), entity.TimelineParams{
		Filename: "clip.mp4", ResolutionSeconds: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.plotter.calls)
	assert.Equal(t, "image/png", res.Image.MIME)
	assert.InDelta(t, 5.0, res.PeakTimestamp, 0.5)
	assert.NotNil(t, res.ActivePeriods)
	assert.NotNil(t, res.QuietPeriods)
}

func TestMotionHeatmap(t *testing.T) {
	f := newFixture(t)

	res, err := f.analyzer.MotionHeatmap(context.Background(), entity.HeatmapParams{
		Filename: "clip.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.StartSeconds)
	assert.Equal(t, 10.0, res.EndSeconds)
	assert.Positive(t, res.FramesAnalyzed)
	assert.Equal(t, 64, res.Width)
	assert.Equal(t, 48, res.Height)
	assert.Equal(t, "image/png", res.Image.MIME)
}

func TestAnnotateFrameMeasuresAngles(t *testing.T) {
	f := newFixture(t)

	res, err := f.analyzer.AnnotateFrame(context.Background(), entity.AnnotateParams{
		Filename:         "clip.mp4",
		TimestampSeconds: 2,
		Lines:            []entity.LineSpec{{From: [2]int{0, 0}, To: [2]int{10, 10}}},
		Angles: []entity.AngleSpec{
			{Points: [3][2]int{{10, 0}, {10, 10}, {20, 10}}, Label: "knee"},
		},
		Labels: []entity.LabelSpec{{Point: [2]int{5, 40}, Text: "note"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.LinesDrawn)
	assert.Equal(t, 1, res.AnglesDrawn)
	assert.Equal(t, 1, res.LabelsDrawn)
	require.Len(t, res.AngleMeasurements, 1)
	assert.Equal(t, "knee: 90.0 deg", res.AngleMeasurements[0])
}

func TestAudioTranscriptWindowFiltering(t *testing.T) {
	f := newFixture(t)
	f.transcriber.transcript = &entity.Transcript{
		Backend:  "fake",
		Model:    "tiny",
		Language: "en",
		Segments: []entity.TranscriptSegment{
			{Start: 0, End: 2, Text: "first", Words: []entity.TranscriptWord{{Word: "first", Start: 0.5, End: 1}}},
			{Start: 4, End: 6, Text: "second", Words: []entity.TranscriptWord{{Word: "second", Start: 4.5, End: 5}}},
			{Start: 8, End: 9, Text: "third"},
		},
	}

	start, end := 3.0, 7.0
	res, err := f.analyzer.AudioTranscript(context.Background(), entity.TranscriptParams{
		Filename: "clip.mp4", StartSeconds: &start, EndSeconds: &end, WordLevel: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, "second", res.Segments[0].Text)
	require.Len(t, res.Words, 1)
	assert.Equal(t, "second", res.Words[0].Word)
	assert.False(t, res.Cached)

	// Second call reuses the cached transcript.
	res, err = f.analyzer.AudioTranscript(context.Background(), entity.TranscriptParams{Filename: "clip.mp4"})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, f.transcriber.calls)
	assert.Len(t, res.Segments, 3)
}

func TestAudioTranscriptNoAudioTrack(t *testing.T) {
	f := newFixture(t)
	f.opener.handles["/videos/clip.mp4"].md.HasAudio = false

	_, err := f.analyzer.AudioTranscript(context.Background(), entity.TranscriptParams{Filename: "clip.mp4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio track")
}

func TestAudioTranscriptBackendUnavailable(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = entity.NewError(entity.KindDependencyUnavailable, "transcription unavailable: no API key")

	_, err := f.analyzer.AudioTranscript(context.Background(), entity.TranscriptParams{Filename: "clip.mp4"})
	assert.True(t, entity.IsKind(err, entity.KindDependencyUnavailable))
}

func TestListVideosWithStatusAndMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Warm the metadata cache for the status report.
	_, err := f.analyzer.GetMetadata(ctx, "clip.mp4")
	require.NoError(t, err)

	res, err := f.analyzer.ListVideos(ctx, entity.ListVideosParams{
		IncludeMetadata: true, IncludeCacheStatus: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/videos", res.Root)
	require.Len(t, res.Files, 1)

	file := res.Files[0]
	assert.Equal(t, "clip.mp4", file.Filename)
	assert.Equal(t, 2.0, file.SizeMB)
	assert.True(t, file.Cached[entity.CacheKindMetadata])
	require.NotNil(t, file.Metadata)
	assert.Equal(t, 10.0, file.Metadata.DurationSeconds)
	assert.Equal(t, 1, res.TotalFiles)
}

func TestGetMetadataCachedFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.analyzer.GetMetadata(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "h264", first.Codec)

	second, err := f.analyzer.GetMetadata(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.True(t, second.Cached)
}

func TestClearCache(t *testing.T) {
	f := newFixture(t)
	f.cache.cleared = []entity.ClearedEntry{
		{Filename: "clip.mp4", Kinds: []entity.CacheKind{entity.CacheKindMetadata}, FreedBytes: 128},
	}

	res, err := f.analyzer.ClearCache(context.Background(), entity.ClearCacheParams{CacheType: entity.CacheKindAll})
	require.NoError(t, err)
	assert.Equal(t, int64(128), res.TotalFreed)
	require.Len(t, res.Cleared, 1)

	_, err = f.analyzer.ClearCache(context.Background(), entity.ClearCacheParams{CacheType: "bogus"})
	assert.True(t, entity.IsKind(err, entity.KindInvalidRange))
}

func TestDebugFlagWritesArtifacts(t *testing.T) {
	f := newFixture(t)

	_, err := f.analyzer.Overview(context.Background(), entity.OverviewParams{
		Filename: "clip.mp4", MaxFrames: 4, Selection: entity.SelectionEven, Debug: true,
	})
	require.NoError(t, err)

	assert.Contains(t, f.sink.jsons, "clip.mp4/get_video_overview/result.json")
	assert.Contains(t, f.sink.images, "clip.mp4/get_video_overview/grid.jpg")

	// Without the flag nothing is persisted.
	_, err = f.analyzer.PreciseFrame(context.Background(), entity.PreciseFrameParams{
		Filename: "clip.mp4", TimestampSeconds: 1,
	})
	require.NoError(t, err)
	assert.NotContains(t, f.sink.images, "clip.mp4/get_precise_frame/frame.png")
}
