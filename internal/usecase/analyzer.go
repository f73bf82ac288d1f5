// Package usecase implements the analysis operations on top of the domain
// ports. Every operation resolves its video through the library, runs the
// minimum decoding it needs, and memoizes expensive intermediates in the
// cache.
package usecase

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
	"github.com/framelens/framelens-engine/internal/engine"
	"github.com/framelens/framelens-engine/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type Analyzer struct {
	library     port.VideoLibrary
	opener      port.VideoOpener
	cache       port.AnalysisCache
	transcriber port.Transcriber
	plotter     port.TimelinePlotter
	artifacts   port.ArtifactSink
	logger      *zap.Logger
	signalCfg   engine.SignalConfig
	debugAll    bool
	tempDir     string
}

type AnalyzerConfig struct {
	SignalConfig engine.SignalConfig
	DebugAll     bool
	TempDir      string
}

func NewAnalyzer(
	library port.VideoLibrary,
	opener port.VideoOpener,
	cache port.AnalysisCache,
	transcriber port.Transcriber,
	plotter port.TimelinePlotter,
	artifacts port.ArtifactSink,
	logger *zap.Logger,
	cfg AnalyzerConfig,
) *Analyzer {
	return &Analyzer{
		library:     library,
		opener:      opener,
		cache:       cache,
		transcriber: transcriber,
		plotter:     plotter,
		artifacts:   artifacts,
		logger:      logger,
		signalCfg:   cfg.SignalConfig,
		debugAll:    cfg.DebugAll,
		tempDir:     cfg.TempDir,
	}
}

// instrument opens a span and returns a completion callback that records
// the operation's status and duration.
func (a *Analyzer) instrument(ctx context.Context, operation, filename string) (context.Context, func(error)) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, operation)
	span.SetAttributes(attribute.String("video.filename", filename))
	start := time.Now()

	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			status = string(entity.KindOf(err))
			if status == "" {
				status = "error"
			}
		}
		metrics.OperationsTotal.WithLabelValues(operation, status).Inc()
		metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		span.End()
	}
}

// openVideo resolves a filename and opens its handle.
func (a *Analyzer) openVideo(ctx context.Context, filename string) (entity.VideoIdentity, port.VideoHandle, error) {
	id, err := a.library.Resolve(filename)
	if err != nil {
		return entity.VideoIdentity{}, nil, err
	}
	h, err := a.opener.Open(ctx, id.Path)
	if err != nil {
		return entity.VideoIdentity{}, nil, err
	}
	return id, h, nil
}

// cachedMetadata returns the video's metadata, probing at most once per
// file identity.
func (a *Analyzer) cachedMetadata(ctx context.Context, id entity.VideoIdentity) (entity.VideoMetadata, bool, error) {
	payload, hit, err := a.cache.GetOrCompute(ctx, id, entity.CacheKindMetadata, "v1",
		func(ctx context.Context) ([]byte, error) {
			h, err := a.opener.Open(ctx, id.Path)
			if err != nil {
				return nil, err
			}
			return json.Marshal(h.Metadata())
		})
	if err != nil {
		return entity.VideoMetadata{}, false, err
	}

	var md entity.VideoMetadata
	if err := json.Unmarshal(payload, &md); err != nil {
		// Undecodable entry: recompute through the decoder directly.
		a.logger.Warn("corrupt metadata cache entry", zap.String("video", id.Name), zap.Error(err))
		h, err := a.opener.Open(ctx, id.Path)
		if err != nil {
			return entity.VideoMetadata{}, false, err
		}
		return h.Metadata(), false, nil
	}
	return md, hit, nil
}

// cachedSignal returns the video's change signal, computing it at most
// once per file identity and analysis configuration.
func (a *Analyzer) cachedSignal(ctx context.Context, id entity.VideoIdentity) (entity.ChangeSignal, bool, error) {
	fingerprint := entity.Fingerprint(a.signalCfg)
	payload, hit, err := a.cache.GetOrCompute(ctx, id, entity.CacheKindChangeSignal, fingerprint,
		func(ctx context.Context) ([]byte, error) {
			h, err := a.opener.Open(ctx, id.Path)
			if err != nil {
				return nil, err
			}
			sig, err := engine.ComputeSignal(ctx, h, a.signalCfg)
			if err != nil {
				return nil, err
			}
			return json.Marshal(sig)
		})
	if err != nil {
		return entity.ChangeSignal{}, false, err
	}

	var sig entity.ChangeSignal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return entity.ChangeSignal{}, false, entity.WrapError(entity.KindBackendFailure, err,
			"decode change signal for %q", id.Name)
	}
	return sig, hit, nil
}

// saveDebug persists an operation's result (and any rendered images) via
// the artifact sink. Failures are logged and swallowed; debug output never
// fails an operation.
func (a *Analyzer) saveDebug(ctx context.Context, enabled bool, filename, operation string, result any, images map[string][]byte) {
	if !enabled && !a.debugAll {
		return
	}
	dir := a.artifacts.Dir(filename, operation)
	if err := a.artifacts.SaveJSON(ctx, dir, "result.json", result); err != nil {
		a.logger.Warn("save debug result", zap.String("operation", operation), zap.Error(err))
	}
	for name, data := range images {
		if len(data) == 0 {
			continue
		}
		if err := a.artifacts.SaveImage(ctx, dir, name, data); err != nil {
			a.logger.Warn("save debug image", zap.String("artifact", name), zap.Error(err))
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
