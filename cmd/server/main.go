package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/framelens/framelens-engine/internal/api"
	"github.com/framelens/framelens-engine/internal/domain/port"
	"github.com/framelens/framelens-engine/internal/engine"
	"github.com/framelens/framelens-engine/internal/infra/artifact"
	"github.com/framelens/framelens-engine/internal/infra/cache"
	"github.com/framelens/framelens-engine/internal/infra/config"
	"github.com/framelens/framelens-engine/internal/infra/ffmpeg"
	"github.com/framelens/framelens-engine/internal/infra/library"
	"github.com/framelens/framelens-engine/internal/infra/metrics"
	"github.com/framelens/framelens-engine/internal/infra/plot"
	"github.com/framelens/framelens-engine/internal/infra/tracing"
	"github.com/framelens/framelens-engine/internal/infra/transcribe"
	"github.com/framelens/framelens-engine/internal/usecase"
	"github.com/framelens/framelens-engine/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting framelens-engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unreachable)
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
	}

	// Video library
	resolver, err := library.NewResolver(cfg.VideoRoot)
	fatalOnErr(err, "open video library")

	// Analysis cache
	cachePath := cfg.CachePath
	if cachePath == "" {
		cachePath = filepath.Join(cfg.VideoRoot, ".framelens_cache", "analysis.db")
	}
	fatalOnErr(os.MkdirAll(filepath.Dir(cachePath), 0o755), "create cache directory")
	store, err := cache.NewStore(cachePath, log)
	fatalOnErr(err, "open analysis cache")
	defer store.Close()

	// Decoder
	opener := ffmpeg.NewOpener(cfg.FFmpegPath, cfg.FFprobePath, log)

	// Transcription backend
	var transcriber port.Transcriber
	if cfg.TranscribeKey != "" {
		transcriber = transcribe.NewWhisperClient(cfg.TranscribeURL, cfg.TranscribeKey, cfg.TranscribeModel, log)
	} else {
		transcriber = transcribe.Unavailable{Reason: "no API key configured"}
		log.Warn("transcription disabled: FRAMELENS_TRANSCRIBE_KEY is empty")
	}

	// Debug artifact sink
	var sink port.ArtifactSink = artifact.Discard{}
	switch {
	case cfg.MinIOEndpoint != "":
		minioSink, err := artifact.NewMinIOSink(artifact.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
		}, log)
		fatalOnErr(err, "create minio artifact sink")
		fatalOnErr(minioSink.EnsureBucket(ctx), "ensure artifact bucket")
		sink = minioSink
	case cfg.DebugDir != "":
		sink = artifact.NewFSSink(cfg.DebugDir, log)
	case cfg.DebugAll:
		sink = artifact.NewFSSink(filepath.Join(cfg.VideoRoot, ".framelens_debug"), log)
	}

	analyzer := usecase.NewAnalyzer(
		resolver, opener, store, transcriber,
		plot.NewTimelinePlotter(), sink, log,
		usecase.AnalyzerConfig{
			SignalConfig: engine.SignalConfig{FPSCap: cfg.AnalysisFPSCap, Width: cfg.AnalysisWidth},
			DebugAll:     cfg.DebugAll,
			TempDir:      os.TempDir(),
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log)

	// HTTP API
	server := api.NewServer(analyzer, log)
	go func() {
		addr := ":" + strconv.Itoa(cfg.HTTPPort)
		log.Info("framelens-engine listening", zap.String("addr", addr))
		if err := server.Start(addr); err != nil {
			log.Error("http server stopped", zap.Error(err))
			cancel()
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	metricsSrv.Shutdown(shutdownCtx)

	log.Info("framelens-engine stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
