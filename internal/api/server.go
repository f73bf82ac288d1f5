// Package api exposes the analysis operations over HTTP. Every operation
// is one POST endpoint taking a JSON parameter object and returning a JSON
// result; rendered images travel base64-encoded inside the result
// envelope.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/framelens/framelens-engine/internal/usecase"
)

type Server struct {
	echo     *echo.Echo
	analyzer *usecase.Analyzer
	logger   *zap.Logger
}

func NewServer(analyzer *usecase.Analyzer, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI: true, LogStatus: true, LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	s := &Server{echo: e, analyzer: analyzer, logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	v1 := s.echo.Group("/v1")
	v1.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1.POST("/list_videos", s.handleListVideos)
	v1.POST("/get_video_metadata", s.handleGetMetadata)
	v1.POST("/get_video_overview", s.handleOverview)
	v1.POST("/get_video_section", s.handleSection)
	v1.POST("/get_precise_frame", s.handlePreciseFrame)
	v1.POST("/compare_frames", s.handleCompareFrames)
	v1.POST("/detect_motion_events", s.handleDetectMotion)
	v1.POST("/detect_scenes", s.handleDetectScenes)
	v1.POST("/detect_pauses", s.handleDetectPauses)
	v1.POST("/get_motion_timeline", s.handleMotionTimeline)
	v1.POST("/get_motion_heatmap", s.handleMotionHeatmap)
	v1.POST("/annotate_frame", s.handleAnnotateFrame)
	v1.POST("/get_audio_transcript", s.handleAudioTranscript)
	v1.POST("/clear_cache", s.handleClearCache)
}

func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long decodes
	}
	return s.echo.StartServer(srv)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.echo }
