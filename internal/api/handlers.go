package api

import (
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/framelens/framelens-engine/internal/domain/entity"
)

// errorPayload is the structured failure body shared by all endpoints.
type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// imagePayload carries rendered image bytes as base64.
type imagePayload struct {
	MIME   string `json:"mime"`
	Base64 string `json:"base64"`
}

func encodeImage(p entity.ImagePayload) *imagePayload {
	if len(p.Bytes) == 0 {
		return nil
	}
	return &imagePayload{MIME: p.MIME, Base64: base64.StdEncoding.EncodeToString(p.Bytes)}
}

// fail maps error kinds onto HTTP statuses.
func (s *Server) fail(c echo.Context, err error) error {
	kind := entity.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case entity.KindNotFound:
		status = http.StatusNotFound
	case entity.KindInvalidRange, entity.KindSeekOutOfRange, entity.KindUnsupportedCodec:
		status = http.StatusBadRequest
	case entity.KindDependencyUnavailable:
		status = http.StatusServiceUnavailable
	case entity.KindUnreadable, entity.KindBackendFailure:
		status = http.StatusBadGateway
	}
	msg := err.Error()
	if kind == "" {
		kind = "internal"
	}
	return c.JSON(status, map[string]*errorPayload{"error": {Kind: string(kind), Message: msg}})
}

func bind[P any](c echo.Context, params *P) error {
	if err := c.Bind(params); err != nil {
		return entity.NewError(entity.KindInvalidRange, "malformed request body: %v", err)
	}
	return nil
}

func (s *Server) handleListVideos(c echo.Context) error {
	p := entity.DefaultListVideosParams()
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.ListVideos(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetMetadata(c echo.Context) error {
	var p struct {
		Filename string `json:"filename"`
	}
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.GetMetadata(c.Request().Context(), p.Filename)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type gridResponse struct {
	*entity.GridResult
	Image *imagePayload `json:"image"`
}

func (s *Server) handleOverview(c echo.Context) error {
	p := entity.DefaultOverviewParams()
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.Overview(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, gridResponse{GridResult: res, Image: encodeImage(res.Image)})
}

func (s *Server) handleSection(c echo.Context) error {
	p := entity.DefaultSectionParams()
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.Section(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, gridResponse{GridResult: res, Image: encodeImage(res.Image)})
}

func (s *Server) handlePreciseFrame(c echo.Context) error {
	var p entity.PreciseFrameParams
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.PreciseFrame(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		*entity.FrameResult
		Image *imagePayload `json:"image"`
	}{res, encodeImage(res.Image)})
}

func (s *Server) handleCompareFrames(c echo.Context) error {
	var p entity.CompareFramesParams
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.CompareFrames(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, gridResponse{GridResult: res, Image: encodeImage(res.Image)})
}

func (s *Server) handleDetectMotion(c echo.Context) error {
	p := entity.DefaultMotionParams()
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.DetectMotion(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleDetectScenes(c echo.Context) error {
	p := entity.DefaultSceneParams()
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.DetectScenes(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleDetectPauses(c echo.Context) error {
	p := entity.DefaultPauseParams()
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.DetectPauses(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleMotionTimeline(c echo.Context) error {
	p := entity.DefaultTimelineParams()
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.MotionTimeline(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		*entity.TimelineResult
		Image *imagePayload `json:"image"`
	}{res, encodeImage(res.Image)})
}

func (s *Server) handleMotionHeatmap(c echo.Context) error {
	var p entity.HeatmapParams
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.MotionHeatmap(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		*entity.HeatmapResult
		Image *imagePayload `json:"image"`
	}{res, encodeImage(res.Image)})
}

func (s *Server) handleAnnotateFrame(c echo.Context) error {
	var p entity.AnnotateParams
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.AnnotateFrame(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		*entity.AnnotateResult
		Image *imagePayload `json:"image"`
	}{res, encodeImage(res.Image)})
}

func (s *Server) handleAudioTranscript(c echo.Context) error {
	var p entity.TranscriptParams
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.AudioTranscript(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleClearCache(c echo.Context) error {
	p := entity.DefaultClearCacheParams()
	if err := bind(c, &p); err != nil {
		return s.fail(c, err)
	}
	res, err := s.analyzer.ClearCache(c.Request().Context(), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
