package usecase

import (
	"context"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/engine"
	"github.com/framelens/framelens-engine/internal/infra/render"
)

// DetectMotion finds intervals of above-threshold change in the video.
func (a *Analyzer) DetectMotion(ctx context.Context, p entity.MotionParams) (result *entity.MotionResult, err error) {
	ctx, done := a.instrument(ctx, "detect_motion_events", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, err := a.library.Resolve(p.Filename)
	if err != nil {
		return nil, err
	}
	sig, _, err := a.cachedSignal(ctx, id)
	if err != nil {
		return nil, err
	}

	events, threshold := engine.DetectMotion(sig, p.Sensitivity, p.MinGapSeconds)
	if events == nil {
		events = []entity.MotionEvent{}
	}

	result = &entity.MotionResult{
		Filename:        id.Name,
		Events:          events,
		TotalEvents:     len(events),
		SensitivityUsed: p.Sensitivity,
		ThresholdValue:  threshold,
		DurationSeconds: round2(sig.Duration),
	}
	a.saveDebug(ctx, p.Debug, id.Name, "detect_motion_events", result, nil)
	return result, nil
}

// DetectScenes segments the video at hard visual cuts.
func (a *Analyzer) DetectScenes(ctx context.Context, p entity.SceneParams) (result *entity.SceneResult, err error) {
	ctx, done := a.instrument(ctx, "detect_scenes", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, err := a.library.Resolve(p.Filename)
	if err != nil {
		return nil, err
	}
	sig, _, err := a.cachedSignal(ctx, id)
	if err != nil {
		return nil, err
	}

	scenes := engine.DetectScenes(sig, p.ThresholdMultiplier, p.MinSceneSeconds)
	result = &entity.SceneResult{
		Filename:            id.Name,
		Scenes:              scenes,
		TotalScenes:         len(scenes),
		ThresholdMultiplier: p.ThresholdMultiplier,
	}
	a.saveDebug(ctx, p.Debug, id.Name, "detect_scenes", result, nil)
	return result, nil
}

// DetectPauses finds intervals where the video is effectively still.
func (a *Analyzer) DetectPauses(ctx context.Context, p entity.PauseParams) (result *entity.PauseResult, err error) {
	ctx, done := a.instrument(ctx, "detect_pauses", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, err := a.library.Resolve(p.Filename)
	if err != nil {
		return nil, err
	}
	sig, _, err := a.cachedSignal(ctx, id)
	if err != nil {
		return nil, err
	}

	pauses := engine.DetectPauses(sig, p.Sensitivity, p.MinDurationSeconds)
	if pauses == nil {
		pauses = []entity.Pause{}
	}
	result = &entity.PauseResult{
		Filename:        id.Name,
		Pauses:          pauses,
		TotalPauses:     len(pauses),
		SensitivityUsed: p.Sensitivity,
	}
	a.saveDebug(ctx, p.Debug, id.Name, "detect_pauses", result, nil)
	return result, nil
}

// MotionTimeline buckets the change signal, renders it as a chart, and
// summarizes active and quiet periods.
func (a *Analyzer) MotionTimeline(ctx context.Context, p entity.TimelineParams) (result *entity.TimelineResult, err error) {
	ctx, done := a.instrument(ctx, "get_motion_timeline", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, err := a.library.Resolve(p.Filename)
	if err != nil {
		return nil, err
	}
	sig, _, err := a.cachedSignal(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := engine.SummarizeTimeline(sig, p.ResolutionSeconds)

	png, err := a.plotter.RenderTimeline(id.Name, summary.Buckets, p.ResolutionSeconds, summary.Baseline)
	if err != nil {
		return nil, err
	}

	result = &entity.TimelineResult{
		Filename:       id.Name,
		PeakTimestamp:  summary.PeakTimestamp,
		PeakIntensity:  summary.PeakIntensity,
		ActiveFraction: summary.ActiveFraction,
		ActivePeriods:  orEmptyPeriods(summary.ActivePeriods),
		QuietPeriods:   orEmptyPeriods(summary.QuietPeriods),
		Image:          entity.ImagePayload{Bytes: png, MIME: "image/png"},
	}
	a.saveDebug(ctx, p.Debug, id.Name, "get_motion_timeline", result,
		map[string][]byte{"timeline.png": png})
	return result, nil
}

// MotionHeatmap accumulates per-pixel change over a range and blends it
// over a representative frame.
func (a *Analyzer) MotionHeatmap(ctx context.Context, p entity.HeatmapParams) (result *entity.HeatmapResult, err error) {
	ctx, done := a.instrument(ctx, "get_motion_heatmap", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, h, err := a.openVideo(ctx, p.Filename)
	if err != nil {
		return nil, err
	}
	md := h.Metadata()

	start, end := 0.0, md.DurationSeconds
	if p.StartSeconds != nil {
		start = *p.StartSeconds
	}
	if p.EndSeconds != nil && *p.EndSeconds < end {
		end = *p.EndSeconds
	}

	grid, err := engine.AccumulateHeat(ctx, h, start, end, a.signalCfg)
	if err != nil {
		return nil, err
	}

	// Blend over the frame at the middle of the analyzed range.
	ref, err := h.FrameAt(ctx, (start+end)/2)
	if err != nil {
		return nil, err
	}
	blended := render.Heatmap(ref.Image, grid.Width, grid.Height, grid.Values)

	payload, err := render.EncodePNG(blended)
	if err != nil {
		return nil, err
	}

	result = &entity.HeatmapResult{
		Filename:       id.Name,
		StartSeconds:   round2(start),
		EndSeconds:     round2(end),
		FramesAnalyzed: grid.Frames,
		Width:          blended.Bounds().Dx(),
		Height:         blended.Bounds().Dy(),
		Image:          payload,
	}
	a.saveDebug(ctx, p.Debug, id.Name, "get_motion_heatmap", result,
		map[string][]byte{"heatmap.png": payload.Bytes})
	return result, nil
}

func orEmptyPeriods(p []entity.Period) []entity.Period {
	if p == nil {
		return []entity.Period{}
	}
	return p
}
