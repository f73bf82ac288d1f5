package usecase

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
	"github.com/framelens/framelens-engine/internal/engine"
	"github.com/framelens/framelens-engine/internal/infra/render"
)

// Overview renders a contact sheet spanning the whole video.
func (a *Analyzer) Overview(ctx context.Context, p entity.OverviewParams) (result *entity.GridResult, err error) {
	ctx, done := a.instrument(ctx, "get_video_overview", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, h, err := a.openVideo(ctx, p.Filename)
	if err != nil {
		return nil, err
	}
	md := h.Metadata()

	result, err = a.buildGrid(ctx, h, id.Name, 0, md.DurationSeconds, p.MaxFrames, p.Selection)
	if err != nil {
		return nil, err
	}
	result.StartSeconds = 0
	result.EndSeconds = round2(md.DurationSeconds)

	a.saveDebug(ctx, p.Debug, id.Name, "get_video_overview", result,
		map[string][]byte{"grid.jpg": result.Image.Bytes})
	return result, nil
}

// Section renders a contact sheet for one time range. An end past the
// video's duration is clamped with a warning.
func (a *Analyzer) Section(ctx context.Context, p entity.SectionParams) (result *entity.GridResult, err error) {
	ctx, done := a.instrument(ctx, "get_video_section", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, h, err := a.openVideo(ctx, p.Filename)
	if err != nil {
		return nil, err
	}
	md := h.Metadata()

	if p.StartSeconds >= md.DurationSeconds {
		return nil, entity.NewError(entity.KindInvalidRange,
			"start_seconds (%.2f) is past the end of the video (%.2fs)", p.StartSeconds, md.DurationSeconds)
	}

	end := p.EndSeconds
	var warnings []string
	if end > md.DurationSeconds {
		end = md.DurationSeconds
		warnings = append(warnings, fmt.Sprintf("end_seconds clamped to video duration (%.2fs)", end))
	}

	result, err = a.buildGrid(ctx, h, id.Name, p.StartSeconds, end, p.MaxFrames, p.Selection)
	if err != nil {
		return nil, err
	}
	result.StartSeconds = round2(p.StartSeconds)
	result.EndSeconds = round2(end)
	result.Warnings = append(warnings, result.Warnings...)

	a.saveDebug(ctx, p.Debug, id.Name, "get_video_section", result,
		map[string][]byte{"grid.jpg": result.Image.Bytes})
	return result, nil
}

func (a *Analyzer) buildGrid(ctx context.Context, h port.VideoHandle, name string, start, end float64, count int, selection entity.FrameSelection) (*entity.GridResult, error) {
	var (
		frames   []entity.Frame
		warnings []string
		err      error
	)
	if selection == entity.SelectionKeyframe {
		frames, warnings, err = engine.ExtractKeyframes(ctx, h, start, end, count)
	} else {
		frames, warnings, err = engine.ExtractUniform(ctx, h, start, end, count)
	}
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, entity.NewError(entity.KindUnreadable, "no frames could be decoded from %q", name)
	}

	img, cols, rows := render.FrameGrid(frames)
	payload, err := render.EncodeJPEG(img)
	if err != nil {
		return nil, err
	}

	timestamps := make([]float64, len(frames))
	for i, f := range frames {
		timestamps[i] = round2(f.Timestamp)
	}
	return &entity.GridResult{
		Filename:        name,
		FramesShown:     len(frames),
		FrameTimestamps: timestamps,
		GridCols:        cols,
		GridRows:        rows,
		Selection:       selection,
		Warnings:        warnings,
		Image:           payload,
	}, nil
}

// PreciseFrame decodes the single frame nearest the timestamp as PNG.
// Timestamps outside the video fail with SeekOutOfRange.
func (a *Analyzer) PreciseFrame(ctx context.Context, p entity.PreciseFrameParams) (result *entity.FrameResult, err error) {
	ctx, done := a.instrument(ctx, "get_precise_frame", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, h, err := a.openVideo(ctx, p.Filename)
	if err != nil {
		return nil, err
	}

	f, err := h.FrameAt(ctx, p.TimestampSeconds)
	if err != nil {
		return nil, err
	}
	payload, err := render.EncodePNG(f.Image)
	if err != nil {
		return nil, err
	}

	result = &entity.FrameResult{
		Filename:           id.Name,
		RequestedTimestamp: p.TimestampSeconds,
		ActualTimestamp:    f.ActualTimestamp,
		Width:              f.Width,
		Height:             f.Height,
		Image:              payload,
	}
	a.saveDebug(ctx, p.Debug, id.Name, "get_precise_frame", result,
		map[string][]byte{"frame.png": payload.Bytes})
	return result, nil
}

// CompareFrames renders the requested timestamps side by side in one grid.
// Out-of-range timestamps are clamped and reported as warnings.
func (a *Analyzer) CompareFrames(ctx context.Context, p entity.CompareFramesParams) (result *entity.GridResult, err error) {
	ctx, done := a.instrument(ctx, "compare_frames", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, h, err := a.openVideo(ctx, p.Filename)
	if err != nil {
		return nil, err
	}

	frames, warnings, err := engine.ExtractAt(ctx, h, p.Timestamps)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, entity.NewError(entity.KindUnreadable, "no frames could be decoded from %q", id.Name)
	}

	img, cols, rows := render.FrameGrid(frames)
	payload, err := render.EncodeJPEG(img)
	if err != nil {
		return nil, err
	}

	timestamps := make([]float64, len(frames))
	for i, f := range frames {
		timestamps[i] = round2(f.Timestamp)
	}
	result = &entity.GridResult{
		Filename:        id.Name,
		FramesShown:     len(frames),
		FrameTimestamps: timestamps,
		GridCols:        cols,
		GridRows:        rows,
		Label:           p.Label,
		Warnings:        warnings,
		Image:           payload,
	}
	a.saveDebug(ctx, p.Debug, id.Name, "compare_frames", result,
		map[string][]byte{"grid.jpg": payload.Bytes})
	return result, nil
}

// AnnotateFrame decodes one frame, draws measurement overlays onto it, and
// returns the annotated PNG plus computed angle measurements.
func (a *Analyzer) AnnotateFrame(ctx context.Context, p entity.AnnotateParams) (result *entity.AnnotateResult, err error) {
	ctx, done := a.instrument(ctx, "annotate_frame", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, h, err := a.openVideo(ctx, p.Filename)
	if err != nil {
		return nil, err
	}

	f, err := h.FrameAt(ctx, p.TimestampSeconds)
	if err != nil {
		return nil, err
	}

	canvas := toRGBA(f.Image)
	measurements := render.Annotate(canvas, p.Lines, p.Angles, p.Labels)

	payload, err := render.EncodePNG(canvas)
	if err != nil {
		return nil, err
	}

	result = &entity.AnnotateResult{
		Filename:          id.Name,
		TimestampSeconds:  p.TimestampSeconds,
		LinesDrawn:        len(p.Lines),
		AnglesDrawn:       len(p.Angles),
		LabelsDrawn:       len(p.Labels),
		AngleMeasurements: measurements,
		Width:             f.Width,
		Height:            f.Height,
		Image:             payload,
	}
	a.saveDebug(ctx, p.Debug, id.Name, "annotate_frame", result,
		map[string][]byte{"annotated.png": payload.Bytes})
	return result, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
