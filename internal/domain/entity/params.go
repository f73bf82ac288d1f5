package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FrameSelection chooses how frames are sampled for grid operations.
type FrameSelection string

const (
	SelectionEven     FrameSelection = "even"
	SelectionKeyframe FrameSelection = "keyframe"
)

func (s FrameSelection) valid() bool {
	return s == SelectionEven || s == SelectionKeyframe
}

// Fingerprint derives a cache key fragment covering every parameter that
// affects an operation's output. Params must be a JSON-marshalable struct;
// struct field order makes the encoding deterministic.
func Fingerprint(params any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		raw = []byte(fmt.Sprintf("%#v", params))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// ListVideosParams configures list_videos.
type ListVideosParams struct {
	Subdirectory       string `json:"subdirectory,omitempty"` // "" = root only, "**" = recursive
	IncludeMetadata    bool   `json:"include_metadata"`
	IncludeCacheStatus bool   `json:"include_cache_status"`
}

// DefaultListVideosParams mirrors the documented defaults.
func DefaultListVideosParams() ListVideosParams {
	return ListVideosParams{IncludeCacheStatus: true}
}

// OverviewParams configures get_video_overview.
type OverviewParams struct {
	Filename  string         `json:"filename"`
	MaxFrames int            `json:"max_frames"`
	Selection FrameSelection `json:"frame_selection"`
	Debug     bool           `json:"debug,omitempty"`
}

func DefaultOverviewParams() OverviewParams {
	return OverviewParams{MaxFrames: 20, Selection: SelectionEven}
}

func (p *OverviewParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if p.MaxFrames < 1 {
		return NewError(KindInvalidRange, "max_frames must be at least 1, got %d", p.MaxFrames)
	}
	p.MaxFrames = clampInt(p.MaxFrames, 4, 24)
	if !p.Selection.valid() {
		return NewError(KindInvalidRange, "frame_selection must be %q or %q", SelectionEven, SelectionKeyframe)
	}
	return nil
}

// SectionParams configures get_video_section.
type SectionParams struct {
	Filename     string         `json:"filename"`
	StartSeconds float64        `json:"start_seconds"`
	EndSeconds   float64        `json:"end_seconds"`
	MaxFrames    int            `json:"max_frames"`
	Selection    FrameSelection `json:"frame_selection"`
	Debug        bool           `json:"debug,omitempty"`
}

func DefaultSectionParams() SectionParams {
	return SectionParams{MaxFrames: 10, Selection: SelectionEven}
}

func (p *SectionParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if p.EndSeconds <= p.StartSeconds {
		return NewError(KindInvalidRange, "start_seconds (%.2f) must be less than end_seconds (%.2f)",
			p.StartSeconds, p.EndSeconds)
	}
	if p.StartSeconds < 0 {
		return NewError(KindInvalidRange, "start_seconds must not be negative")
	}
	if p.MaxFrames < 1 {
		return NewError(KindInvalidRange, "max_frames must be at least 1, got %d", p.MaxFrames)
	}
	p.MaxFrames = clampInt(p.MaxFrames, 2, 16)
	if !p.Selection.valid() {
		return NewError(KindInvalidRange, "frame_selection must be %q or %q", SelectionEven, SelectionKeyframe)
	}
	return nil
}

// PreciseFrameParams configures get_precise_frame.
type PreciseFrameParams struct {
	Filename         string  `json:"filename"`
	TimestampSeconds float64 `json:"timestamp_seconds"`
	Debug            bool    `json:"debug,omitempty"`
}

func (p *PreciseFrameParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	return nil
}

// CompareFramesParams configures compare_frames.
type CompareFramesParams struct {
	Filename   string    `json:"filename"`
	Timestamps []float64 `json:"timestamps"`
	Label      string    `json:"label,omitempty"`
	Debug      bool      `json:"debug,omitempty"`
}

func (p *CompareFramesParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if len(p.Timestamps) < 2 {
		return NewError(KindInvalidRange, "timestamps must have at least 2 entries, got %d", len(p.Timestamps))
	}
	if len(p.Timestamps) > 12 {
		p.Timestamps = p.Timestamps[:12]
	}
	return nil
}

// MotionParams configures detect_motion_events.
type MotionParams struct {
	Filename      string  `json:"filename"`
	Sensitivity   float64 `json:"sensitivity"`
	MinGapSeconds float64 `json:"min_gap_seconds"`
	Debug         bool    `json:"debug,omitempty"`
}

func DefaultMotionParams() MotionParams {
	return MotionParams{Sensitivity: 0.5, MinGapSeconds: 0.5}
}

func (p *MotionParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if p.Sensitivity < 0 || p.Sensitivity > 1 {
		return NewError(KindInvalidRange, "sensitivity must be in [0,1], got %g", p.Sensitivity)
	}
	if p.MinGapSeconds < 0 {
		return NewError(KindInvalidRange, "min_gap_seconds must not be negative")
	}
	return nil
}

// SceneParams configures detect_scenes.
type SceneParams struct {
	Filename            string  `json:"filename"`
	ThresholdMultiplier float64 `json:"threshold_multiplier"`
	MinSceneSeconds     float64 `json:"min_scene_seconds"`
	Debug               bool    `json:"debug,omitempty"`
}

func DefaultSceneParams() SceneParams {
	return SceneParams{ThresholdMultiplier: 5.0, MinSceneSeconds: 1.0}
}

func (p *SceneParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if p.ThresholdMultiplier <= 1 {
		return NewError(KindInvalidRange, "threshold_multiplier must be greater than 1, got %g", p.ThresholdMultiplier)
	}
	if p.MinSceneSeconds < 0 {
		return NewError(KindInvalidRange, "min_scene_seconds must not be negative")
	}
	return nil
}

// PauseParams configures detect_pauses.
type PauseParams struct {
	Filename           string  `json:"filename"`
	Sensitivity        float64 `json:"sensitivity"`
	MinDurationSeconds float64 `json:"min_duration_seconds"`
	Debug              bool    `json:"debug,omitempty"`
}

func DefaultPauseParams() PauseParams {
	return PauseParams{Sensitivity: 0.5, MinDurationSeconds: 0.3}
}

func (p *PauseParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if p.Sensitivity < 0 || p.Sensitivity > 1 {
		return NewError(KindInvalidRange, "sensitivity must be in [0,1], got %g", p.Sensitivity)
	}
	if p.MinDurationSeconds <= 0 {
		return NewError(KindInvalidRange, "min_duration_seconds must be positive")
	}
	return nil
}

// TimelineParams configures get_motion_timeline.
type TimelineParams struct {
	Filename          string  `json:"filename"`
	ResolutionSeconds float64 `json:"resolution_seconds"`
	Debug             bool    `json:"debug,omitempty"`
}

func DefaultTimelineParams() TimelineParams {
	return TimelineParams{ResolutionSeconds: 0.5}
}

func (p *TimelineParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if p.ResolutionSeconds <= 0 {
		return NewError(KindInvalidRange, "resolution_seconds must be positive, got %g", p.ResolutionSeconds)
	}
	return nil
}

// HeatmapParams configures get_motion_heatmap. Nil bounds mean the full
// video.
type HeatmapParams struct {
	Filename     string   `json:"filename"`
	StartSeconds *float64 `json:"start_seconds,omitempty"`
	EndSeconds   *float64 `json:"end_seconds,omitempty"`
	Debug        bool     `json:"debug,omitempty"`
}

func (p *HeatmapParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if p.StartSeconds != nil && *p.StartSeconds < 0 {
		return NewError(KindInvalidRange, "start_seconds must not be negative")
	}
	if p.StartSeconds != nil && p.EndSeconds != nil && *p.EndSeconds <= *p.StartSeconds {
		return NewError(KindInvalidRange, "start_seconds (%.2f) must be less than end_seconds (%.2f)",
			*p.StartSeconds, *p.EndSeconds)
	}
	return nil
}

// LineSpec is a line overlay between two pixel coordinates.
type LineSpec struct {
	From      [2]int `json:"from"`
	To        [2]int `json:"to"`
	Color     [3]int `json:"color,omitempty"`
	Thickness int    `json:"thickness,omitempty"`
}

// AngleSpec is an angle overlay defined by three points: endpoint, vertex,
// endpoint.
type AngleSpec struct {
	Points [3][2]int `json:"points"`
	Label  string    `json:"label"`
	Color  [3]int    `json:"color,omitempty"`
}

// LabelSpec is a text overlay anchored at a pixel coordinate.
type LabelSpec struct {
	Point [2]int  `json:"point"`
	Text  string  `json:"text"`
	Color [3]int  `json:"color,omitempty"`
	Size  float64 `json:"size,omitempty"`
}

// AnnotateParams configures annotate_frame.
type AnnotateParams struct {
	Filename         string      `json:"filename"`
	TimestampSeconds float64     `json:"timestamp_seconds"`
	Lines            []LineSpec  `json:"lines,omitempty"`
	Angles           []AngleSpec `json:"angles,omitempty"`
	Labels           []LabelSpec `json:"labels,omitempty"`
	Debug            bool        `json:"debug,omitempty"`
}

func (p *AnnotateParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	return nil
}

// TranscriptParams configures get_audio_transcript. Nil bounds mean the
// full video.
type TranscriptParams struct {
	Filename     string   `json:"filename"`
	StartSeconds *float64 `json:"start_seconds,omitempty"`
	EndSeconds   *float64 `json:"end_seconds,omitempty"`
	WordLevel    bool     `json:"word_level,omitempty"`
	Debug        bool     `json:"debug,omitempty"`
}

func (p *TranscriptParams) Validate() error {
	if p.Filename == "" {
		return NewError(KindInvalidRange, "filename is required")
	}
	if p.StartSeconds != nil && p.EndSeconds != nil && *p.EndSeconds <= *p.StartSeconds {
		return NewError(KindInvalidRange, "start_seconds (%.2f) must be less than end_seconds (%.2f)",
			*p.StartSeconds, *p.EndSeconds)
	}
	return nil
}

// ClearCacheParams configures clear_cache. Empty filename clears every
// video's entries of the given type.
type ClearCacheParams struct {
	Filename  string    `json:"filename,omitempty"`
	CacheType CacheKind `json:"cache_type"`
}

func DefaultClearCacheParams() ClearCacheParams {
	return ClearCacheParams{CacheType: CacheKindAll}
}

func (p *ClearCacheParams) Validate() error {
	switch p.CacheType {
	case CacheKindAll, CacheKindMetadata, CacheKindChangeSignal, CacheKindTranscript:
		return nil
	}
	return NewError(KindInvalidRange, "invalid cache_type %q", p.CacheType)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
