package entity

// ImagePayload is an optional rendered artifact accompanying a result.
type ImagePayload struct {
	Bytes []byte `json:"-"`
	MIME  string `json:"mime,omitempty"`
}

// VideoListing is one file in a list_videos result.
type VideoListing struct {
	Filename string             `json:"filename"`
	SizeMB   float64            `json:"size_mb"`
	Modified string             `json:"modified"`
	Cached   map[CacheKind]bool `json:"cached,omitempty"`
	Metadata *VideoMetadata     `json:"metadata,omitempty"`
}

// ListVideosResult is the list_videos payload.
type ListVideosResult struct {
	Root         string         `json:"root"`
	Subdirectory string         `json:"subdirectory,omitempty"`
	Files        []VideoListing `json:"files"`
	TotalFiles   int            `json:"total_files"`
	TotalSizeMB  float64        `json:"total_size_mb"`
}

// MetadataResult is the get_video_metadata payload.
type MetadataResult struct {
	Filename string `json:"filename"`
	Cached   bool   `json:"cached"`
	VideoMetadata
}

// GridResult describes a rendered frame grid (overview, section, compare).
type GridResult struct {
	Filename        string         `json:"filename"`
	StartSeconds    float64        `json:"start_seconds,omitempty"`
	EndSeconds      float64        `json:"end_seconds,omitempty"`
	FramesShown     int            `json:"frames_shown"`
	FrameTimestamps []float64      `json:"frame_timestamps"`
	GridCols        int            `json:"grid_cols"`
	GridRows        int            `json:"grid_rows"`
	Selection       FrameSelection `json:"frame_selection,omitempty"`
	Label           string         `json:"label,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	Image           ImagePayload   `json:"image"`
}

// FrameResult is the get_precise_frame payload.
type FrameResult struct {
	Filename           string       `json:"filename"`
	RequestedTimestamp float64      `json:"requested_timestamp"`
	ActualTimestamp    float64      `json:"actual_timestamp"`
	Width              int          `json:"width"`
	Height             int          `json:"height"`
	Image              ImagePayload `json:"image"`
}

// MotionResult is the detect_motion_events payload.
type MotionResult struct {
	Filename        string        `json:"filename"`
	Events          []MotionEvent `json:"events"`
	TotalEvents     int           `json:"total_events"`
	SensitivityUsed float64       `json:"sensitivity_used"`
	ThresholdValue  float64       `json:"threshold_value"`
	DurationSeconds float64       `json:"video_duration_seconds"`
}

// SceneResult is the detect_scenes payload.
type SceneResult struct {
	Filename            string  `json:"filename"`
	Scenes              []Scene `json:"scenes"`
	TotalScenes         int     `json:"total_scenes"`
	ThresholdMultiplier float64 `json:"threshold_multiplier_used"`
}

// PauseResult is the detect_pauses payload.
type PauseResult struct {
	Filename        string  `json:"filename"`
	Pauses          []Pause `json:"pauses"`
	TotalPauses     int     `json:"total_pauses"`
	SensitivityUsed float64 `json:"sensitivity_used"`
}

// TimelineResult is the get_motion_timeline payload.
type TimelineResult struct {
	Filename       string       `json:"filename"`
	PeakTimestamp  float64      `json:"peak_timestamp_seconds"`
	PeakIntensity  float64      `json:"peak_intensity"`
	ActiveFraction float64      `json:"active_fraction"`
	ActivePeriods  []Period     `json:"active_periods"`
	QuietPeriods   []Period     `json:"quiet_periods"`
	Image          ImagePayload `json:"image"`
}

// HeatmapResult is the get_motion_heatmap payload.
type HeatmapResult struct {
	Filename       string       `json:"filename"`
	StartSeconds   float64      `json:"start_seconds"`
	EndSeconds     float64      `json:"end_seconds"`
	FramesAnalyzed int          `json:"frames_analyzed"`
	Width          int          `json:"width"`
	Height         int          `json:"height"`
	Image          ImagePayload `json:"image"`
}

// AnnotateResult is the annotate_frame payload.
type AnnotateResult struct {
	Filename          string       `json:"filename"`
	TimestampSeconds  float64      `json:"timestamp_seconds"`
	LinesDrawn        int          `json:"lines_drawn"`
	AnglesDrawn       int          `json:"angles_drawn"`
	LabelsDrawn       int          `json:"labels_drawn"`
	AngleMeasurements []string     `json:"angle_measurements"`
	Width             int          `json:"width"`
	Height            int          `json:"height"`
	Image             ImagePayload `json:"image"`
}

// TranscriptWindow is the requested slice of a transcript.
type TranscriptWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TranscriptResult is the get_audio_transcript payload.
type TranscriptResult struct {
	Filename string              `json:"filename"`
	Cached   bool                `json:"cached"`
	Backend  string              `json:"backend"`
	Model    string              `json:"model"`
	Language string              `json:"language"`
	Window   TranscriptWindow    `json:"window"`
	Segments []TranscriptSegment `json:"segments"`
	Words    []TranscriptWord    `json:"words,omitempty"`
}

// ClearCacheResult is the clear_cache payload.
type ClearCacheResult struct {
	Cleared    []ClearedEntry `json:"cleared"`
	TotalFreed int64          `json:"total_freed_bytes"`
}
