package entity

// Sample is one point of a change signal.
type Sample struct {
	Timestamp float64 `json:"t"`
	Intensity float64 `json:"v"` // normalized to [0,1]
}

// ChangeSignal is the time series of frame-to-frame difference intensity
// for one video, sampled at a fixed cadence. Timestamps are strictly
// increasing, the first is >= 0 and the last <= the video duration.
// Motion, scene, and pause detection all consume the same signal so that
// parameter changes alter thresholding only, never the underlying data.
type ChangeSignal struct {
	Cadence  float64  `json:"cadence_fps"`
	Duration float64  `json:"duration_seconds"`
	Samples  []Sample `json:"samples"`
}

// Empty reports whether the signal carries no samples.
func (s ChangeSignal) Empty() bool { return len(s.Samples) == 0 }

// Intensities returns the intensity column of the signal.
func (s ChangeSignal) Intensities() []float64 {
	out := make([]float64, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.Intensity
	}
	return out
}

// MotionEvent is a contiguous interval of above-threshold motion.
type MotionEvent struct {
	StartSeconds    float64 `json:"start_seconds"`
	PeakSeconds     float64 `json:"peak_seconds"`
	EndSeconds      float64 `json:"end_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	PeakIntensity   float64 `json:"peak_intensity"`
	Normalized      float64 `json:"intensity_normalized"`
}

// Scene is one segment between detected cuts. The final scene has no cut.
type Scene struct {
	Index           int      `json:"scene_index"`
	StartSeconds    float64  `json:"start_seconds"`
	EndSeconds      float64  `json:"end_seconds"`
	DurationSeconds float64  `json:"duration_seconds"`
	CutSeconds      *float64 `json:"cut_timestamp_seconds"`
	CutIntensity    float64  `json:"cut_intensity,omitempty"`
}

// Pause is an interval where motion stays below tolerance.
type Pause struct {
	StartSeconds    float64 `json:"start_seconds"`
	EndSeconds      float64 `json:"end_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	Representative  float64 `json:"representative_timestamp"`
	MeanIntensity   float64 `json:"mean_intensity"`
}

// Period is a half-open activity interval used in timeline summaries.
type Period struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}
