package entity

// TranscriptWord is one word with its time bounds.
type TranscriptWord struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// TranscriptSegment is one contiguous piece of recognized speech.
type TranscriptSegment struct {
	Start      float64          `json:"start"`
	End        float64          `json:"end"`
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence,omitempty"`
	Words      []TranscriptWord `json:"words,omitempty"`
}

// Transcript is a whole-video transcription result, cached once and
// filtered to time windows on read.
type Transcript struct {
	Backend         string              `json:"backend"`
	Model           string              `json:"model"`
	Language        string              `json:"language"`
	DurationSeconds float64             `json:"duration_seconds"`
	Segments        []TranscriptSegment `json:"segments"`
}
