package entity

import (
	"fmt"
	"image"
	"math"
	"os"
	"time"
)

// VideoIdentity pins a video file to its content at a point in time.
// Two files are the same video only if path, size, and mtime all match;
// the cache uses this to avoid serving results for a replaced file.
type VideoIdentity struct {
	Name    string    // path relative to the library root, the user-facing key
	Path    string    // absolute path
	Size    int64     // bytes
	ModTime time.Time // mtime at identity capture
}

// IdentityOf captures the identity of the video at path.
func IdentityOf(name, path string) (VideoIdentity, error) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return VideoIdentity{}, WrapError(KindNotFound, err, "video %q not found", name)
		}
		return VideoIdentity{}, WrapError(KindUnreadable, err, "stat %q", name)
	}
	return VideoIdentity{Name: name, Path: path, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// VideoMetadata is derived once per VideoIdentity and never mutated.
type VideoMetadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	FPS             float64 `json:"fps"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	TotalFrames     int     `json:"total_frames"`
	Codec           string  `json:"codec"`
	HasAudio        bool    `json:"has_audio"`
	AudioCodec      string  `json:"audio_codec,omitempty"`
	RotationDegrees int     `json:"rotation_degrees"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
	Modified        string  `json:"modified"`
}

// Resolution returns the display resolution as "WxH".
func (m VideoMetadata) Resolution() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// NearestFrameTime snaps a requested timestamp to the nearest native frame
// boundary. Rounding (not truncation) keeps sub-frame requests precise.
func (m VideoMetadata) NearestFrameTime(ts float64) float64 {
	if m.FPS <= 0 {
		return ts
	}
	snapped := math.Round(ts*m.FPS) / m.FPS
	if snapped < 0 {
		return 0
	}
	if snapped > m.DurationSeconds {
		return m.DurationSeconds
	}
	return snapped
}

// Frame is a decoded video frame in upright display orientation.
// Frames are produced per request and discarded after use; they are never
// cached.
type Frame struct {
	Timestamp       float64 // seconds, as requested
	ActualTimestamp float64 // seconds, as decoded
	Image           image.Image
	Width           int
	Height          int
}
