// Package transcribe speaks to whisper-compatible transcription HTTP APIs
// (OpenAI, Groq, or a local server exposing the same contract).
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"go.uber.org/zap"
)

// WhisperClient transcribes audio by uploading it to a remote
// whisper-compatible endpoint and parsing the verbose_json response.
type WhisperClient struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	logger *zap.Logger
}

func NewWhisperClient(url, apiKey, model string, logger *zap.Logger) *WhisperClient {
	return &WhisperClient{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 5 * time.Minute},
		logger: logger,
	}
}

func (c *WhisperClient) BackendName() string { return "whisper-api" }

// verboseResponse is the verbose_json shape shared by OpenAI and Groq.
type verboseResponse struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Text    string  `json:"text"`
		AvgLogp float64 `json:"avg_logprob"`
	} `json:"segments"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe uploads the audio file and converts the response into the
// engine's transcript shape. Word timings are attached to their enclosing
// segments.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) (*entity.Transcript, error) {
	body, contentType, err := c.multipartBody(audioPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, entity.WrapError(entity.KindBackendFailure, err, "transcription request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, entity.NewError(entity.KindBackendFailure,
			"transcription backend returned %d: %s", resp.StatusCode, string(msg))
	}

	var vr verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, entity.WrapError(entity.KindBackendFailure, err, "decode transcription response")
	}

	c.logger.Debug("transcription complete",
		zap.String("audio", filepath.Base(audioPath)),
		zap.String("language", vr.Language),
		zap.Int("segments", len(vr.Segments)),
		zap.Duration("took", time.Since(start)))

	return c.toTranscript(vr), nil
}

func (c *WhisperClient) multipartBody(audioPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", entity.WrapError(entity.KindUnreadable, err, "open audio %q", audioPath)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy audio into request: %w", err)
	}

	fields := map[string]string{
		"model":                     c.model,
		"response_format":           "verbose_json",
		"timestamp_granularities[]": "segment",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := w.WriteField("timestamp_granularities[]", "word"); err != nil {
		return nil, "", fmt.Errorf("write form field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func (c *WhisperClient) toTranscript(vr verboseResponse) *entity.Transcript {
	t := &entity.Transcript{
		Backend:         c.BackendName(),
		Model:           c.model,
		Language:        vr.Language,
		DurationSeconds: vr.Duration,
	}
	for _, s := range vr.Segments {
		t.Segments = append(t.Segments, entity.TranscriptSegment{
			Start:      s.Start,
			End:        s.End,
			Text:       s.Text,
			Confidence: logprobToConfidence(s.AvgLogp),
		})
	}
	// Words arrive as one flat list; slot each into its segment by time.
	for _, w := range vr.Words {
		word := entity.TranscriptWord{Word: w.Word, Start: w.Start, End: w.End, Confidence: 1}
		for i := range t.Segments {
			if w.Start >= t.Segments[i].Start && w.Start < t.Segments[i].End {
				t.Segments[i].Words = append(t.Segments[i].Words, word)
				break
			}
		}
	}
	return t
}

// logprobToConfidence maps whisper's average log probability onto [0,1].
func logprobToConfidence(avgLogp float64) float64 {
	if avgLogp >= 0 {
		return 1
	}
	conf := 1 + avgLogp // avg_logprob of -1 or worse reads as no confidence
	if conf < 0 {
		conf = 0
	}
	return conf
}

// Unavailable satisfies the transcriber port when no API key is
// configured. Every call fails with DependencyUnavailable so the caller
// can report exactly why transcription is off.
type Unavailable struct {
	Reason string
}

func (u Unavailable) BackendName() string { return "unavailable" }

func (u Unavailable) Transcribe(context.Context, string) (*entity.Transcript, error) {
	return nil, entity.NewError(entity.KindDependencyUnavailable, "transcription unavailable: %s", u.Reason)
}
