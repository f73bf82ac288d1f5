package usecase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/google/uuid"
)

// AudioTranscript transcribes the whole video once, caches the transcript,
// and serves the requested time window from it. Word timings are included
// only when asked for.
func (a *Analyzer) AudioTranscript(ctx context.Context, p entity.TranscriptParams) (result *entity.TranscriptResult, err error) {
	ctx, done := a.instrument(ctx, "get_audio_transcript", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}
	id, err := a.library.Resolve(p.Filename)
	if err != nil {
		return nil, err
	}
	md, _, err := a.cachedMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	if !md.HasAudio {
		return nil, entity.NewError(entity.KindInvalidRange, "video %q has no audio track", id.Name)
	}

	transcript, cached, err := a.cachedTranscript(ctx, id)
	if err != nil {
		return nil, err
	}

	window := entity.TranscriptWindow{Start: 0, End: md.DurationSeconds}
	if p.StartSeconds != nil {
		window.Start = *p.StartSeconds
	}
	if p.EndSeconds != nil {
		window.End = *p.EndSeconds
	}

	segments, words := filterWindow(transcript.Segments, window, p.WordLevel)
	result = &entity.TranscriptResult{
		Filename: id.Name,
		Cached:   cached,
		Backend:  transcript.Backend,
		Model:    transcript.Model,
		Language: transcript.Language,
		Window:   entity.TranscriptWindow{Start: round2(window.Start), End: round2(window.End)},
		Segments: segments,
		Words:    words,
	}
	a.saveDebug(ctx, p.Debug, id.Name, "get_audio_transcript", result, nil)
	return result, nil
}

// cachedTranscript extracts audio and transcribes it at most once per file
// identity and transcription backend.
func (a *Analyzer) cachedTranscript(ctx context.Context, id entity.VideoIdentity) (*entity.Transcript, bool, error) {
	fingerprint := entity.Fingerprint(struct {
		Backend string `json:"backend"`
	}{Backend: a.transcriber.BackendName()})

	payload, hit, err := a.cache.GetOrCompute(ctx, id, entity.CacheKindTranscript, fingerprint,
		func(ctx context.Context) ([]byte, error) {
			h, err := a.opener.Open(ctx, id.Path)
			if err != nil {
				return nil, err
			}

			audioPath := filepath.Join(a.tempDir, uuid.NewString()+".wav")
			if err := h.ExtractAudio(ctx, audioPath); err != nil {
				return nil, err
			}
			defer os.Remove(audioPath)

			t, err := a.transcriber.Transcribe(ctx, audioPath)
			if err != nil {
				return nil, err
			}
			return json.Marshal(t)
		})
	if err != nil {
		return nil, false, err
	}

	var t entity.Transcript
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, false, entity.WrapError(entity.KindBackendFailure, err,
			"decode transcript for %q", id.Name)
	}
	return &t, hit, nil
}

// filterWindow keeps segments overlapping [window.Start, window.End]. With
// wordLevel, overlapping words are also returned as one flat list.
func filterWindow(segments []entity.TranscriptSegment, window entity.TranscriptWindow, wordLevel bool) ([]entity.TranscriptSegment, []entity.TranscriptWord) {
	out := make([]entity.TranscriptSegment, 0, len(segments))
	var words []entity.TranscriptWord

	for _, s := range segments {
		if s.End <= window.Start || s.Start >= window.End {
			continue
		}
		kept := s
		if !wordLevel {
			kept.Words = nil
		} else {
			for _, w := range s.Words {
				if w.End > window.Start && w.Start < window.End {
					words = append(words, w)
				}
			}
		}
		out = append(out, kept)
	}
	return out, words
}
