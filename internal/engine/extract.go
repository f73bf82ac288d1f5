package engine

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
)

// candidateWidth is the decode width used when scoring keyframe candidates.
// Histogram shape is stable under downscaling, so candidates are scored on
// small grayscale frames and only the winners are decoded at full size.
const candidateWidth = 160

// ExtractUniform decodes count frames at midpoint-biased evenly spaced
// timestamps over [start, end]: ts_i = start + (i+0.5)*(end-start)/count.
// Individual decode failures are reported as warnings, not batch failures.
func ExtractUniform(ctx context.Context, h port.VideoHandle, start, end float64, count int) ([]entity.Frame, []string, error) {
	if err := checkRange(start, end, count); err != nil {
		return nil, nil, err
	}

	interval := (end - start) / float64(count)
	frames := make([]entity.Frame, 0, count)
	var warnings []string

	for i := 0; i < count; i++ {
		ts := start + (float64(i)+0.5)*interval
		if ts > end {
			ts = end
		}
		f, err := h.FrameAt(ctx, ts)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not decode frame at %.2fs: %v", ts, err))
			continue
		}
		frames = append(frames, *f)
	}
	return frames, warnings, nil
}

// ExtractKeyframes selects the count most visually distinct frames from a
// denser uniform candidate sample, scored by Bhattacharyya histogram
// distance. Selection is greedy on the summed distance to every already
// selected frame, with a minimum time gap of half the even-sampling
// interval so temporal spread is never fully sacrificed for novelty. Ties
// go to the earliest-timestamp candidate.
func ExtractKeyframes(ctx context.Context, h port.VideoHandle, start, end float64, count int) ([]entity.Frame, []string, error) {
	if err := checkRange(start, end, count); err != nil {
		return nil, nil, err
	}

	type candidate struct {
		ts   float64
		hist histogram
	}

	nCandidates := count * 4
	cadence := float64(nCandidates) / (end - start)
	md := h.Metadata()
	if md.FPS > 0 && cadence > md.FPS {
		cadence = md.FPS
	}

	var candidates []candidate
	err := h.GrayFrames(ctx, start, end, cadence, candidateWidth, func(ts float64, img *image.Gray) error {
		candidates = append(candidates, candidate{ts: ts, hist: grayHistogram(img)})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if len(candidates) <= count {
		return ExtractUniform(ctx, h, start, end, count)
	}

	minGap := (end - start) / float64(count) / 2

	selected := make([]int, 0, count)
	taken := make([]bool, len(candidates))

	// Seed with the middle candidate; every later pick maximizes distance
	// from the running selection.
	seed := len(candidates) / 2
	selected = append(selected, seed)
	taken[seed] = true

	for len(selected) < count {
		best := -1
		bestScore := -1.0
		bestRelaxed := -1
		bestRelaxedScore := -1.0

		for i, c := range candidates {
			if taken[i] {
				continue
			}
			score := 0.0
			gapOK := true
			for _, s := range selected {
				score += bhattacharyyaDistance(c.hist, candidates[s].hist)
				if math.Abs(c.ts-candidates[s].ts) < minGap {
					gapOK = false
				}
			}
			// Strict > keeps the earliest candidate on equal scores.
			if gapOK && score > bestScore {
				best, bestScore = i, score
			}
			if score > bestRelaxedScore {
				bestRelaxed, bestRelaxedScore = i, score
			}
		}

		if best < 0 {
			best = bestRelaxed
		}
		if best < 0 {
			break
		}
		selected = append(selected, best)
		taken[best] = true
	}

	sort.Slice(selected, func(a, b int) bool {
		return candidates[selected[a]].ts < candidates[selected[b]].ts
	})

	frames := make([]entity.Frame, 0, len(selected))
	var warnings []string
	for _, idx := range selected {
		ts := candidates[idx].ts
		f, err := h.FrameAt(ctx, ts)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not decode frame at %.2fs: %v", ts, err))
			continue
		}
		frames = append(frames, *f)
	}
	return frames, warnings, nil
}

// ExtractAt decodes one frame per requested timestamp, preserving input
// order. Duplicates are resolved independently so callers can compare a
// timestamp against itself. Out-of-range timestamps are clamped and
// flagged; decode failures are flagged and skipped.
func ExtractAt(ctx context.Context, h port.VideoHandle, timestamps []float64) ([]entity.Frame, []string, error) {
	if len(timestamps) == 0 {
		return nil, nil, entity.NewError(entity.KindInvalidRange, "no timestamps given")
	}

	duration := h.Metadata().DurationSeconds
	frames := make([]entity.Frame, 0, len(timestamps))
	var warnings []string

	for _, ts := range timestamps {
		clamped := ts
		if clamped < 0 {
			clamped = 0
		}
		if clamped > duration {
			clamped = duration
		}
		if clamped != ts {
			warnings = append(warnings, fmt.Sprintf("timestamp %gs clamped to %.2fs", ts, clamped))
		}
		f, err := h.FrameAt(ctx, clamped)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not decode frame at %gs: %v", ts, err))
			continue
		}
		f.Timestamp = ts
		frames = append(frames, *f)
	}
	return frames, warnings, nil
}

func checkRange(start, end float64, count int) error {
	if count < 1 {
		return entity.NewError(entity.KindInvalidRange, "frame count must be at least 1, got %d", count)
	}
	if end <= start {
		return entity.NewError(entity.KindInvalidRange,
			"start (%.2fs) must be less than end (%.2fs)", start, end)
	}
	return nil
}
