package engine

import (
	"math"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
	"gonum.org/v1/gonum/stat"
)

// DetectMotion groups above-threshold runs of the change signal into
// motion events. sensitivity is inverse: 1.0 admits the weakest motion.
// Runs separated by less than minGapSeconds merge into one event.
func DetectMotion(sig entity.ChangeSignal, sensitivity, minGapSeconds float64) ([]entity.MotionEvent, float64) {
	if sig.Empty() {
		return nil, 0
	}

	vals := sig.Intensities()
	mean, std := stat.MeanStdDev(vals, nil)
	if math.IsNaN(std) {
		std = 0
	}
	max := maxIntensity(vals)
	threshold := mean + (1.0-sensitivity)*std*3

	above := make([]bool, len(vals))
	for i, v := range vals {
		above[i] = v > threshold
	}

	minGapSamples := int(minGapSeconds * sig.Cadence)
	var events []entity.MotionEvent

	i := 0
	for i < len(above) {
		if !above[i] {
			i++
			continue
		}
		start := i
		end := i
		for end < len(above) {
			if above[end] {
				end++
			} else if anyWithin(above, end, minGapSamples) {
				// Below threshold but more motion within the gap window:
				// still the same event.
				end++
			} else {
				break
			}
		}

		peakIdx := start
		for j := start; j < end; j++ {
			if vals[j] > vals[peakIdx] {
				peakIdx = j
			}
		}

		startTs := sig.Samples[start].Timestamp
		endTs := sig.Duration
		if end < len(sig.Samples) {
			endTs = sig.Samples[end].Timestamp
		}
		norm := 0.0
		if max > 0 {
			norm = vals[peakIdx] / max
		}
		events = append(events, entity.MotionEvent{
			StartSeconds:    round2(startTs),
			PeakSeconds:     round2(sig.Samples[peakIdx].Timestamp),
			EndSeconds:      round2(endTs),
			DurationSeconds: round2(endTs - startTs),
			PeakIntensity:   round4(vals[peakIdx]),
			Normalized:      round2(norm),
		})
		i = end
	}

	return events, threshold
}

// DetectScenes flags cut boundaries where the signal spikes past
// thresholdMultiplier times its one-second running mean and both
// neighboring samples sit at less than half the spike. Candidates closer
// than minSceneSeconds to an accepted cut are suppressed outright; they do
// not extend or replace the previous cut.
func DetectScenes(sig entity.ChangeSignal, thresholdMultiplier, minSceneSeconds float64) []entity.Scene {
	duration := sig.Duration
	if sig.Empty() {
		return []entity.Scene{{
			Index:           0,
			StartSeconds:    0,
			EndSeconds:      round2(duration),
			DurationSeconds: round2(duration),
		}}
	}

	vals := sig.Intensities()
	window := int(sig.Cadence)
	if window < 1 {
		window = 1
	}
	rolling := runningMean(vals, window)

	type cut struct {
		idx       int
		intensity float64
	}
	var cuts []cut
	minGapSamples := int(minSceneSeconds * sig.Cadence)

	for i := 1; i < len(vals)-1; i++ {
		if rolling[i] <= 0 || vals[i] <= rolling[i]*thresholdMultiplier {
			continue
		}
		if vals[i] <= vals[i-1]*2 || vals[i] <= vals[i+1]*2 {
			continue
		}
		if len(cuts) > 0 && i-cuts[len(cuts)-1].idx < minGapSamples {
			continue
		}
		cuts = append(cuts, cut{idx: i, intensity: vals[i]})
	}

	scenes := make([]entity.Scene, 0, len(cuts)+1)
	prevEnd := 0.0
	for i, c := range cuts {
		cutTs := round2(sig.Samples[c.idx].Timestamp)
		scenes = append(scenes, entity.Scene{
			Index:           i,
			StartSeconds:    round2(prevEnd),
			EndSeconds:      cutTs,
			DurationSeconds: round2(cutTs - prevEnd),
			CutSeconds:      ptr(cutTs),
			CutIntensity:    round4(c.intensity),
		})
		prevEnd = cutTs
	}
	scenes = append(scenes, entity.Scene{
		Index:           len(cuts),
		StartSeconds:    round2(prevEnd),
		EndSeconds:      round2(duration),
		DurationSeconds: round2(duration - prevEnd),
	})
	return scenes
}

// DetectPauses finds intervals where intensity stays below a tolerance for
// at least minDurationSeconds. sensitivity widens the tolerance: 1.0
// treats residual motion up to the signal mean as stationary.
func DetectPauses(sig entity.ChangeSignal, sensitivity, minDurationSeconds float64) []entity.Pause {
	if sig.Empty() {
		return nil
	}

	vals := sig.Intensities()
	mean := stat.Mean(vals, nil)
	threshold := mean * (1.0 + (1.0-sensitivity)*0.5)
	minSamples := int(minDurationSeconds * sig.Cadence)

	var pauses []entity.Pause
	i := 0
	for i < len(vals) {
		if vals[i] >= threshold {
			i++
			continue
		}
		start := i
		for i < len(vals) && vals[i] < threshold {
			i++
		}
		end := i
		if end-start < minSamples {
			continue
		}
		startTs := sig.Samples[start].Timestamp
		endTs := sig.Duration
		if end < len(sig.Samples) {
			endTs = sig.Samples[end].Timestamp
		}
		mid := (start + end) / 2
		pauses = append(pauses, entity.Pause{
			StartSeconds:    round2(startTs),
			EndSeconds:      round2(endTs),
			DurationSeconds: round2(endTs - startTs),
			Representative:  round2(sig.Samples[mid].Timestamp),
			MeanIntensity:   round4(stat.Mean(vals[start:end], nil)),
		})
	}
	return pauses
}

// TimelineSummary aggregates the change signal into fixed-width buckets
// plus an activity breakdown against 1.5x the signal baseline.
type TimelineSummary struct {
	Buckets        []port.TimelineBucket
	Baseline       float64
	PeakTimestamp  float64
	PeakIntensity  float64
	ActiveFraction float64
	ActivePeriods  []entity.Period
	QuietPeriods   []entity.Period
}

// SummarizeTimeline buckets the signal at the given resolution.
func SummarizeTimeline(sig entity.ChangeSignal, resolutionSeconds float64) TimelineSummary {
	var s TimelineSummary
	if sig.Empty() {
		return s
	}

	vals := sig.Intensities()
	s.Baseline = stat.Mean(vals, nil)

	bucketSamples := int(resolutionSeconds * sig.Cadence)
	if bucketSamples < 1 {
		bucketSamples = 1
	}
	nBuckets := (len(vals) + bucketSamples - 1) / bucketSamples
	peakIdx := 0
	for i := 0; i < nBuckets; i++ {
		lo := i * bucketSamples
		hi := lo + bucketSamples
		if hi > len(vals) {
			hi = len(vals)
		}
		mid := (sig.Samples[lo].Timestamp + sig.Samples[hi-1].Timestamp) / 2
		b := port.TimelineBucket{
			Midpoint:  round2(mid),
			Intensity: stat.Mean(vals[lo:hi], nil),
		}
		s.Buckets = append(s.Buckets, b)
		if b.Intensity > s.Buckets[peakIdx].Intensity {
			peakIdx = i
		}
	}
	s.PeakTimestamp = s.Buckets[peakIdx].Midpoint
	s.PeakIntensity = round4(s.Buckets[peakIdx].Intensity)

	activeThreshold := s.Baseline * 1.5
	inActive := false
	periodStart := 0.0
	for i, b := range s.Buckets {
		switch {
		case b.Intensity > activeThreshold && !inActive:
			// A signal that opens active has no leading quiet period.
			if i > 0 && b.Midpoint > periodStart {
				s.QuietPeriods = append(s.QuietPeriods, entity.Period{Start: periodStart, End: b.Midpoint})
			}
			periodStart = b.Midpoint
			inActive = true
		case b.Intensity <= activeThreshold && inActive:
			s.ActivePeriods = append(s.ActivePeriods, entity.Period{Start: periodStart, End: b.Midpoint})
			periodStart = b.Midpoint
			inActive = false
		}
	}
	tail := entity.Period{Start: periodStart, End: round2(sig.Duration)}
	if inActive {
		s.ActivePeriods = append(s.ActivePeriods, tail)
	} else {
		s.QuietPeriods = append(s.QuietPeriods, tail)
	}

	activeTime := 0.0
	for _, p := range s.ActivePeriods {
		activeTime += p.End - p.Start
	}
	if sig.Duration > 0 {
		s.ActiveFraction = round2(activeTime / sig.Duration)
	}
	return s
}

// runningMean is a zero-padded centered moving average.
func runningMean(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	half := window / 2
	for i := range vals {
		lo := i - half
		hi := lo + window
		if lo < 0 {
			lo = 0
		}
		if hi > len(vals) {
			hi = len(vals)
		}
		var sum float64
		for j := lo; j < hi; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

func anyWithin(above []bool, from, n int) bool {
	hi := from + n
	if hi > len(above) {
		return false
	}
	for j := from; j < hi; j++ {
		if above[j] {
			return true
		}
	}
	return false
}

func maxIntensity(vals []float64) float64 {
	max := 0.0
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	return max
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func ptr[T any](v T) *T { return &v }
