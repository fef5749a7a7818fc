package highlight

import (
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/vclip/internal/types"
)

// dedupOverlapRatio: a window is dropped as a near-duplicate when its
// temporal overlap with an already-kept window exceeds this share of
// the shorter window's duration.
const dedupOverlapRatio = 0.8

// GenerateWindows slides a window start across the transcript in steps
// of step and, at each start, tries three target durations (min,
// midpoint, max). Segments overlapping the target range define the
// actual span; spans whose duration falls outside [minDur, maxDur] are
// discarded. The overlapping candidates that survive are deduplicated.
//
// Pure and deterministic; no I/O.
func GenerateWindows(segments []types.Segment, minDur, maxDur, step time.Duration) []types.CandidateWindow {
	if len(segments) == 0 || minDur <= 0 || maxDur < minDur || step <= 0 {
		return nil
	}

	total := dur(segments[len(segments)-1].End)
	targets := [3]time.Duration{minDur, (minDur + maxDur) / 2, maxDur}

	var out []types.CandidateWindow
	for start := time.Duration(0); start < total; start += step {
		for _, target := range targets {
			w, ok := windowAt(segments, start, target, minDur, maxDur)
			if !ok {
				continue
			}
			out = append(out, w)
		}
	}
	return dedupeWindows(out)
}

func windowAt(segments []types.Segment, start, target, minDur, maxDur time.Duration) (types.CandidateWindow, bool) {
	end := start + target
	first, last := -1, -1
	for i, s := range segments {
		ss, se := dur(s.Start), dur(s.End)
		if se <= start || ss >= end {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return types.CandidateWindow{}, false
	}

	actualStart := dur(segments[first].Start)
	actualEnd := dur(segments[last].End)
	span := actualEnd - actualStart
	if span < minDur || span > maxDur {
		return types.CandidateWindow{}, false
	}

	parts := make([]string, 0, last-first+1)
	for _, s := range segments[first : last+1] {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, " ")
	if text == "" {
		return types.CandidateWindow{}, false
	}

	return types.CandidateWindow{
		Start:        actualStart,
		End:          actualEnd,
		Text:         text,
		Segments:     segments[first : last+1],
		StartSegment: first,
		EndSegment:   last,
	}, true
}

// dedupeWindows sorts by start (longer first on ties) and greedily
// keeps a window unless it overlaps an already-kept one by more than
// dedupOverlapRatio of the shorter window's duration.
func dedupeWindows(windows []types.CandidateWindow) []types.CandidateWindow {
	if len(windows) == 0 {
		return nil
	}
	sorted := make([]types.CandidateWindow, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Duration() > sorted[j].Duration()
	})

	kept := make([]types.CandidateWindow, 0, len(sorted))
	for _, w := range sorted {
		if isNearDuplicate(kept, w) {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}

func isNearDuplicate(kept []types.CandidateWindow, w types.CandidateWindow) bool {
	for _, k := range kept {
		ov := overlap(k.Start, k.End, w.Start, w.End)
		if ov <= 0 {
			continue
		}
		shorter := k.Duration()
		if w.Duration() < shorter {
			shorter = w.Duration()
		}
		if float64(ov) > dedupOverlapRatio*float64(shorter) {
			return true
		}
	}
	return false
}

func overlap(aStart, aEnd, bStart, bEnd time.Duration) time.Duration {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	return end - start
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
