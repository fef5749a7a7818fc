// Package facecrop samples frames from a time range, detects faces and
// derives the horizontal crop region for a vertical-aspect output.
package facecrop

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/vclip/internal/ports"
	"github.com/forPelevin/vclip/internal/types"
)

const (
	defaultMaxSamples    = 20
	defaultMinConfidence = 0.4
)

// AnalyzerOptions tunes sampling density and detection filtering.
type AnalyzerOptions struct {
	MaxSamples    int
	MinConfidence float64
	// Workers bounds parallel frame extraction + detection. Zero means
	// roughly a third of the CPUs, leaving headroom for a foreground UI.
	Workers int
}

type Analyzer struct {
	frames ports.FrameExtractor
	faces  ports.FaceDetector
	log    zerolog.Logger
	opts   AnalyzerOptions
}

func NewAnalyzer(frames ports.FrameExtractor, faces ports.FaceDetector, log zerolog.Logger, opts AnalyzerOptions) *Analyzer {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = defaultMaxSamples
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = defaultMinConfidence
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU() / 3
		if opts.Workers < 1 {
			opts.Workers = 1
		}
	}
	return &Analyzer{frames: frames, faces: faces, log: log, opts: opts}
}

// AnalyzeVideo samples evenly spaced frames across [rangeStart,
// rangeEnd] at sampleInterval (widened if needed so the sample count
// never exceeds MaxSamples), runs face detection on each frame in a
// bounded worker pool, and returns per-frame analyses sorted by
// timestamp. A frame that fails to extract or decode is logged and
// contributes an empty analysis; only cancellation aborts the run.
func (a *Analyzer) AnalyzeVideo(ctx context.Context, videoPath string, sampleInterval time.Duration, rangeStart, rangeEnd time.Duration) ([]types.FrameFaceAnalysis, error) {
	stamps := sampleTimestamps(rangeStart, rangeEnd, sampleInterval, a.opts.MaxSamples)
	if len(stamps) == 0 {
		return nil, nil
	}

	analyses := make([]types.FrameFaceAnalysis, len(stamps))
	jobs := make(chan int)
	done := make(chan struct{})

	workers := a.opts.Workers
	if workers > len(stamps) {
		workers = len(stamps)
	}
	for w := 0; w < workers; w++ {
		go func() {
			for {
				var i int
				var ok bool
				select {
				case i, ok = <-jobs:
					if !ok {
						return
					}
				case <-ctx.Done():
					return
				}
				analyses[i] = a.analyzeFrame(ctx, videoPath, stamps[i])
				select {
				case done <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range stamps {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	for range stamps {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Indexed writes already preserve schedule order; sort anyway so
	// callers never depend on completion order.
	sort.Slice(analyses, func(i, j int) bool { return analyses[i].Timestamp < analyses[j].Timestamp })
	return analyses, nil
}

func (a *Analyzer) analyzeFrame(ctx context.Context, videoPath string, at time.Duration) types.FrameFaceAnalysis {
	analysis := types.FrameFaceAnalysis{Timestamp: at}

	img, err := a.frames.ExtractFrame(ctx, videoPath, at)
	if err != nil {
		a.log.Warn().Err(err).Dur("at", at).Msg("frame extraction failed")
		return analysis
	}
	faces, err := a.faces.DetectFaces(img)
	if err != nil {
		a.log.Warn().Err(err).Dur("at", at).Msg("face detection failed")
		return analysis
	}
	for _, f := range faces {
		if f.Confidence < a.opts.MinConfidence {
			continue
		}
		analysis.Faces = append(analysis.Faces, f)
	}
	return analysis
}

// sampleTimestamps spaces samples evenly across the range. When the
// interval would produce more than maxSamples, the interval is widened
// (never truncating the range) so the cap is respected.
func sampleTimestamps(start, end, interval time.Duration, maxSamples int) []time.Duration {
	if end <= start {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}
	span := end - start
	n := int(span/interval) + 1
	if n > maxSamples {
		n = maxSamples
		if n > 1 {
			interval = span / time.Duration(n-1)
		}
	}
	out := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		ts := start + time.Duration(i)*interval
		if ts > end {
			ts = end
		}
		out = append(out, ts)
	}
	return out
}
