package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/vclip/internal/facecrop"
	"github.com/forPelevin/vclip/internal/ports"
	"github.com/forPelevin/vclip/internal/subtitle"
	"github.com/forPelevin/vclip/internal/types"
)

// Encode progress maps into this slice of the overall percent range;
// the phases before and after take the rest.
const (
	encodeStartPercent = 20.0
	encodeEndPercent   = 95.0

	// progressThrottle bounds how often encode progress is forwarded.
	progressThrottle = 100 * time.Millisecond
)

type ProgressFunc func(types.ClipRenderProgress)

type BatchProgressFunc func(types.ClipBatchRenderProgress)

type Options struct {
	SampleInterval    time.Duration
	ClusterDistancePx float64
}

// Orchestrator turns ClipRenderJobs into rendered files. One encode
// runs at a time; batches are strictly sequential.
type Orchestrator struct {
	prober   ports.VideoProber
	analyzer *facecrop.Analyzer
	encoder  ports.Encoder
	store    ports.TranscriptStore
	log      zerolog.Logger
	opts     Options
}

func NewOrchestrator(prober ports.VideoProber, analyzer *facecrop.Analyzer, encoder ports.Encoder, store ports.TranscriptStore, log zerolog.Logger, opts Options) *Orchestrator {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = time.Second
	}
	return &Orchestrator{prober: prober, analyzer: analyzer, encoder: encoder, store: store, log: log, opts: opts}
}

// RenderClips runs jobs one after another. A failed job does not abort
// the rest; cancellation stops the batch and the remaining jobs never
// start.
func (o *Orchestrator) RenderClips(ctx context.Context, jobs []types.ClipRenderJob, onProgress BatchProgressFunc) []types.ClipRenderResult {
	results := make([]types.ClipRenderResult, 0, len(jobs))
	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		i := i
		res := o.RenderClip(ctx, job, func(p types.ClipRenderProgress) {
			if onProgress == nil {
				return
			}
			onProgress(types.ClipBatchRenderProgress{
				JobIndex:       i,
				JobCount:       len(jobs),
				Job:            p,
				OverallPercent: (float64(i) + p.Percent/100) / float64(len(jobs)) * 100,
			})
		})
		results = append(results, res)
		if res.Status == types.PhaseCancelled {
			break
		}
	}
	return results
}

// RenderClip executes one job through the phase state machine. All
// failures come back as a typed result; cancellation is reported as a
// distinct Cancelled status, never as a failure.
func (o *Orchestrator) RenderClip(ctx context.Context, job types.ClipRenderJob, onProgress ProgressFunc) types.ClipRenderResult {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	report := func(phase types.RenderPhase, percent float64, msg string) {
		if onProgress != nil {
			onProgress(types.ClipRenderProgress{JobID: job.ID, Phase: phase, Percent: percent, Message: msg})
		}
	}
	report(types.PhasePending, 0, "")

	if _, err := os.Stat(job.SourcePath); err != nil {
		return o.fail(job, nil, report, fmt.Errorf("source video: %w", err))
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return o.fail(job, nil, report, fmt.Errorf("create output dir: %w", err))
	}

	info, err := o.prober.Probe(ctx, job.SourcePath)
	if err != nil {
		if ctx.Err() != nil {
			return o.cancelled(job, nil, report)
		}
		return o.fail(job, nil, report, fmt.Errorf("probe source: %w", err))
	}

	crop, res := o.resolveCrop(ctx, job, info, report)
	if res != nil {
		return *res
	}

	subtitlePath, cleanupSub, res := o.resolveSubtitles(ctx, job, report)
	if res != nil {
		return *res
	}
	defer cleanupSub()

	spec := ports.EncodeSpec{
		InputPath:    job.SourcePath,
		OutputPath:   tempOutputPath(job.OutputPath),
		Start:        job.Start,
		End:          job.End,
		VideoCodec:   job.VideoCodec,
		Preset:       job.Preset,
		CRF:          job.CRF,
		AudioBitrate: job.AudioBitrate,
	}
	var cropRect *types.Rect
	if crop != nil {
		cropRect = &crop.Region
	}
	if job.Logo != nil || job.CropMode == types.CropModeSplitLayout {
		spec.FilterGraph = buildComplexGraph(job, cropRect, info.Width, info.Height, subtitlePath)
		if job.Logo != nil {
			spec.ExtraInputs = []string{job.Logo.Path}
		}
	} else {
		spec.FilterChain = buildFilterChain(cropRect, job.OutputWidth, job.OutputHeight, subtitlePath)
	}

	report(types.PhaseVideoRendering, encodeStartPercent, "")
	lastReport := time.Now()
	err = o.encoder.Encode(ctx, spec, func(frac float64) {
		now := time.Now()
		if now.Sub(lastReport) < progressThrottle && frac < 1 {
			return
		}
		lastReport = now
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		report(types.PhaseVideoRendering, encodeStartPercent+frac*(encodeEndPercent-encodeStartPercent), "")
	})
	if err != nil {
		_ = os.Remove(spec.OutputPath)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return o.cancelled(job, crop, report)
		}
		return o.fail(job, crop, report, fmt.Errorf("encode: %w", err))
	}

	report(types.PhasePostProcessing, encodeEndPercent, "")
	// Delete-then-move so a previous output never survives a partial
	// replacement.
	if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(spec.OutputPath)
		return o.fail(job, crop, report, fmt.Errorf("replace output: %w", err))
	}
	if err := os.Rename(spec.OutputPath, job.OutputPath); err != nil {
		_ = os.Remove(spec.OutputPath)
		return o.fail(job, crop, report, fmt.Errorf("move output: %w", err))
	}

	var size int64
	if fi, err := os.Stat(job.OutputPath); err == nil {
		size = fi.Size()
	}

	report(types.PhaseCompleted, 100, "")
	return types.ClipRenderResult{
		JobID:      job.ID,
		Status:     types.PhaseCompleted,
		OutputPath: job.OutputPath,
		SizeBytes:  size,
		Duration:   job.End - job.Start,
		Crop:       crop,
	}
}

// resolveCrop returns the crop region for modes that need geometry. A
// failed face analysis degrades to the deterministic center crop; only
// cancellation short-circuits the job.
func (o *Orchestrator) resolveCrop(ctx context.Context, job types.ClipRenderJob, info ports.VideoInfo, report func(types.RenderPhase, float64, string)) (*types.CropRegionResult, *types.ClipRenderResult) {
	if !job.CropMode.RequiresGeometry() {
		return nil, nil
	}

	var crop types.CropRegionResult
	switch job.CropMode {
	case types.CropModeAutoDetect:
		report(types.PhaseFaceDetection, 5, "")
		analyses, err := o.analyzer.AnalyzeVideo(ctx, job.SourcePath, o.opts.SampleInterval, job.Start, job.End)
		if err != nil {
			if ctx.Err() != nil {
				res := o.cancelled(job, nil, report)
				return nil, &res
			}
			o.log.Warn().Err(err).Str("job", job.ID).Msg("face analysis failed; falling back to center crop")
			analyses = nil
		}
		report(types.PhaseCropCalculation, 15, "")
		crop = facecrop.CalculateCropRegion(analyses, info.Width, info.Height, job.OutputWidth, job.OutputHeight, o.opts.ClusterDistancePx)
	case types.CropModeManual:
		report(types.PhaseCropCalculation, 15, "")
		crop = facecrop.CenterCrop(info.Width, info.Height, job.OutputWidth, job.OutputHeight, job.ManualOffsetX)
	default: // center
		report(types.PhaseCropCalculation, 15, "")
		crop = facecrop.CenterCrop(info.Width, info.Height, job.OutputWidth, job.OutputHeight, 0)
	}
	return &crop, nil
}

// resolveSubtitles returns the subtitle file to burn, writing a temp
// artifact when the job asks for subtitles without supplying one. The
// returned cleanup removes the temp artifact; it is a no-op for
// caller-supplied paths.
func (o *Orchestrator) resolveSubtitles(ctx context.Context, job types.ClipRenderJob, report func(types.RenderPhase, float64, string)) (string, func(), *types.ClipRenderResult) {
	noop := func() {}
	if !job.BurnSubtitles {
		return "", noop, nil
	}
	if job.SubtitlePath != "" {
		return job.SubtitlePath, noop, nil
	}

	report(types.PhaseSubtitleGeneration, 18, "")
	segments, err := o.store.Segments(ctx, job.DraftID)
	if err != nil {
		if ctx.Err() != nil {
			res := o.cancelled(job, nil, report)
			return "", noop, &res
		}
		o.log.Warn().Err(err).Str("draft", job.DraftID).Msg("transcript unavailable; rendering without subtitles")
		return "", noop, nil
	}

	clipSegs := subtitle.BuildClipSegments(segments, job.Start, job.End)
	track, events := subtitle.Compile(clipSegs, job.SubtitleStyle, job.OutputWidth, job.OutputHeight)
	if len(events) == 0 {
		return "", noop, nil
	}

	f, err := os.CreateTemp("", "vclip-*.ass")
	if err != nil {
		res := o.fail(job, nil, report, fmt.Errorf("subtitle temp file: %w", err))
		return "", noop, &res
	}
	path := f.Name()
	if _, err := f.WriteString(track); err != nil {
		f.Close()
		os.Remove(path)
		res := o.fail(job, nil, report, fmt.Errorf("write subtitles: %w", err))
		return "", noop, &res
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		res := o.fail(job, nil, report, fmt.Errorf("write subtitles: %w", err))
		return "", noop, &res
	}
	return path, func() { os.Remove(path) }, nil
}

func (o *Orchestrator) fail(job types.ClipRenderJob, crop *types.CropRegionResult, report func(types.RenderPhase, float64, string), err error) types.ClipRenderResult {
	o.log.Error().Err(err).Str("job", job.ID).Msg("render failed")
	report(types.PhaseFailed, 0, err.Error())
	return types.ClipRenderResult{
		JobID:  job.ID,
		Status: types.PhaseFailed,
		Crop:   crop,
		Error:  err.Error(),
	}
}

func (o *Orchestrator) cancelled(job types.ClipRenderJob, crop *types.CropRegionResult, report func(types.RenderPhase, float64, string)) types.ClipRenderResult {
	o.log.Info().Str("job", job.ID).Msg("render cancelled")
	report(types.PhaseCancelled, 0, "")
	return types.ClipRenderResult{
		JobID:  job.ID,
		Status: types.PhaseCancelled,
		Crop:   crop,
	}
}

func tempOutputPath(final string) string {
	ext := filepath.Ext(final)
	return strings.TrimSuffix(final, ext) + ".tmp" + ext
}
