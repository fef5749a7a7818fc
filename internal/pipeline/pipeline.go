// Package pipeline wires the adapters and pipeline stages into the
// end-to-end run: transcript -> candidate windows -> LLM scoring ->
// per-clip crop/subtitle/render.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/forPelevin/vclip/internal/config"
	"github.com/forPelevin/vclip/internal/facecrop"
	"github.com/forPelevin/vclip/internal/highlight"
	"github.com/forPelevin/vclip/internal/ports"
	"github.com/forPelevin/vclip/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/vclip/internal/ports/adapters/openrouter"
	"github.com/forPelevin/vclip/internal/ports/adapters/pigoface"
	"github.com/forPelevin/vclip/internal/ports/adapters/transcriptfile"
	"github.com/forPelevin/vclip/internal/render"
	"github.com/forPelevin/vclip/internal/types"
)

type Config struct {
	InputPath string
	// TranscriptPath defaults to <transcripts_dir>/<input-stem>.json.
	TranscriptPath string
	OutDir         string
	ClipsN         int
	ContentContext string

	App config.Config
	Log zerolog.Logger
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.ClipsN <= 0 {
		return errors.New("clips must be > 0")
	}
	if err := c.App.Validate(); err != nil {
		return err
	}
	return openrouter.ValidateBaseURL(c.App.OpenRouter.BaseURL, c.App.OpenRouter.AllowedHosts)
}

type Result struct {
	OutDir   string
	Manifest types.Manifest
	Renders  []types.ClipRenderResult
}

// Run executes the full pipeline and writes clips plus a manifest.json
// into a per-run output directory.
func Run(ctx context.Context, cfg Config) (Result, error) {
	log := cfg.Log

	candidates, store, draftID, err := scoreCandidates(ctx, cfg)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) > cfg.ClipsN {
		candidates = candidates[:cfg.ClipsN]
	}
	if len(candidates) == 0 {
		log.Warn().Msg("no clip candidates selected; nothing to render")
	}
	// Render in timeline order so clip numbering follows the source.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Start < candidates[j].Start })

	runOutDir := buildRunOutDir(cfg.OutDir, cfg.InputPath, time.Now().UTC())
	clipsDir := filepath.Join(runOutDir, "clips")
	if err := os.MkdirAll(clipsDir, 0o755); err != nil {
		return Result{}, err
	}
	log.Info().Str("dir", runOutDir).Msg("output run dir")

	orch := newOrchestrator(cfg, store, log)
	jobs := make([]types.ClipRenderJob, 0, len(candidates))
	for i, cand := range candidates {
		jobs = append(jobs, buildJob(cfg, cand, draftID, filepath.Join(clipsDir, fmt.Sprintf("%03d.mp4", i+1))))
	}

	renders := orch.RenderClips(ctx, jobs, func(p types.ClipBatchRenderProgress) {
		log.Debug().
			Int("job", p.JobIndex+1).
			Int("of", p.JobCount).
			Str("phase", string(p.Job.Phase)).
			Float64("pct", p.Job.Percent).
			Msg("render progress")
	})
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	manifest := buildManifest(cfg.InputPath, candidates, renders)
	b, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return Result{}, err
	}
	log.Info().Int("clips", len(manifest.Clips)).Str("path", manifestPath).Msg("manifest written")

	return Result{OutDir: runOutDir, Manifest: manifest, Renders: renders}, nil
}

// ScoreCandidates runs only the windowing + scoring stages, for
// inspecting what would be rendered.
func ScoreCandidates(ctx context.Context, cfg Config) ([]types.ClipCandidate, error) {
	cands, _, _, err := scoreCandidates(ctx, cfg)
	return cands, err
}

func scoreCandidates(ctx context.Context, cfg Config) ([]types.ClipCandidate, ports.TranscriptStore, string, error) {
	log := cfg.Log

	transcriptPath := cfg.TranscriptPath
	if transcriptPath == "" {
		transcriptPath = filepath.Join(cfg.App.Paths.TranscriptsDir, inputStem(cfg.InputPath)+".json")
	}
	store := transcriptfile.New(filepath.Dir(transcriptPath))
	draftID := strings.TrimSuffix(filepath.Base(transcriptPath), ".json")

	segments, err := store.Segments(ctx, draftID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load transcript: %w", err)
	}
	log.Info().Int("segments", len(segments)).Msg("transcript loaded")

	hl := cfg.App.Highlight
	windows := highlight.GenerateWindows(segments, hl.MinClip(), hl.MaxClip(), hl.Step())
	log.Info().Int("windows", len(windows)).Msg("candidate windows generated")

	llm := openrouter.New(cfg.App.OpenRouter.APIKey, cfg.App.OpenRouter.Model, cfg.App.OpenRouter.BaseURL)
	scorer, err := highlight.NewScorer(llm, log, highlight.ScorerOptions{
		MinClip:         hl.MinClip(),
		MaxClip:         hl.MaxClip(),
		MinScore:        hl.MinScore,
		MaxCandidates:   hl.MaxCandidates,
		ChunkCharBudget: hl.ChunkCharBudget,
		Permits:         hl.Permits,
		PromptTemplate:  hl.PromptTemplate,
		DraftID:         draftID,
	})
	if err != nil {
		return nil, nil, "", err
	}

	candidates, err := scorer.ScoreHighlights(ctx, windows, cfg.ContentContext)
	if err != nil {
		return nil, nil, "", err
	}
	log.Info().Int("candidates", len(candidates)).Msg("candidates selected")
	return candidates, store, draftID, nil
}

func newOrchestrator(cfg Config, store ports.TranscriptStore, log zerolog.Logger) *render.Orchestrator {
	video := ffmpeg.New(cfg.App.Paths.FFmpeg, cfg.App.Paths.FFprobe)

	var detector ports.FaceDetector
	detector, err := pigoface.New(cfg.App.Paths.FaceCascade)
	if err != nil {
		log.Warn().Err(err).Msg("face detector unavailable; auto crop degrades to center")
		detector = unavailableDetector{}
	}

	analyzer := facecrop.NewAnalyzer(video, detector, log, facecrop.AnalyzerOptions{
		MaxSamples:    cfg.App.FaceCrop.MaxSamples,
		MinConfidence: cfg.App.FaceCrop.MinConfidence,
	})
	return render.NewOrchestrator(video, analyzer, video, store, log, render.Options{
		SampleInterval:    cfg.App.FaceCrop.SampleInterval(),
		ClusterDistancePx: cfg.App.FaceCrop.ClusterDistancePx,
	})
}

func buildJob(cfg Config, cand types.ClipCandidate, draftID, outputPath string) types.ClipRenderJob {
	sub := cfg.App.Subtitles
	return types.ClipRenderJob{
		ID:            cand.ID,
		DraftID:       draftID,
		SourcePath:    cfg.InputPath,
		OutputPath:    outputPath,
		Start:         cand.Start,
		End:           cand.End,
		CropMode:      types.CropMode(cfg.App.Render.CropMode),
		OutputWidth:   cfg.App.Render.Width,
		OutputHeight:  cfg.App.Render.Height,
		BurnSubtitles: sub.Enabled,
		SubtitleStyle: types.SubtitleStyle{
			FontName:       sub.FontName,
			FontSize:       sub.FontSize,
			FillColor:      sub.FillColor,
			HighlightColor: sub.HighlightColor,
			OutlineColor:   sub.OutlineColor,
			ShadowColor:    sub.ShadowColor,
			OutlineWidth:   sub.OutlineWidth,
			ShadowWidth:    sub.ShadowWidth,
			PositionX:      sub.PositionX,
			PositionY:      sub.PositionY,
		},
		VideoCodec:   cfg.App.Render.VideoCodec,
		Preset:       cfg.App.Render.Preset,
		CRF:          cfg.App.Render.CRF,
		AudioBitrate: cfg.App.Render.AudioBitrate,
	}
}

func buildManifest(input string, candidates []types.ClipCandidate, renders []types.ClipRenderResult) types.Manifest {
	m := types.Manifest{Input: input}
	for i, r := range renders {
		if !r.Succeeded() || i >= len(candidates) {
			continue
		}
		cand := candidates[i]
		clip := types.ManifestClip{
			ID:        fmt.Sprintf("%03d", i+1),
			StartSec:  cand.Start.Seconds(),
			EndSec:    cand.End.Seconds(),
			Score:     cand.Score,
			Reason:    cand.Reason,
			Text:      cand.PreviewText,
			File:      filepath.ToSlash(filepath.Join("clips", filepath.Base(r.OutputPath))),
			SizeBytes: r.SizeBytes,
		}
		if r.Crop != nil {
			clip.Strategy = string(r.Crop.Strategy)
		}
		m.Clips = append(m.Clips, clip)
	}
	return m
}

// unavailableDetector keeps the analyzer wiring intact when no cascade
// is configured; every frame degrades like a detection failure.
type unavailableDetector struct{}

func (unavailableDetector) DetectFaces([]byte) ([]types.FaceDetection, error) {
	return nil, ports.ErrUnavailable
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := normalizePathSegment(inputStem(input))
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, hash(runSeed)[:6]))
}

func inputStem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
