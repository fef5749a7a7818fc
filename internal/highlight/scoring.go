package highlight

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/vclip/internal/ports"
	"github.com/forPelevin/vclip/internal/types"
)

const (
	// perWindowOverhead approximates the prompt characters added per
	// window beyond its text (numbering, timestamps, newline).
	perWindowOverhead = 40

	defaultChunkCharBudget = 8000
	defaultPermits         = 3
	defaultMinScore        = 60
	defaultMaxCandidates   = 10
	previewTextLimit       = 200
)

const defaultPromptTemplate = `You rank highlight candidates from a video transcript for short-form clips.
Context: {context}

Candidates (one per line, 1-based index, [start - end] text):
{windows}

Return ONLY a JSON array. Each element: {"index": <1-based candidate number>, "score": <0-100>, "reason": "<one sentence>", "start": "HH:MM:SS.fff" (optional), "end": "HH:MM:SS.fff" (optional)}.
Score for hook strength, self-contained payoff and shareability. Omit candidates scoring under 40.`

// ScorerOptions tunes chunking, selection and clip duration bounds.
type ScorerOptions struct {
	MinClip         time.Duration
	MaxClip         time.Duration
	MinScore        float64
	MaxCandidates   int
	ChunkCharBudget int
	Permits         int
	// PromptTemplate overrides the default; it must contain the
	// {context} and {windows} placeholders.
	PromptTemplate string
	DraftID        string
}

// Scorer ranks candidate windows with an LLM and selects a bounded,
// non-overlapping set of clip candidates.
type Scorer struct {
	llm  ports.LLMClient
	log  zerolog.Logger
	opts ScorerOptions
}

func NewScorer(llm ports.LLMClient, log zerolog.Logger, opts ScorerOptions) (*Scorer, error) {
	if opts.MinClip <= 0 || opts.MaxClip < opts.MinClip {
		return nil, errors.New("scorer: invalid clip duration bounds")
	}
	if opts.MinScore == 0 {
		opts.MinScore = defaultMinScore
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaultMaxCandidates
	}
	if opts.ChunkCharBudget <= 0 {
		opts.ChunkCharBudget = defaultChunkCharBudget
	}
	if opts.Permits <= 0 {
		opts.Permits = defaultPermits
	}
	if opts.PromptTemplate == "" {
		opts.PromptTemplate = defaultPromptTemplate
	}
	if !strings.Contains(opts.PromptTemplate, "{context}") || !strings.Contains(opts.PromptTemplate, "{windows}") {
		return nil, errors.New("scorer: prompt template must contain {context} and {windows}")
	}
	return &Scorer{llm: llm, log: log, opts: opts}, nil
}

type chunkResult struct {
	candidates []types.ClipCandidate
	err        error
}

// ScoreHighlights chunks the windows, scores each chunk through the LLM
// with a bounded number of requests in flight, and greedily selects the
// highest-scoring non-overlapping candidates.
//
// Fails soft: an unavailable LLM or unparseable responses yield an
// empty or partial result with a nil error. Only cancellation is
// returned as an error.
func (s *Scorer) ScoreHighlights(ctx context.Context, windows []types.CandidateWindow, contentContext string) ([]types.ClipCandidate, error) {
	if len(windows) == 0 {
		return nil, nil
	}

	chunks := chunkWindows(windows, s.opts.ChunkCharBudget)
	s.log.Debug().Int("windows", len(windows)).Int("chunks", len(chunks)).Msg("scoring windows")

	permits := make(chan struct{}, s.opts.Permits)
	results := make(chan chunkResult, len(chunks))

	for _, chunk := range chunks {
		chunk := chunk
		go func() {
			select {
			case permits <- struct{}{}:
			case <-ctx.Done():
				results <- chunkResult{err: ctx.Err()}
				return
			}
			defer func() { <-permits }()
			cands, err := s.scoreChunk(ctx, chunk, contentContext)
			results <- chunkResult{candidates: cands, err: err}
		}()
	}

	var merged []types.ClipCandidate
	unavailable := 0
	for range chunks {
		res := <-results
		switch {
		case res.err == nil:
			merged = append(merged, res.candidates...)
		case errors.Is(res.err, context.Canceled), errors.Is(res.err, context.DeadlineExceeded):
			return nil, res.err
		case errors.Is(res.err, ports.ErrUnavailable):
			unavailable++
			s.log.Warn().Err(res.err).Msg("llm unavailable for chunk")
		default:
			s.log.Warn().Err(res.err).Msg("chunk scoring failed; dropping chunk")
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if unavailable == len(chunks) {
		// No backend at all; the pipeline degrades to zero candidates.
		return nil, nil
	}

	return s.selectCandidates(merged), nil
}

func (s *Scorer) scoreChunk(ctx context.Context, chunk []types.CandidateWindow, contentContext string) ([]types.ClipCandidate, error) {
	prompt := s.buildPrompt(chunk, contentContext)
	content, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	parsed, err := parseScoreResponse(content)
	if err != nil {
		return nil, fmt.Errorf("parse chunk response: %w", err)
	}

	now := time.Now().UTC()
	out := make([]types.ClipCandidate, 0, len(parsed))
	for _, p := range parsed {
		if p.dropped != "" {
			s.log.Warn().Str("reason", p.dropped).Msg("dropping malformed candidate")
			continue
		}
		c := p.cand
		if c.Index > len(chunk) {
			s.log.Warn().Int("index", c.Index).Int("windows", len(chunk)).Msg("dropping candidate with out-of-range index")
			continue
		}
		win := chunk[c.Index-1]

		start, end := win.Start, win.End
		if ts, ok := parseTimestamp(c.Start); ok {
			start = ts
		}
		if ts, ok := parseTimestamp(c.End); ok {
			end = ts
		}
		start, end, ok := clampToWindow(start, end, win.Start, win.End, s.opts.MinClip, s.opts.MaxClip)
		if !ok {
			s.log.Warn().Int("index", c.Index).Msg("dropping candidate with no valid duration adjustment")
			continue
		}

		out = append(out, types.ClipCandidate{
			ID:            uuid.NewString(),
			SourceDraftID: s.opts.DraftID,
			Start:         start,
			End:           end,
			Score:         c.Score,
			Reason:        strings.TrimSpace(c.Reason),
			PreviewText:   truncateRunes(win.Text, previewTextLimit),
			CreatedAt:     now,
		})
	}
	return out, nil
}

func (s *Scorer) buildPrompt(chunk []types.CandidateWindow, contentContext string) string {
	var b strings.Builder
	for i, w := range chunk {
		fmt.Fprintf(&b, "%d. [%s - %s] %s\n", i+1, formatTimestamp(w.Start), formatTimestamp(w.End), w.Text)
	}
	prompt := strings.ReplaceAll(s.opts.PromptTemplate, "{context}", strings.TrimSpace(contentContext))
	return strings.ReplaceAll(prompt, "{windows}", strings.TrimRight(b.String(), "\n"))
}

// selectCandidates filters by minimum score, orders best-first and
// greedily accepts candidates that do not overlap an already-accepted
// one. Ties keep response order (stable sort), so earlier array
// elements win.
func (s *Scorer) selectCandidates(cands []types.ClipCandidate) []types.ClipCandidate {
	filtered := cands[:0:0]
	for _, c := range cands {
		if c.Score >= s.opts.MinScore {
			filtered = append(filtered, c)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })

	selected := make([]types.ClipCandidate, 0, s.opts.MaxCandidates)
	for _, c := range filtered {
		if len(selected) >= s.opts.MaxCandidates {
			break
		}
		if overlapsAny(selected, c) {
			continue
		}
		selected = append(selected, c)
	}
	return selected
}

func overlapsAny(selected []types.ClipCandidate, c types.ClipCandidate) bool {
	for _, s := range selected {
		if c.Start < s.End && c.End > s.Start {
			return true
		}
	}
	return false
}

// chunkWindows packs windows into chunks bounded by an approximate
// character budget. A chunk always holds at least one window.
func chunkWindows(windows []types.CandidateWindow, budget int) [][]types.CandidateWindow {
	var chunks [][]types.CandidateWindow
	var cur []types.CandidateWindow
	size := 0
	for _, w := range windows {
		est := len(w.Text) + perWindowOverhead
		if len(cur) > 0 && size+est > budget {
			chunks = append(chunks, cur)
			cur = nil
			size = 0
		}
		cur = append(cur, w)
		size += est
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
