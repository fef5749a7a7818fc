// Package config loads the vclip TOML config file, applies defaults
// and environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Paths      Paths      `toml:"paths"`
	OpenRouter OpenRouter `toml:"openrouter"`
	Highlight  Highlight  `toml:"highlight"`
	FaceCrop   FaceCrop   `toml:"facecrop"`
	Render     Render     `toml:"render"`
	Subtitles  Subtitles  `toml:"subtitles"`
}

type Paths struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	FaceCascade    string `toml:"face_cascade"`
	TranscriptsDir string `toml:"transcripts_dir"`
	OutDir         string `toml:"out_dir"`
}

type OpenRouter struct {
	APIKey       string   `toml:"api_key"`
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

type Highlight struct {
	MinClipSec      float64 `toml:"min_clip_sec"`
	MaxClipSec      float64 `toml:"max_clip_sec"`
	WindowStepSec   float64 `toml:"window_step_sec"`
	MaxCandidates   int     `toml:"max_candidates"`
	MinScore        float64 `toml:"min_score"`
	ChunkCharBudget int     `toml:"chunk_char_budget"`
	Permits         int     `toml:"permits"`
	PromptTemplate  string  `toml:"prompt_template"`
}

type FaceCrop struct {
	SampleIntervalSec float64 `toml:"sample_interval_sec"`
	MaxSamples        int     `toml:"max_samples"`
	MinConfidence     float64 `toml:"min_confidence"`
	ClusterDistancePx float64 `toml:"cluster_distance_px"`
}

type Render struct {
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	CropMode     string `toml:"crop_mode"`
	VideoCodec   string `toml:"video_codec"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	AudioBitrate string `toml:"audio_bitrate"`
}

type Subtitles struct {
	Enabled        bool    `toml:"enabled"`
	FontName       string  `toml:"font_name"`
	FontSize       int     `toml:"font_size"`
	FillColor      string  `toml:"fill_color"`
	HighlightColor string  `toml:"highlight_color"`
	OutlineColor   string  `toml:"outline_color"`
	ShadowColor    string  `toml:"shadow_color"`
	OutlineWidth   float64 `toml:"outline_width"`
	ShadowWidth    float64 `toml:"shadow_width"`
	PositionX      float64 `toml:"position_x"`
	PositionY      float64 `toml:"position_y"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Paths: Paths{
			FFmpeg:         "ffmpeg",
			FFprobe:        "ffprobe",
			TranscriptsDir: ".cache/transcripts",
			OutDir:         "out",
		},
		OpenRouter: OpenRouter{
			Model:   "anthropic/claude-3.5-sonnet",
			BaseURL: "https://openrouter.ai",
		},
		Highlight: Highlight{
			MinClipSec:      15,
			MaxClipSec:      60,
			WindowStepSec:   5,
			MaxCandidates:   10,
			MinScore:        60,
			ChunkCharBudget: 8000,
			Permits:         3,
		},
		FaceCrop: FaceCrop{
			SampleIntervalSec: 1,
			MaxSamples:        20,
			MinConfidence:     0.4,
			ClusterDistancePx: 150,
		},
		Render: Render{
			Width:        1080,
			Height:       1920,
			CropMode:     "auto",
			VideoCodec:   "libx264",
			Preset:       "veryfast",
			CRF:          18,
			AudioBitrate: "192k",
		},
		Subtitles: Subtitles{
			Enabled:        true,
			FontName:       "Inter",
			FontSize:       78,
			FillColor:      "#FFD200",
			HighlightColor: "#FFFFFF",
			OutlineColor:   "#000000",
			ShadowColor:    "#64000000",
			OutlineWidth:   6,
			ShadowWidth:    2,
			PositionX:      0.5,
			PositionY:      0.82,
		},
	}
}

// Load reads the config file at path, merged over defaults. A missing
// file is not an error; callers get the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.OpenRouter.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		c.OpenRouter.Model = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		c.OpenRouter.BaseURL = v
	}
}

func (c Config) Validate() error {
	if c.Highlight.MinClipSec <= 0 {
		return errors.New("highlight.min_clip_sec must be > 0")
	}
	if c.Highlight.MaxClipSec < c.Highlight.MinClipSec {
		return errors.New("highlight.max_clip_sec must be >= min_clip_sec")
	}
	if c.Highlight.WindowStepSec <= 0 {
		return errors.New("highlight.window_step_sec must be > 0")
	}
	if c.Highlight.MaxCandidates <= 0 {
		return errors.New("highlight.max_candidates must be > 0")
	}
	if c.Highlight.Permits <= 0 {
		return errors.New("highlight.permits must be > 0")
	}
	if c.FaceCrop.MaxSamples <= 0 {
		return errors.New("facecrop.max_samples must be > 0")
	}
	if c.FaceCrop.MinConfidence < 0 || c.FaceCrop.MinConfidence > 1 {
		return errors.New("facecrop.min_confidence must be in [0,1]")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New("render.width and render.height must be > 0")
	}
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return errors.New("render.crf must be in [0,51]")
	}
	return nil
}

func (h Highlight) MinClip() time.Duration { return secs(h.MinClipSec) }
func (h Highlight) MaxClip() time.Duration { return secs(h.MaxClipSec) }
func (h Highlight) Step() time.Duration    { return secs(h.WindowStepSec) }

func (f FaceCrop) SampleInterval() time.Duration { return secs(f.SampleIntervalSec) }

func secs(v float64) time.Duration { return time.Duration(v * float64(time.Second)) }
