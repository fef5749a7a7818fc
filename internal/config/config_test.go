package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Render.Width != def.Render.Width || cfg.Highlight.MinScore != def.Highlight.MinScore {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vclip.toml")
	data := `
[highlight]
min_clip_sec = 20
max_candidates = 3

[render]
crop_mode = "center"
crf = 23
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Highlight.MinClip() != 20*time.Second {
		t.Fatalf("min clip = %v, want 20s", cfg.Highlight.MinClip())
	}
	if cfg.Highlight.MaxCandidates != 3 {
		t.Fatalf("max candidates = %d, want 3", cfg.Highlight.MaxCandidates)
	}
	if cfg.Render.CropMode != "center" || cfg.Render.CRF != 23 {
		t.Fatalf("render overrides not applied: %+v", cfg.Render)
	}
	// Untouched sections keep their defaults.
	if cfg.Render.VideoCodec != "libx264" || cfg.Subtitles.FontSize != Default().Subtitles.FontSize {
		t.Fatalf("defaults lost on partial config: %+v", cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vclip.toml")
	data := `
[openrouter]
api_key = "from-file"
model = "file/model"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	t.Setenv("OPENROUTER_MODEL", "env/model")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OpenRouter.APIKey != "from-env" || cfg.OpenRouter.Model != "env/model" {
		t.Fatalf("env overrides not applied: %+v", cfg.OpenRouter)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero min clip", func(c *Config) { c.Highlight.MinClipSec = 0 }},
		{"max below min", func(c *Config) { c.Highlight.MaxClipSec = c.Highlight.MinClipSec - 1 }},
		{"zero step", func(c *Config) { c.Highlight.WindowStepSec = 0 }},
		{"zero candidates", func(c *Config) { c.Highlight.MaxCandidates = 0 }},
		{"zero permits", func(c *Config) { c.Highlight.Permits = 0 }},
		{"zero samples", func(c *Config) { c.FaceCrop.MaxSamples = 0 }},
		{"confidence above one", func(c *Config) { c.FaceCrop.MinConfidence = 1.5 }},
		{"zero output size", func(c *Config) { c.Render.Width = 0 }},
		{"crf out of range", func(c *Config) { c.Render.CRF = 99 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vclip.toml")
	if err := os.WriteFile(path, []byte("[broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
