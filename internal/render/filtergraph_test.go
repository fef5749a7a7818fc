package render

import (
	"strings"
	"testing"

	"github.com/forPelevin/vclip/internal/types"
)

func TestBuildFilterChain(t *testing.T) {
	t.Parallel()

	crop := &types.Rect{X: 656, Y: 0, Width: 608, Height: 1080}
	got := buildFilterChain(crop, 1080, 1920, "/tmp/subs.ass")
	want := "crop=608:1080:656:0," +
		"scale=1080:1920:force_original_aspect_ratio=decrease," +
		"pad=1080:1920:(ow-iw)/2:(oh-ih)/2," +
		"subtitles=filename='/tmp/subs.ass'"
	if got != want {
		t.Fatalf("chain = %q, want %q", got, want)
	}
}

func TestBuildFilterChain_NoCropNoSubs(t *testing.T) {
	t.Parallel()

	got := buildFilterChain(nil, 1080, 1920, "")
	want := "scale=1080:1920:force_original_aspect_ratio=decrease,pad=1080:1920:(ow-iw)/2:(oh-ih)/2"
	if got != want {
		t.Fatalf("chain = %q, want %q", got, want)
	}
}

func TestBuildComplexGraph_LogoOverlay(t *testing.T) {
	t.Parallel()

	job := types.ClipRenderJob{
		CropMode:     types.CropModeCenter,
		OutputWidth:  1080,
		OutputHeight: 1920,
		Logo: &types.LogoConfig{
			Path:          "/tmp/logo.png",
			WidthFraction: 0.2,
			Corner:        types.LogoTopRight,
			MarginPx:      24,
		},
	}
	crop := &types.Rect{X: 656, Y: 0, Width: 608, Height: 1080}

	got := buildComplexGraph(job, crop, 1920, 1080, "/tmp/subs.ass")

	for _, want := range []string{
		"[0:v]crop=608:1080:656:0[cropped]",
		"[cropped]scale=1080:1920:force_original_aspect_ratio=decrease[scaled]",
		"[scaled]pad=1080:1920:(ow-iw)/2:(oh-ih)/2[base]",
		"[1:v]scale=216:-1[logo]",
		"[base][logo]overlay=main_w-overlay_w-24:24[branded]",
		"[branded]subtitles=filename='/tmp/subs.ass'[vout]",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("graph missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "[vout]") {
		t.Fatalf("graph must end at the vout label: %s", got)
	}
}

func TestBuildComplexGraph_SplitTopBottom(t *testing.T) {
	t.Parallel()

	job := types.ClipRenderJob{
		CropMode:     types.CropModeSplitLayout,
		SplitLayout:  &types.SplitLayoutConfig{Preset: types.SplitTopBottom},
		OutputWidth:  1080,
		OutputHeight: 1920,
	}

	got := buildComplexGraph(job, nil, 1920, 1080, "")

	for _, want := range []string{
		"[0:v]split=2[pin][sin]",
		"[pin]crop=1920:540:0:0[pc]",
		"[pc]scale=1080:960[ps]",
		"[sin]crop=1920:540:0:540[sc]",
		"[sc]scale=1080:960[ss]",
		"[ps][ss]vstack=inputs=2[base]",
		"[base]copy[vout]",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("graph missing %q:\n%s", want, got)
		}
	}
}

func TestBuildComplexGraph_SoloSplitDegeneratesToSingleStream(t *testing.T) {
	t.Parallel()

	job := types.ClipRenderJob{
		CropMode:     types.CropModeSplitLayout,
		SplitLayout:  &types.SplitLayoutConfig{Preset: types.SplitSolo},
		OutputWidth:  1080,
		OutputHeight: 1920,
	}

	got := buildComplexGraph(job, nil, 1920, 1080, "")
	if strings.Contains(got, "vstack") {
		t.Fatalf("solo layout must not stack: %s", got)
	}
	if !strings.Contains(got, "[0:v]crop=1920:1080:0:0[soloc]") {
		t.Fatalf("solo layout should crop the full primary region: %s", got)
	}
}

func TestOverlayArgs(t *testing.T) {
	t.Parallel()

	cases := map[types.LogoCorner]string{
		types.LogoTopLeft:     "16:16",
		types.LogoTopRight:    "main_w-overlay_w-16:16",
		types.LogoBottomLeft:  "16:main_h-overlay_h-16",
		types.LogoBottomRight: "main_w-overlay_w-16:main_h-overlay_h-16",
	}
	for corner, want := range cases {
		if got := overlayArgs(corner, 16); got != want {
			t.Fatalf("overlayArgs(%s) = %q, want %q", corner, got, want)
		}
	}
}

func TestEscapeFilterPath(t *testing.T) {
	t.Parallel()

	if got := escapeFilterPath(`C:\tmp\s.ass`); got != `C\:\\tmp\\s.ass` {
		t.Fatalf("escapeFilterPath = %q", got)
	}
}
