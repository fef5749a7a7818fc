// Package render builds FFmpeg filter graphs for clip jobs and drives
// the encoder with phase-level progress reporting.
package render

import (
	"fmt"
	"strings"

	"github.com/forPelevin/vclip/internal/types"
)

// graphBuilder models the filter graph as nodes with labeled edges.
// Construction stays independent of FFmpeg's textual syntax; rendering
// to a string happens once, at the end.
type graphBuilder struct {
	nodes []filterNode
}

type filterNode struct {
	inputs  []string
	name    string
	args    string
	outputs []string
}

func (g *graphBuilder) add(name, args string, inputs, outputs []string) *graphBuilder {
	g.nodes = append(g.nodes, filterNode{inputs: inputs, name: name, args: args, outputs: outputs})
	return g
}

// chain renders a linear, label-free chain suitable for -vf.
func (g *graphBuilder) chain() string {
	parts := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		parts = append(parts, n.text())
	}
	return strings.Join(parts, ",")
}

// complex renders a labeled graph suitable for -filter_complex.
func (g *graphBuilder) complex() string {
	parts := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		var b strings.Builder
		for _, in := range n.inputs {
			fmt.Fprintf(&b, "[%s]", in)
		}
		b.WriteString(n.text())
		for _, out := range n.outputs {
			fmt.Fprintf(&b, "[%s]", out)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ";")
}

func (n filterNode) text() string {
	if n.args == "" {
		return n.name
	}
	return n.name + "=" + n.args
}

// outputLabel is the label the encoder maps as the video stream when a
// complex graph is used.
const outputLabel = "vout"

// buildFilterChain returns the linear -vf chain for the simple path:
// crop (optional) -> scale-to-fit -> pad-to-exact-size -> subtitle burn.
func buildFilterChain(crop *types.Rect, outW, outH int, subtitlePath string) string {
	g := &graphBuilder{}
	if crop != nil {
		g.add("crop", cropArgs(*crop), nil, nil)
	}
	g.add("scale", scaleToFitArgs(outW, outH), nil, nil)
	g.add("pad", padArgs(outW, outH), nil, nil)
	if subtitlePath != "" {
		g.add("subtitles", subtitlesArgs(subtitlePath), nil, nil)
	}
	return g.chain()
}

// buildComplexGraph returns the labeled -filter_complex graph for jobs
// with a logo overlay and/or a split layout. The final video stream is
// labeled outputLabel.
func buildComplexGraph(job types.ClipRenderJob, crop *types.Rect, srcW, srcH int, subtitlePath string) string {
	g := &graphBuilder{}
	base := "base"

	if job.CropMode == types.CropModeSplitLayout && job.SplitLayout != nil && job.SplitLayout.Preset != types.SplitSolo {
		buildSplitNodes(g, *job.SplitLayout, srcW, srcH, job.OutputWidth, job.OutputHeight, base)
	} else {
		// Solo split degenerates to a single cropped/scaled stream; the
		// plain complex path reuses the simple chain's stages.
		inputs := []string{"0:v"}
		if job.CropMode == types.CropModeSplitLayout && job.SplitLayout != nil {
			region := pixelRegion(clampRegion(job.SplitLayout.Primary), srcW, srcH)
			g.add("crop", cropArgs(region), inputs, []string{"soloc"})
			inputs = []string{"soloc"}
		} else if crop != nil {
			g.add("crop", cropArgs(*crop), inputs, []string{"cropped"})
			inputs = []string{"cropped"}
		}
		g.add("scale", scaleToFitArgs(job.OutputWidth, job.OutputHeight), inputs, []string{"scaled"})
		g.add("pad", padArgs(job.OutputWidth, job.OutputHeight), []string{"scaled"}, []string{base})
	}

	if job.Logo != nil {
		logoW := int(float64(job.OutputWidth) * job.Logo.WidthFraction)
		if logoW < 1 {
			logoW = 1
		}
		g.add("scale", fmt.Sprintf("%d:-1", logoW), []string{"1:v"}, []string{"logo"})
		g.add("overlay", overlayArgs(job.Logo.Corner, job.Logo.MarginPx), []string{base, "logo"}, []string{"branded"})
		base = "branded"
	}

	if subtitlePath != "" {
		g.add("subtitles", subtitlesArgs(subtitlePath), []string{base}, []string{outputLabel})
	} else {
		g.add("copy", "", []string{base}, []string{outputLabel})
	}
	return g.complex()
}

// buildSplitNodes crops two source sub-regions and stacks them
// vertically into one canvas labeled out.
func buildSplitNodes(g *graphBuilder, layout types.SplitLayoutConfig, srcW, srcH, outW, outH int, out string) {
	primary, secondary := SplitRegions(layout)
	pRegion := pixelRegion(primary, srcW, srcH)
	sRegion := pixelRegion(secondary, srcW, srcH)
	pOutH, sOutH := splitOutputHeights(primary, secondary, outH)

	g.add("split", "2", []string{"0:v"}, []string{"pin", "sin"})
	g.add("crop", cropArgs(pRegion), []string{"pin"}, []string{"pc"})
	g.add("scale", fmt.Sprintf("%d:%d", outW, pOutH), []string{"pc"}, []string{"ps"})
	g.add("crop", cropArgs(sRegion), []string{"sin"}, []string{"sc"})
	g.add("scale", fmt.Sprintf("%d:%d", outW, sOutH), []string{"sc"}, []string{"ss"})
	g.add("vstack", "inputs=2", []string{"ps", "ss"}, []string{out})
}

func cropArgs(r types.Rect) string {
	return fmt.Sprintf("%d:%d:%d:%d", r.Width, r.Height, r.X, r.Y)
}

func scaleToFitArgs(w, h int) string {
	return fmt.Sprintf("%d:%d:force_original_aspect_ratio=decrease", w, h)
}

func padArgs(w, h int) string {
	return fmt.Sprintf("%d:%d:(ow-iw)/2:(oh-ih)/2", w, h)
}

func subtitlesArgs(path string) string {
	return "filename='" + escapeFilterPath(path) + "'"
}

func overlayArgs(corner types.LogoCorner, margin int) string {
	m := fmt.Sprintf("%d", margin)
	switch corner {
	case types.LogoTopLeft:
		return m + ":" + m
	case types.LogoBottomLeft:
		return m + ":main_h-overlay_h-" + m
	case types.LogoBottomRight:
		return "main_w-overlay_w-" + m + ":main_h-overlay_h-" + m
	default: // top right
		return "main_w-overlay_w-" + m + ":" + m
	}
}

// escapeFilterPath escapes backslashes and colons so the path survives
// filter-graph parsing.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
