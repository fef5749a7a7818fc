package render

import (
	"math"

	"github.com/forPelevin/vclip/internal/types"
)

// Split regions are clamped to these bounds on every mutation so a
// degenerate config can never produce an empty or oversized crop.
const (
	minRegionSize = 0.1
	maxRegionSize = 1.0
)

// SplitRegions resolves the two source sub-regions for a split layout.
// Presets define the regions; Custom uses the configured rects. Auto
// assumes side-by-side subjects, the common dual-camera arrangement for
// talking-head sources.
func SplitRegions(cfg types.SplitLayoutConfig) (types.NormalizedRect, types.NormalizedRect) {
	switch cfg.Preset {
	case types.SplitTopBottom:
		return clampRegion(types.NormalizedRect{X: 0, Y: 0, Width: 1, Height: 0.5}),
			clampRegion(types.NormalizedRect{X: 0, Y: 0.5, Width: 1, Height: 0.5})
	case types.SplitLeftRight, types.SplitAuto:
		return clampRegion(types.NormalizedRect{X: 0, Y: 0, Width: 0.5, Height: 1}),
			clampRegion(types.NormalizedRect{X: 0.5, Y: 0, Width: 0.5, Height: 1})
	case types.SplitCustom:
		return clampRegion(cfg.Primary), clampRegion(cfg.Secondary)
	default: // solo
		return clampRegion(types.NormalizedRect{X: 0, Y: 0, Width: 1, Height: 1}), types.NormalizedRect{}
	}
}

// clampRegion forces the rect's size into [minRegionSize,
// maxRegionSize] and the whole rect inside the unit canvas.
func clampRegion(r types.NormalizedRect) types.NormalizedRect {
	r.Width = clamp01(r.Width, minRegionSize, maxRegionSize)
	r.Height = clamp01(r.Height, minRegionSize, maxRegionSize)
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.X+r.Width > 1 {
		r.X = 1 - r.Width
	}
	if r.Y+r.Height > 1 {
		r.Y = 1 - r.Height
	}
	return r
}

func clamp01(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// splitOutputHeights divides the output canvas height between the two
// regions proportionally to their source heights, keeping both at
// least one pixel.
func splitOutputHeights(primary, secondary types.NormalizedRect, outH int) (int, int) {
	total := primary.Height + secondary.Height
	if total <= 0 {
		half := outH / 2
		return half, outH - half
	}
	p := int(math.Round(float64(outH) * primary.Height / total))
	if p < 1 {
		p = 1
	}
	if p > outH-1 {
		p = outH - 1
	}
	return p, outH - p
}

// pixelRegion converts a normalized region into source pixel
// coordinates, clamped inside the frame.
func pixelRegion(r types.NormalizedRect, srcW, srcH int) types.Rect {
	x := int(math.Round(r.X * float64(srcW)))
	y := int(math.Round(r.Y * float64(srcH)))
	w := int(math.Round(r.Width * float64(srcW)))
	h := int(math.Round(r.Height * float64(srcH)))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if x+w > srcW {
		x = srcW - w
	}
	if y+h > srcH {
		y = srcH - h
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return types.Rect{X: x, Y: y, Width: w, Height: h}
}
