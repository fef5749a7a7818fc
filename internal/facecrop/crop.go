package facecrop

import (
	"math"

	"github.com/forPelevin/vclip/internal/types"
)

const (
	// A single cluster dominates when it holds at least this share of
	// all detected faces. Empirical constant, preserved as-is.
	dominantClusterShare = 0.8
	// Multiple clusters fit one crop when their centroid span is within
	// this multiple of the target crop width. Empirical constant.
	multiFaceSpanFactor = 1.2

	defaultClusterDistancePx = 150
)

// CalculateCropRegion derives the horizontal crop rectangle from the
// sampled face analyses. The crop always spans the full source height;
// only the horizontal position varies. With no usable faces the crop
// falls back to the horizontal center of the frame.
func CalculateCropRegion(analyses []types.FrameFaceAnalysis, sourceWidth, sourceHeight, targetWidth, targetHeight int, clusterDistancePx float64) types.CropRegionResult {
	if clusterDistancePx <= 0 {
		clusterDistancePx = defaultClusterDistancePx
	}

	cropW := cropWidth(sourceWidth, sourceHeight, targetWidth, targetHeight)

	total := 0
	for _, a := range analyses {
		total += len(a.Faces)
	}
	if total == 0 {
		return centerResult(sourceWidth, sourceHeight, cropW, 0)
	}

	clusters := clusterFaces(analyses, clusterDistancePx)
	largest := clusters[0]
	for _, c := range clusters[1:] {
		if len(c.members) > len(largest.members) {
			largest = c
		}
	}

	var centerX float64
	var strategy types.CropStrategy
	switch {
	case len(clusters) == 1 || float64(len(largest.members)) >= dominantClusterShare*float64(total):
		centerX = largest.medianX()
		strategy = types.CropSingleFace
	case clusterSpan(clusters) <= multiFaceSpanFactor*float64(cropW):
		lo, hi := clusterExtremes(clusters)
		centerX = (lo + hi) / 2
		strategy = types.CropMultipleFaces
	default:
		dominant := clusters[0]
		for _, c := range clusters[1:] {
			if c.meanArea() > dominant.meanArea() {
				dominant = c
			}
		}
		centerX = dominant.medianX()
		strategy = types.CropDominantFace
	}

	return types.CropRegionResult{
		Region:               cropRect(centerX, sourceWidth, sourceHeight, cropW),
		Strategy:             strategy,
		SourceWidth:          sourceWidth,
		SourceHeight:         sourceHeight,
		FacesConsidered:      total,
		BasedOnFaceDetection: true,
	}
}

// CenterCrop is the deterministic geometry used for the center and
// manual crop modes; offsetX shifts the crop from center and is clamped
// so the region stays inside the frame.
func CenterCrop(sourceWidth, sourceHeight, targetWidth, targetHeight, offsetX int) types.CropRegionResult {
	cropW := cropWidth(sourceWidth, sourceHeight, targetWidth, targetHeight)
	res := centerResult(sourceWidth, sourceHeight, cropW, 0)
	if offsetX != 0 {
		res.Region = cropRect(float64(sourceWidth)/2+float64(offsetX), sourceWidth, sourceHeight, cropW)
	}
	return res
}

func centerResult(sourceWidth, sourceHeight, cropW, faces int) types.CropRegionResult {
	return types.CropRegionResult{
		Region:               cropRect(float64(sourceWidth)/2, sourceWidth, sourceHeight, cropW),
		Strategy:             types.CropCenterFallback,
		SourceWidth:          sourceWidth,
		SourceHeight:         sourceHeight,
		FacesConsidered:      faces,
		BasedOnFaceDetection: false,
	}
}

// cropWidth is round(sourceHeight × targetAspect), clamped to the
// source width. Height is never cropped.
func cropWidth(sourceWidth, sourceHeight, targetWidth, targetHeight int) int {
	if targetWidth <= 0 || targetHeight <= 0 || sourceHeight <= 0 {
		return sourceWidth
	}
	aspect := float64(targetWidth) / float64(targetHeight)
	w := int(math.Round(float64(sourceHeight) * aspect))
	if w > sourceWidth {
		w = sourceWidth
	}
	if w < 1 {
		w = 1
	}
	return w
}

func cropRect(centerX float64, sourceWidth, sourceHeight, cropW int) types.Rect {
	x := int(math.Round(centerX - float64(cropW)/2))
	if x < 0 {
		x = 0
	}
	if x+cropW > sourceWidth {
		x = sourceWidth - cropW
	}
	return types.Rect{X: x, Y: 0, Width: cropW, Height: sourceHeight}
}

func clusterSpan(clusters []*faceCluster) float64 {
	lo, hi := clusterExtremes(clusters)
	return hi - lo
}

func clusterExtremes(clusters []*faceCluster) (float64, float64) {
	lo, hi := clusters[0].centerX, clusters[0].centerX
	for _, c := range clusters[1:] {
		if c.centerX < lo {
			lo = c.centerX
		}
		if c.centerX > hi {
			hi = c.centerX
		}
	}
	return lo, hi
}
