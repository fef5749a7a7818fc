package facecrop

import (
	"math"

	"github.com/forPelevin/vclip/internal/types"
)

// faceCluster is the mutable accumulator used during the single
// clustering pass. It never leaves this package; callers see only the
// derived crop result.
type faceCluster struct {
	centerX float64
	centerY float64
	areaSum float64
	members []types.FaceDetection
}

func (c *faceCluster) add(f types.FaceDetection) {
	cx, cy := boxCenter(f.Box)
	n := float64(len(c.members))
	c.centerX = (c.centerX*n + cx) / (n + 1)
	c.centerY = (c.centerY*n + cy) / (n + 1)
	c.areaSum += float64(f.Box.Width) * float64(f.Box.Height)
	c.members = append(c.members, f)
}

func (c *faceCluster) meanArea() float64 {
	if len(c.members) == 0 {
		return 0
	}
	return c.areaSum / float64(len(c.members))
}

// medianX returns the median bounding-box center X of the cluster's
// members; the median is robust to outlier detections.
func (c *faceCluster) medianX() float64 {
	xs := make([]float64, 0, len(c.members))
	for _, m := range c.members {
		cx, _ := boxCenter(m.Box)
		xs = append(xs, cx)
	}
	return median(xs)
}

// clusterFaces assigns each face to the first existing cluster whose
// centroid is within distanceThreshold pixels, updating that cluster's
// running mean, or starts a new cluster. Single pass and
// order-dependent: the same detections in the same order always yield
// identical clusters.
func clusterFaces(analyses []types.FrameFaceAnalysis, distanceThreshold float64) []*faceCluster {
	var clusters []*faceCluster
	for _, frame := range analyses {
		for _, f := range frame.Faces {
			cx, cy := boxCenter(f.Box)
			assigned := false
			for _, c := range clusters {
				if math.Hypot(c.centerX-cx, c.centerY-cy) <= distanceThreshold {
					c.add(f)
					assigned = true
					break
				}
			}
			if !assigned {
				nc := &faceCluster{}
				nc.add(f)
				clusters = append(clusters, nc)
			}
		}
	}
	return clusters
}

func boxCenter(r types.Rect) (float64, float64) {
	return float64(r.X) + float64(r.Width)/2, float64(r.Y) + float64(r.Height)/2
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
