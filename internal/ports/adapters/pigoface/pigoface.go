// Package pigoface implements the face detection capability with the
// pure-Go pigo cascade classifier, so no cgo or external vision runtime
// is needed.
package pigoface

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"

	pigo "github.com/esimov/pigo/core"
	"golang.org/x/image/draw"

	"github.com/forPelevin/vclip/internal/ports"
	"github.com/forPelevin/vclip/internal/types"
)

// Frames wider than this are downscaled before detection; detection
// coordinates are mapped back to source pixels afterwards.
const maxDetectWidth = 1280

// qualityScale maps pigo's unbounded quality score onto [0,1].
const qualityScale = 50.0

type Detector struct {
	classifier *pigo.Pigo
}

// New loads the binary facefinder cascade from disk. A missing cascade
// is an unavailable capability, not a hard error.
func New(cascadePath string) (*Detector, error) {
	if cascadePath == "" {
		return nil, fmt.Errorf("%w: no face cascade configured", ports.ErrUnavailable)
	}
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read cascade: %v", ports.ErrUnavailable, err)
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}
	return &Detector{classifier: classifier}, nil
}

// DetectFaces decodes one JPEG frame and returns its face detections
// with confidence in [0,1].
func (d *Detector) DetectFaces(img []byte) ([]types.FaceDetection, error) {
	decoded, err := jpeg.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	src := pigo.ImgToNRGBA(decoded)
	scale := 1.0
	if w := src.Bounds().Dx(); w > maxDetectWidth {
		scale = float64(w) / maxDetectWidth
		dst := image.NewNRGBA(image.Rect(0, 0, maxDetectWidth, int(float64(src.Bounds().Dy())/scale)))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		src = dst
	}

	cols := src.Bounds().Dx()
	rows := src.Bounds().Dy()
	params := pigo.CascadeParams{
		MinSize:     40,
		MaxSize:     rows,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	out := make([]types.FaceDetection, 0, len(dets))
	for _, det := range dets {
		if det.Q <= 0 {
			continue
		}
		half := float64(det.Scale) / 2
		box := types.Rect{
			X:      int(math.Round((float64(det.Col) - half) * scale)),
			Y:      int(math.Round((float64(det.Row) - half) * scale)),
			Width:  int(math.Round(float64(det.Scale) * scale)),
			Height: int(math.Round(float64(det.Scale) * scale)),
		}
		conf := float64(det.Q) / qualityScale
		if conf > 1 {
			conf = 1
		}
		out = append(out, types.FaceDetection{
			Box:        box,
			Landmarks:  syntheticLandmarks(box),
			Confidence: conf,
		})
	}
	return out, nil
}

// syntheticLandmarks places the five canonical points (eyes, nose tip,
// mouth corners) at their typical positions inside the box. The crop
// calculator only needs box geometry; landmarks are informational.
func syntheticLandmarks(box types.Rect) [5]types.Point {
	px := func(fx, fy float64) types.Point {
		return types.Point{
			X: box.X + int(fx*float64(box.Width)),
			Y: box.Y + int(fy*float64(box.Height)),
		}
	}
	return [5]types.Point{
		px(0.3, 0.4),  // left eye
		px(0.7, 0.4),  // right eye
		px(0.5, 0.6),  // nose tip
		px(0.35, 0.8), // left mouth corner
		px(0.65, 0.8), // right mouth corner
	}
}
