package types

import "time"

type Transcript struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// CandidateWindow is a bounded transcript span considered for highlight
// scoring. Windows are immutable once produced.
type CandidateWindow struct {
	Start time.Duration
	End   time.Duration
	Text  string

	Segments     []Segment
	StartSegment int
	EndSegment   int
}

func (w CandidateWindow) Duration() time.Duration { return w.End - w.Start }

// ClipCandidate is a scored, selected window slated for rendering.
type ClipCandidate struct {
	ID            string
	SourceDraftID string
	Start         time.Duration
	End           time.Duration
	Score         float64
	Reason        string
	PreviewText   string
	CreatedAt     time.Time
}

func (c ClipCandidate) Duration() time.Duration { return c.End - c.Start }

type Point struct {
	X int
	Y int
}

type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// FaceDetection is one detected face in a single sampled frame.
// Confidence is in [0,1]; detections below the configured threshold are
// discarded before clustering.
type FaceDetection struct {
	Box        Rect
	Landmarks  [5]Point
	Confidence float64
}

// FrameFaceAnalysis holds all detections from one sampled frame.
type FrameFaceAnalysis struct {
	Timestamp time.Duration
	Faces     []FaceDetection
}

type CropStrategy string

const (
	CropCenterFallback CropStrategy = "center_fallback"
	CropSingleFace     CropStrategy = "single_face"
	CropMultipleFaces  CropStrategy = "multiple_faces"
	CropDominantFace   CropStrategy = "dominant_face"
)

// CropRegionResult describes the horizontal sub-rectangle used to
// produce a vertical-aspect output. Region is always fully inside the
// source frame and spans the full source height.
type CropRegionResult struct {
	Region               Rect
	Strategy             CropStrategy
	SourceWidth          int
	SourceHeight         int
	FacesConsidered      int
	BasedOnFaceDetection bool
}

// NormalizedRect is a region in [0,1] canvas space.
type NormalizedRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

type SplitLayoutPreset string

const (
	SplitSolo      SplitLayoutPreset = "solo"
	SplitTopBottom SplitLayoutPreset = "top_bottom"
	SplitLeftRight SplitLayoutPreset = "left_right"
	SplitCustom    SplitLayoutPreset = "custom"
	SplitAuto      SplitLayoutPreset = "auto"
)

// SplitLayoutConfig selects two source sub-regions composited into one
// vertically stacked output canvas.
type SplitLayoutConfig struct {
	Preset    SplitLayoutPreset
	Primary   NormalizedRect
	Secondary NormalizedRect
}

type CropMode string

const (
	CropModeNone        CropMode = "none"
	CropModeAutoDetect  CropMode = "auto"
	CropModeCenter      CropMode = "center"
	CropModeManual      CropMode = "manual"
	CropModeSplitLayout CropMode = "split"
)

// RequiresGeometry reports whether the mode needs a resolved crop
// region before the filter graph can be built.
func (m CropMode) RequiresGeometry() bool {
	switch m {
	case CropModeAutoDetect, CropModeCenter, CropModeManual:
		return true
	default:
		return false
	}
}

// ClipSubtitleWord is a word timing re-based to clip-local time.
type ClipSubtitleWord struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// ClipSubtitleSegment is a transcript segment clipped to a clip's time
// range, with times relative to clip start.
type ClipSubtitleSegment struct {
	Start time.Duration
	End   time.Duration
	Text  string
	Words []ClipSubtitleWord
}

type LogoCorner string

const (
	LogoTopLeft     LogoCorner = "top_left"
	LogoTopRight    LogoCorner = "top_right"
	LogoBottomLeft  LogoCorner = "bottom_left"
	LogoBottomRight LogoCorner = "bottom_right"
)

type LogoConfig struct {
	Path string
	// Width as a fraction of the output canvas width.
	WidthFraction float64
	Corner        LogoCorner
	MarginPx      int
}

// SubtitleStyle carries the user-tunable styling knobs. Colors are hex
// (#RRGGBB or #AARRGGBB); positions are fractions of the frame size so
// the same settings work across output resolutions.
type SubtitleStyle struct {
	FontName       string
	FontSize       int
	FillColor      string
	HighlightColor string
	OutlineColor   string
	ShadowColor    string
	OutlineWidth   float64
	ShadowWidth    float64
	PositionX      float64
	PositionY      float64
}

// ClipRenderJob is the full specification for rendering one clip. It is
// consumed once by the render orchestrator and not persisted.
type ClipRenderJob struct {
	ID         string
	DraftID    string
	SourcePath string
	OutputPath string

	Start time.Duration
	End   time.Duration

	CropMode      CropMode
	ManualOffsetX int
	SplitLayout   *SplitLayoutConfig

	OutputWidth  int
	OutputHeight int

	BurnSubtitles bool
	SubtitlePath  string
	SubtitleStyle SubtitleStyle

	VideoCodec   string
	Preset       string
	CRF          int
	AudioBitrate string

	Logo *LogoConfig
}

type RenderPhase string

const (
	PhasePending            RenderPhase = "pending"
	PhaseFaceDetection      RenderPhase = "face_detection"
	PhaseCropCalculation    RenderPhase = "crop_calculation"
	PhaseSubtitleGeneration RenderPhase = "subtitle_generation"
	PhaseVideoRendering     RenderPhase = "video_rendering"
	PhasePostProcessing     RenderPhase = "post_processing"
	PhaseCompleted          RenderPhase = "completed"
	PhaseFailed             RenderPhase = "failed"
	PhaseCancelled          RenderPhase = "cancelled"
)

type ClipRenderProgress struct {
	JobID   string
	Phase   RenderPhase
	Percent float64
	Message string
}

type ClipRenderResult struct {
	JobID      string
	Status     RenderPhase
	OutputPath string
	SizeBytes  int64
	Duration   time.Duration
	Crop       *CropRegionResult
	Error      string
}

func (r ClipRenderResult) Succeeded() bool { return r.Status == PhaseCompleted }

type ClipBatchRenderProgress struct {
	JobIndex int
	JobCount int
	Job      ClipRenderProgress
	// OverallPercent weights all jobs equally.
	OverallPercent float64
}

type Manifest struct {
	Input string         `json:"input"`
	Clips []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID        string  `json:"id"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
	Text      string  `json:"text"`
	File      string  `json:"file"`
	Strategy  string  `json:"crop_strategy,omitempty"`
	SizeBytes int64   `json:"size_bytes"`
}
