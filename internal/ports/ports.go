package ports

import (
	"context"
	"errors"
	"time"

	"github.com/forPelevin/vclip/internal/types"
)

// ErrUnavailable marks a capability that cannot run at all (no binary,
// no API key, no model). Callers degrade to a safe default instead of
// failing the whole run.
var ErrUnavailable = errors.New("capability unavailable")

type VideoInfo struct {
	Width    int
	Height   int
	Duration time.Duration
}

// FrameExtractor pulls a single still frame (JPEG bytes) from a video
// at the given timestamp.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, at time.Duration) ([]byte, error)
}

type VideoProber interface {
	Probe(ctx context.Context, videoPath string) (VideoInfo, error)
}

// FaceDetector finds faces in one encoded image.
type FaceDetector interface {
	DetectFaces(img []byte) ([]types.FaceDetection, error)
}

// LLMClient sends one prompt and returns the raw completion text. An
// unavailable backend is signalled with ErrUnavailable, distinct from a
// valid-but-empty response.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EncodeSpec is everything the encoder needs for one clip.
type EncodeSpec struct {
	InputPath  string
	OutputPath string
	Start      time.Duration
	End        time.Duration

	// FilterChain is a linear -vf chain; FilterGraph is a labeled
	// -filter_complex graph. At most one is set.
	FilterChain string
	FilterGraph string
	// ExtraInputs are additional input files referenced by FilterGraph
	// (e.g. a logo image).
	ExtraInputs []string

	VideoCodec   string
	Preset       string
	CRF          int
	AudioBitrate string
}

// Encoder runs one encode and reports progress as a fraction of the
// clip duration in [0,1]. It must terminate the underlying process on
// context cancellation.
type Encoder interface {
	Encode(ctx context.Context, spec EncodeSpec, onProgress func(frac float64)) error
}

// TranscriptStore resolves the transcript segments for a draft.
type TranscriptStore interface {
	Segments(ctx context.Context, draftID string) ([]types.Segment, error)
}
