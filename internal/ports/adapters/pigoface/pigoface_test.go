package pigoface

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/forPelevin/vclip/internal/ports"
	"github.com/forPelevin/vclip/internal/types"
)

func TestNew_MissingCascadeIsUnavailable(t *testing.T) {
	t.Parallel()

	if _, err := New(""); !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for empty path, got %v", err)
	}
	if _, err := New(filepath.Join(t.TempDir(), "facefinder")); !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for missing file, got %v", err)
	}
}

func TestSyntheticLandmarks_InsideBox(t *testing.T) {
	t.Parallel()

	box := types.Rect{X: 100, Y: 200, Width: 80, Height: 90}
	lm := syntheticLandmarks(box)
	for i, p := range lm {
		if p.X < box.X || p.X > box.X+box.Width || p.Y < box.Y || p.Y > box.Y+box.Height {
			t.Fatalf("landmark %d (%d,%d) outside box %+v", i, p.X, p.Y, box)
		}
	}
	if lm[0].X >= lm[1].X {
		t.Fatalf("left eye not left of right eye: %+v", lm)
	}
	if lm[2].Y <= lm[0].Y || lm[2].Y >= lm[3].Y {
		t.Fatalf("nose not between eyes and mouth: %+v", lm)
	}
}
