package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/vclip/internal/ports"
)

func TestReadProgress(t *testing.T) {
	t.Parallel()

	stream := strings.Join([]string{
		"frame=100",
		"out_time_us=5000000",
		"progress=continue",
		"out_time_us=10000000",
		"out_time_us=garbage",
		"out_time_us=-3",
		"progress=end",
	}, "\n")

	var fracs []float64
	readProgress(strings.NewReader(stream), 20*time.Second, func(f float64) {
		fracs = append(fracs, f)
	})

	if len(fracs) != 2 {
		t.Fatalf("expected 2 progress updates, got %v", fracs)
	}
	if fracs[0] != 0.25 || fracs[1] != 0.5 {
		t.Fatalf("fracs = %v, want [0.25 0.5]", fracs)
	}
}

func TestReadProgress_ClampsToOne(t *testing.T) {
	t.Parallel()

	var fracs []float64
	readProgress(strings.NewReader("out_time_us=99000000\n"), 10*time.Second, func(f float64) {
		fracs = append(fracs, f)
	})
	if len(fracs) != 1 || fracs[0] != 1 {
		t.Fatalf("fracs = %v, want [1]", fracs)
	}
}

func TestFmtSeconds(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		0:                       "0.000",
		1500 * time.Millisecond: "1.500",
		90 * time.Second:        "90.000",
	}
	for in, want := range cases {
		if got := fmtSeconds(in); got != want {
			t.Fatalf("fmtSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	if got := tail("abcdef", 3); got != "def" {
		t.Fatalf("tail = %q", got)
	}
	if got := tail("ab", 3); got != "ab" {
		t.Fatalf("tail = %q", got)
	}
}

func TestExecNotFound(t *testing.T) {
	t.Parallel()

	a := New("definitely-not-a-real-ffmpeg-binary", "definitely-not-a-real-ffprobe-binary")
	_, err := a.ExtractFrame(context.Background(), "in.mp4", time.Second)
	if !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for a missing binary, got %v", err)
	}
	_, err = a.Probe(context.Background(), "in.mp4")
	if !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for a missing binary, got %v", err)
	}
}
