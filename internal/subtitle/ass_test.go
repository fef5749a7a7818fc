package subtitle

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/vclip/internal/types"
)

var kTagRE = regexp.MustCompile(`\{\\k(\d+)\}`)

func TestKaraokeDurationsTileSegment(t *testing.T) {
	t.Parallel()

	seg := types.ClipSubtitleSegment{
		Start: 0,
		End:   4 * time.Second,
		Words: []types.ClipSubtitleWord{
			{Start: 200 * time.Millisecond, End: 900 * time.Millisecond, Text: "hello"},
			{Start: time.Second, End: 1800 * time.Millisecond, Text: "there"},
			{Start: 2 * time.Second, End: 3500 * time.Millisecond, Text: "friend"},
		},
	}

	text, ok := karaokeText(seg)
	if !ok {
		t.Fatalf("expected karaoke text")
	}

	matches := kTagRE.FindAllStringSubmatch(text, -1)
	if len(matches) != 3 {
		t.Fatalf("expected 3 karaoke tags, got %d in %q", len(matches), text)
	}
	totalCS := 0
	for _, m := range matches {
		cs, err := strconv.Atoi(m[1])
		if err != nil {
			t.Fatalf("bad tag in %q: %v", text, err)
		}
		totalCS += cs
	}
	if want := int((seg.End - seg.Start) / (10 * time.Millisecond)); totalCS != want {
		t.Fatalf("highlight durations sum to %dcs, want %dcs (segment duration)", totalCS, want)
	}
}

func TestKaraokeText_DropsZeroDurationWords(t *testing.T) {
	t.Parallel()

	seg := types.ClipSubtitleSegment{
		Start: 0,
		End:   2 * time.Second,
		Words: []types.ClipSubtitleWord{
			{Start: 0, End: 0, Text: "ghost"},
			{Start: 100 * time.Millisecond, End: time.Second, Text: "real"},
			{Start: time.Second, End: time.Second, Text: ""},
		},
	}
	text, ok := karaokeText(seg)
	if !ok {
		t.Fatalf("expected karaoke text")
	}
	if strings.Contains(text, "ghost") {
		t.Fatalf("zero-duration word kept: %q", text)
	}
	if !strings.Contains(text, "real") {
		t.Fatalf("valid word dropped: %q", text)
	}
}

func TestCompileEvents_SkipsUnusableSegments(t *testing.T) {
	t.Parallel()

	segs := []types.ClipSubtitleSegment{
		{Start: 0, End: 0, Text: "zero duration"},
		{Start: 0, End: time.Second, Text: "   "},
		{Start: 0, End: time.Second, Words: []types.ClipSubtitleWord{{Start: 0, End: 0, Text: "x"}}},
		{Start: time.Second, End: 2 * time.Second, Text: "plain works"},
	}
	events := CompileEvents(segs, types.SubtitleStyle{}, 1080, 1920)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}
	if !strings.Contains(events[0].Text, "plain works") {
		t.Fatalf("unexpected event text: %q", events[0].Text)
	}
	if strings.Contains(events[0].Text, "{\\k") {
		t.Fatalf("plain segment must not carry karaoke tags: %q", events[0].Text)
	}
}

func TestCompileEvents_PositionTag(t *testing.T) {
	t.Parallel()

	style := types.SubtitleStyle{PositionX: 0.5, PositionY: 0.82}
	events := CompileEvents([]types.ClipSubtitleSegment{
		{Start: 0, End: time.Second, Text: "hi"},
	}, style, 1080, 1920)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !strings.HasPrefix(events[0].Text, `{\an2\pos(540,1574)}`) {
		t.Fatalf("unexpected position tag: %q", events[0].Text)
	}

	// Out-of-range fractions fall back to the defaults.
	events = CompileEvents([]types.ClipSubtitleSegment{
		{Start: 0, End: time.Second, Text: "hi"},
	}, types.SubtitleStyle{PositionX: -1, PositionY: 2}, 1000, 1000)
	if !strings.HasPrefix(events[0].Text, `{\an2\pos(500,850)}`) {
		t.Fatalf("unexpected fallback position tag: %q", events[0].Text)
	}
}

func TestCompile_TrackStructure(t *testing.T) {
	t.Parallel()

	style := types.SubtitleStyle{
		FontName:       "Inter",
		FontSize:       78,
		FillColor:      "#FFD200",
		HighlightColor: "#FFFFFF",
	}
	segs := []types.ClipSubtitleSegment{
		{
			Start: 500 * time.Millisecond,
			End:   2 * time.Second,
			Words: []types.ClipSubtitleWord{
				{Start: 500 * time.Millisecond, End: time.Second, Text: "word"},
				{Start: time.Second, End: 2 * time.Second, Text: "two"},
			},
		},
	}

	track, events := Compile(segs, style, 1080, 1920)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	for _, want := range []string{
		"PlayResX: 1080",
		"PlayResY: 1920",
		"[V4+ Styles]",
		// Karaoke sweeps Secondary -> Primary: highlight first, fill second.
		"&H00FFFFFF, &H0000D2FF",
		"[Events]",
		"Dialogue: 0,0:00:00.50,0:00:02.00,Clip",
	} {
		if !strings.Contains(track, want) {
			t.Fatalf("track missing %q:\n%s", want, track)
		}
	}
}

func TestBuildClipSegments_ClipsAndRebases(t *testing.T) {
	t.Parallel()

	segments := []types.Segment{
		{Start: 0, End: 5, Text: "before"},
		{
			Start: 8, End: 14, Text: "inside",
			Words: []types.Word{
				{Start: 8, End: 9, Word: "in"},
				{Start: 9, End: 11, Word: "side"},
				{Start: 13.5, End: 16, Word: "tail"},
			},
		},
		{Start: 16, End: 20, Text: "after"},
	}

	out := BuildClipSegments(segments, 10*time.Second, 14*time.Second)
	if len(out) != 1 {
		t.Fatalf("expected 1 clipped segment, got %d: %+v", len(out), out)
	}
	seg := out[0]
	if seg.Start != 0 || seg.End != 4*time.Second {
		t.Fatalf("segment not rebased: [%v,%v)", seg.Start, seg.End)
	}
	if len(seg.Words) != 2 {
		t.Fatalf("expected 2 surviving words, got %d: %+v", len(seg.Words), seg.Words)
	}
	if seg.Words[0].Text != "side" || seg.Words[0].Start != 0 || seg.Words[0].End != time.Second {
		t.Fatalf("word not clipped and rebased: %+v", seg.Words[0])
	}
	if seg.Words[1].Text != "tail" || seg.Words[1].End != 4*time.Second {
		t.Fatalf("tail word not clamped to clip end: %+v", seg.Words[1])
	}
}

func TestSanitizeEscapesOverrideSyntax(t *testing.T) {
	t.Parallel()

	if got := sanitize(`a{\b}c\d`); got != `a(\\b)c\\d` {
		t.Fatalf("sanitize = %q", got)
	}
}

func TestAssColor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"#FFD200", "&H0000D2FF"},
		{"#FFFFFF", "&H00FFFFFF"},
		{"#000000", "&H00000000"},
		{"#64000000", "&H64000000"},
		{"#80FF0000", "&H800000FF"},
		{"", "&H00ABCDEF"},
		{"#XYZ123", "&H00ABCDEF"},
		{"#FFF", "&H00ABCDEF"},
	}
	for _, tc := range cases {
		if got := assColor(tc.in, "&H00ABCDEF"); got != tc.want {
			t.Fatalf("assColor(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAssTime(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		0: "0:00:00.00",
		90*time.Second + 250*time.Millisecond: "0:01:30.25",
		time.Hour + 2*time.Second:             "1:00:02.00",
		-time.Second:                          "0:00:00.00",
	}
	for in, want := range cases {
		if got := assTime(in); got != want {
			t.Fatalf("assTime(%v) = %q, want %q", in, got, want)
		}
	}
}
