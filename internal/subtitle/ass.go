// Package subtitle compiles clip-relative transcript segments into an
// ASS track with word-level karaoke highlighting.
package subtitle

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/vclip/internal/types"
)

// Event is one styled dialogue entry, kept separate from the rendered
// track so timing can be tested without parsing ASS text.
type Event struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Compile renders a full ASS track for the given clip-relative
// segments. Segments with word timings get karaoke highlight tags;
// segments without render as static text. Returns the track and the
// per-segment events that went into it.
func Compile(segments []types.ClipSubtitleSegment, style types.SubtitleStyle, frameWidth, frameHeight int) (string, []Event) {
	events := CompileEvents(segments, style, frameWidth, frameHeight)

	var b strings.Builder
	b.WriteString(header(style, frameWidth, frameHeight))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Clip,,0,0,0,,%s\n", assTime(ev.Start), assTime(ev.End), ev.Text)
	}
	return b.String(), events
}

// CompileEvents builds one event per usable segment. A karaoke segment
// whose words all collapse to zero duration after clipping is skipped
// entirely.
func CompileEvents(segments []types.ClipSubtitleSegment, style types.SubtitleStyle, frameWidth, frameHeight int) []Event {
	pos := positionTag(style, frameWidth, frameHeight)

	var out []Event
	for _, seg := range segments {
		if seg.End <= seg.Start {
			continue
		}
		if len(seg.Words) > 0 {
			text, ok := karaokeText(seg)
			if !ok {
				continue
			}
			out = append(out, Event{Start: seg.Start, End: seg.End, Text: pos + text})
			continue
		}
		text := sanitize(seg.Text)
		if text == "" {
			continue
		}
		out = append(out, Event{Start: seg.Start, End: seg.End, Text: pos + text})
	}
	return out
}

// karaokeText emits {\kN} tags whose durations tile the segment exactly:
// each word's highlight runs from its start to the next word's start,
// and the last word runs to the segment end. The sum of highlight
// durations therefore equals the segment duration.
func karaokeText(seg types.ClipSubtitleSegment) (string, bool) {
	words := make([]types.ClipSubtitleWord, 0, len(seg.Words))
	for _, w := range seg.Words {
		if w.End <= w.Start {
			continue
		}
		if t := sanitize(w.Text); t != "" {
			w.Text = t
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return "", false
	}

	var b strings.Builder
	for i, w := range words {
		var hlStart, hlEnd time.Duration
		if i == 0 {
			hlStart = seg.Start
		} else {
			hlStart = w.Start
		}
		if i == len(words)-1 {
			hlEnd = seg.End
		} else {
			hlEnd = words[i+1].Start
		}
		cs := int((hlEnd - hlStart) / (10 * time.Millisecond))
		if cs < 1 {
			cs = 1
		}
		fmt.Fprintf(&b, "{\\k%d}%s", cs, w.Text)
		if i < len(words)-1 {
			b.WriteString(" ")
		}
	}
	return b.String(), true
}

// BuildClipSegments clips source transcript segments to [clipStart,
// clipEnd) and re-bases all times to clip-local offsets. Words clipped
// to zero duration are dropped.
func BuildClipSegments(segments []types.Segment, clipStart, clipEnd time.Duration) []types.ClipSubtitleSegment {
	var out []types.ClipSubtitleSegment
	for _, s := range segments {
		ss, se := dur(s.Start), dur(s.End)
		if se <= clipStart || ss >= clipEnd {
			continue
		}
		if ss < clipStart {
			ss = clipStart
		}
		if se > clipEnd {
			se = clipEnd
		}
		cs := types.ClipSubtitleSegment{
			Start: ss - clipStart,
			End:   se - clipStart,
			Text:  strings.TrimSpace(s.Text),
		}
		for _, w := range s.Words {
			ws, we := dur(w.Start), dur(w.End)
			if we <= clipStart || ws >= clipEnd {
				continue
			}
			if ws < clipStart {
				ws = clipStart
			}
			if we > clipEnd {
				we = clipEnd
			}
			if we <= ws {
				continue
			}
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			cs.Words = append(cs.Words, types.ClipSubtitleWord{
				Start: ws - clipStart,
				End:   we - clipStart,
				Text:  text,
			})
		}
		if cs.End > cs.Start {
			out = append(out, cs)
		}
	}
	return out
}

func positionTag(style types.SubtitleStyle, frameWidth, frameHeight int) string {
	x := style.PositionX
	if x <= 0 || x > 1 {
		x = 0.5
	}
	y := style.PositionY
	if y <= 0 || y > 1 {
		y = 0.85
	}
	return fmt.Sprintf("{\\an2\\pos(%d,%d)}", int(x*float64(frameWidth)), int(y*float64(frameHeight)))
}

func header(style types.SubtitleStyle, frameWidth, frameHeight int) string {
	font := style.FontName
	if font == "" {
		font = "Inter"
	}
	size := style.FontSize
	if size <= 0 {
		size = 72
	}
	fill := assColor(style.FillColor, "&H00FFD200")
	highlight := assColor(style.HighlightColor, "&H00FFFFFF")
	outline := assColor(style.OutlineColor, "&H00000000")
	shadow := assColor(style.ShadowColor, "&H64000000")

	// Karaoke sweeps SecondaryColour -> PrimaryColour, so the fill color
	// goes into Secondary and the highlight color into Primary.
	return fmt.Sprintf(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Clip, %s, %d, %s, %s, %s, %s, 1,0,0,0,100,100,0,0,1,%g,%g,2, 80,80,85,1
`), frameWidth, frameHeight, font, size, highlight, fill, outline, shadow, style.OutlineWidth, style.ShadowWidth)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
