package highlight

import (
	"testing"
	"time"
)

func TestParseScoreResponse_ToleratesFencesAndProse(t *testing.T) {
	t.Parallel()

	content := "Here are the results:\n```json\n[{\"index\":1,\"score\":85,\"reason\":\"strong hook\"}]\n```\nHope that helps!"
	parsed, err := parseScoreResponse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 element, got %d", len(parsed))
	}
	if parsed[0].dropped != "" {
		t.Fatalf("unexpected drop: %s", parsed[0].dropped)
	}
	if parsed[0].cand.Index != 1 || parsed[0].cand.Score != 85 {
		t.Fatalf("unexpected candidate: %+v", parsed[0].cand)
	}
}

func TestParseScoreResponse_DropsBadElementsKeepsRest(t *testing.T) {
	t.Parallel()

	content := `[{"index":1,"score":70,"reason":"ok"},{"index":"nope"},{"score":50,"reason":"no index"},{"index":2,"score":90,"reason":"best"}]`
	parsed, err := parseScoreResponse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(parsed))
	}
	var kept, dropped int
	for _, p := range parsed {
		if p.dropped != "" {
			dropped++
		} else {
			kept++
		}
	}
	if kept != 2 || dropped != 2 {
		t.Fatalf("expected 2 kept and 2 dropped, got %d/%d", kept, dropped)
	}
}

func TestParseScoreResponse_NoArray(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"", "I cannot help with that.", "{\"index\":1}"} {
		if _, err := parseScoreResponse(content); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"01:02:03.500", time.Hour + 2*time.Minute + 3500*time.Millisecond, true},
		{"1:02:03", time.Hour + 2*time.Minute + 3*time.Second, true},
		{"2:30", 2*time.Minute + 30*time.Second, true},
		{"2:30.250", 2*time.Minute + 30*time.Second + 250*time.Millisecond, true},
		{"45", 45 * time.Second, true},
		{"45.5", 45*time.Second + 500*time.Millisecond, true},
		{" 0:10 ", 10 * time.Second, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1:2:3:4", 0, false},
		{"-5", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseTimestamp(tc.in)
		if ok != tc.ok {
			t.Fatalf("parseTimestamp(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("parseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		0:                                    "00:00:00.000",
		90*time.Second + 250*time.Millisecond: "00:01:30.250",
		time.Hour + time.Minute + time.Second: "01:01:01.000",
	}
	for in, want := range cases {
		if got := formatTimestamp(in); got != want {
			t.Fatalf("formatTimestamp(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestClampToWindow(t *testing.T) {
	t.Parallel()

	sec := func(v int) time.Duration { return time.Duration(v) * time.Second }

	cases := []struct {
		name                 string
		start, end           time.Duration
		winStart, winEnd     time.Duration
		minDur, maxDur       time.Duration
		wantStart, wantEnd   time.Duration
		wantOK               bool
	}{
		{
			name:  "inside untouched",
			start: sec(10), end: sec(30), winStart: sec(0), winEnd: sec(60),
			minDur: sec(15), maxDur: sec(40),
			wantStart: sec(10), wantEnd: sec(30), wantOK: true,
		},
		{
			name:  "clamped into window",
			start: sec(-5), end: sec(70), winStart: sec(0), winEnd: sec(60),
			minDur: sec(15), maxDur: sec(90),
			wantStart: sec(0), wantEnd: sec(60), wantOK: true,
		},
		{
			name:  "shrunk to max",
			start: sec(0), end: sec(60), winStart: sec(0), winEnd: sec(60),
			minDur: sec(10), maxDur: sec(30),
			wantStart: sec(0), wantEnd: sec(30), wantOK: true,
		},
		{
			name:  "grown forward to min",
			start: sec(10), end: sec(12), winStart: sec(0), winEnd: sec(60),
			minDur: sec(15), maxDur: sec(40),
			wantStart: sec(10), wantEnd: sec(25), wantOK: true,
		},
		{
			name:  "grown backward at window end",
			start: sec(55), end: sec(58), winStart: sec(0), winEnd: sec(60),
			minDur: sec(15), maxDur: sec(40),
			wantStart: sec(45), wantEnd: sec(60), wantOK: true,
		},
		{
			name:  "window shorter than min",
			start: sec(0), end: sec(10), winStart: sec(0), winEnd: sec(10),
			minDur: sec(15), maxDur: sec(40),
			wantOK: false,
		},
		{
			name:  "inverted range",
			start: sec(30), end: sec(20), winStart: sec(0), winEnd: sec(60),
			minDur: sec(5), maxDur: sec(40),
			wantOK: false,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			start, end, ok := clampToWindow(tc.start, tc.end, tc.winStart, tc.winEnd, tc.minDur, tc.maxDur)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && (start != tc.wantStart || end != tc.wantEnd) {
				t.Fatalf("got [%v,%v), want [%v,%v)", start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}
