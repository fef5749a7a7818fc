package highlight

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rawCandidate is one element of the model's JSON array. Index is
// 1-based into the windows of the chunk that produced the response;
// start/end are optional "H:MM:SS[.fff]" style timestamps.
type rawCandidate struct {
	Index  int     `json:"index"`
	Start  string  `json:"start,omitempty"`
	End    string  `json:"end,omitempty"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// parsedCandidate is the tagged per-element result: either a usable
// candidate or the reason it was dropped.
type parsedCandidate struct {
	cand    rawCandidate
	dropped string
}

// parseScoreResponse extracts the JSON array from a completion and
// parses each element independently. Elements that fail to parse are
// returned as dropped entries; a response with no locatable array
// yields an error and zero candidates for that chunk.
func parseScoreResponse(content string) ([]parsedCandidate, error) {
	arr, err := extractJSONArray(content)
	if err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(arr), &elems); err != nil {
		return nil, fmt.Errorf("decode response array: %w", err)
	}

	out := make([]parsedCandidate, 0, len(elems))
	for i, raw := range elems {
		var c rawCandidate
		if err := json.Unmarshal(raw, &c); err != nil {
			out = append(out, parsedCandidate{dropped: fmt.Sprintf("element %d: %v", i, err)})
			continue
		}
		if c.Index <= 0 {
			out = append(out, parsedCandidate{dropped: fmt.Sprintf("element %d: missing index", i)})
			continue
		}
		out = append(out, parsedCandidate{cand: c})
	}
	return out, nil
}

// extractJSONArray tolerates markdown fences and prose around the
// array: it takes the first '[' through the last ']'.
func extractJSONArray(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("empty response")
	}
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	start := strings.Index(t, "[")
	end := strings.LastIndex(t, "]")
	if start < 0 || end <= start {
		return "", errors.New("no JSON array in response")
	}
	return t[start : end+1], nil
}

// parseTimestamp accepts H:MM:SS[.fff], M:SS[.fff] and bare seconds.
func parseTimestamp(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return time.Duration(total * float64(time.Second)), true
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := d.Seconds()
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// clampToWindow forces [start,end) inside the window bounds and then
// forces the duration into [minDur, maxDur], growing or shrinking from
// whichever edge keeps the result inside the window. Returns false when
// no valid adjustment exists.
func clampToWindow(start, end, winStart, winEnd, minDur, maxDur time.Duration) (time.Duration, time.Duration, bool) {
	if start < winStart {
		start = winStart
	}
	if end > winEnd {
		end = winEnd
	}
	if end <= start {
		return 0, 0, false
	}

	if d := end - start; d > maxDur {
		end = start + maxDur
	}
	if d := end - start; d < minDur {
		// Grow forward first, then backward, staying inside the window.
		end = start + minDur
		if end > winEnd {
			end = winEnd
			start = end - minDur
		}
		if start < winStart {
			return 0, 0, false
		}
	}
	return start, end, true
}
