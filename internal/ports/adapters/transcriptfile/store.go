// Package transcriptfile resolves transcript segments from whisper-style
// JSON artifacts on disk, one file per draft.
package transcriptfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/vclip/internal/types"
)

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Segments loads <dir>/<draftID>.json. Segment and word text is
// trimmed; word timings are optional.
func (s *Store) Segments(_ context.Context, draftID string) ([]types.Segment, error) {
	if strings.ContainsAny(draftID, `/\`) {
		return nil, fmt.Errorf("invalid draft id %q", draftID)
	}
	path := filepath.Join(s.dir, draftID+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var tr types.Transcript
	if err := json.Unmarshal(b, &tr); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
		for j := range tr.Segments[i].Words {
			tr.Segments[i].Words[j].Word = strings.TrimSpace(tr.Segments[i].Words[j].Word)
		}
	}
	return tr.Segments, nil
}
