package transcriptfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSegments_LoadsAndTrims(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := `{"segments":[
		{"start":0,"end":4,"text":"  hello there ","words":[{"start":0,"end":2,"word":" hello "}]},
		{"start":4,"end":8,"text":"second"}
	]}`
	if err := os.WriteFile(filepath.Join(dir, "draft-1.json"), []byte(data), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}

	segs, err := New(dir).Segments(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].Text != "hello there" {
		t.Fatalf("segment text not trimmed: %q", segs[0].Text)
	}
	if segs[0].Words[0].Word != "hello" {
		t.Fatalf("word text not trimmed: %q", segs[0].Words[0].Word)
	}
}

func TestSegments_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	for _, id := range []string{"../etc/passwd", `..\..\x`, "a/b"} {
		if _, err := s.Segments(context.Background(), id); err == nil {
			t.Fatalf("expected error for draft id %q", id)
		}
	}
}

func TestSegments_MissingAndMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := New(dir)
	if _, err := s.Segments(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for missing transcript")
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Segments(context.Background(), "bad"); err == nil {
		t.Fatalf("expected error for malformed transcript")
	}
}
