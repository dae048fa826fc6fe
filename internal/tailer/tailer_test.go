package tailer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
}

func linesOf(t *testing.T, tl *Tailer) []string {
	t.Helper()
	records, err := tl.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Line
	}
	return out
}

func TestTailer_StartupSkipsExistingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, "old 1\nold 2\n")

	tl := New(path)
	defer tl.Close()

	if got := linesOf(t, tl); len(got) != 0 {
		t.Fatalf("startup poll returned %v, want none (pre-existing content)", got)
	}

	appendFile(t, path, "new 1\n")
	got := linesOf(t, tl)
	want := []string{"new 1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTailer_NoPartialLinesUntilNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, "")

	tl := New(path)
	defer tl.Close()
	linesOf(t, tl) // consume startup poll

	appendFile(t, path, "incomplete")
	if got := linesOf(t, tl); len(got) != 0 {
		t.Fatalf("got %v, want no lines for a write without a trailing newline", got)
	}

	appendFile(t, path, " line\n")
	got := linesOf(t, tl)
	if len(got) != 1 || got[0] != "incomplete line" {
		t.Fatalf("got %v, want [\"incomplete line\"]", got)
	}
}

func TestTailer_TruncationRecovery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, "")

	tl := New(path)
	defer tl.Close()
	linesOf(t, tl)

	appendFile(t, path, "a\nb\nc\nd\n")
	linesOf(t, tl)

	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if got := linesOf(t, tl); len(got) != 0 {
		t.Fatalf("poll right after truncation returned %v, want none", got)
	}

	appendFile(t, path, "e\nf\n")
	got := linesOf(t, tl)
	want := []string{"e", "f"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTailer_RotationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	writeFile(t, path, "")

	tl := New(path)
	defer tl.Close()
	linesOf(t, tl)

	appendFile(t, path, "k1\nk2\nk3\n")
	got := linesOf(t, tl)
	if len(got) != 3 {
		t.Fatalf("pre-rotation got %v, want 3 lines", got)
	}

	rotated := filepath.Join(dir, "app.log.1")
	if err := os.Rename(path, rotated); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	writeFile(t, path, "n1\nn2\n")

	got = linesOf(t, tl)
	want := []string{"n1", "n2"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("post-rotation got %v, want %v", got, want)
	}
}

func TestTailer_RetriesOpenUntilFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-yet.log")

	tl := New(path)
	defer tl.Close()

	if got := linesOf(t, tl); len(got) != 0 {
		t.Fatalf("got %v, want none before file exists", got)
	}

	// Content present at the moment of the first successful open is
	// treated like any other pre-existing content: skipped.
	writeFile(t, path, "first\n")
	if got := linesOf(t, tl); len(got) != 0 {
		t.Fatalf("got %v, want none for content present when the file first appeared", got)
	}

	appendFile(t, path, "second\n")
	got := linesOf(t, tl)
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("got %v, want [\"second\"]", got)
	}
}
