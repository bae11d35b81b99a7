package fzf

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Paintersrp/twohop/internal/search"
)

func writeNote(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func TestLabelsIncludeTags(t *testing.T) {
	vault := t.TempDir()
	paths := []string{
		writeNote(t, vault, "b/Tagged.md", "---\ntags: [go, cli]\n---\nbody"),
		writeNote(t, vault, "Plain.md", "no tags here"),
	}

	idx := search.NewIndex(vault, search.DefaultConfig())
	if err := idx.Build(paths); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	got := NewFuzzyFinder(idx, "Pick a note").Labels()
	want := []string{"Plain [No tags]", "b/Tagged [Tags: go, cli]"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
}

func TestRenderMarkdownPreview(t *testing.T) {
	vault := t.TempDir()
	path := writeNote(t, vault, "Note.md", "# Heading\n\nPreview body")

	idx := search.NewIndex(vault, search.DefaultConfig())
	if err := idx.Build([]string{path}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	f := NewFuzzyFinder(idx, "")
	if got := f.renderMarkdownPreview(-1, 80, 20); got != "" {
		t.Fatalf("expected empty preview without selection, got %q", got)
	}
	if got := f.renderMarkdownPreview(0, 80, 20); !strings.Contains(got, "Preview") {
		t.Fatalf("expected rendered note body, got %q", got)
	}
}

func TestRunWithoutNotes(t *testing.T) {
	idx := search.NewIndex(t.TempDir(), search.DefaultConfig())
	_, err := NewFuzzyFinder(idx, "").Run("")
	if err == nil || errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected empty vault error, got %v", err)
	}
}
