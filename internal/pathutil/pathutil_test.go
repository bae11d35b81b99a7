package pathutil

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestVaultRelativeReturnsForwardSlashes(t *testing.T) {
	vault := filepath.Join(string(filepath.Separator), "home", "user", "vault")
	file := filepath.Join(vault, "subdir", "file.md")

	if rel := VaultRelative(vault, file); rel != "subdir/file.md" {
		t.Fatalf("expected relative path 'subdir/file.md', got %q", rel)
	}

	windowsFile := strings.ReplaceAll(filepath.Join("subdir", "file.md"), string(filepath.Separator), "\\")
	if rel := VaultRelative(vault, windowsFile); rel != "subdir/file.md" {
		t.Fatalf("expected Windows separators to be normalized, got %q", rel)
	}
}

func TestVaultRelativeRejectsOutsidePaths(t *testing.T) {
	vault := filepath.Join(string(filepath.Separator), "home", "user", "vault")

	for _, target := range []string{
		vault,
		filepath.Join(string(filepath.Separator), "home", "user", "other.md"),
		"../escape.md",
		"",
		"   ",
	} {
		if rel := VaultRelative(vault, target); rel != "" {
			t.Fatalf("expected %q to be rejected, got %q", target, rel)
		}
	}
}

func TestFromVaultRoundTrip(t *testing.T) {
	vault := filepath.Join(string(filepath.Separator), "vault")
	abs := FromVault(vault, "a/b.md")
	if abs != filepath.Join(vault, "a", "b.md") {
		t.Fatalf("unexpected path %q", abs)
	}
	if rel := VaultRelative(vault, abs); rel != "a/b.md" {
		t.Fatalf("expected a/b.md, got %q", rel)
	}
}

func TestFolderChecks(t *testing.T) {
	if !IsMarkdown("Dir/Note.MD") || IsMarkdown("image.png") {
		t.Fatal("unexpected markdown detection")
	}
	if !HasHiddenDir(".obsidian/app.md") || HasHiddenDir("notes/.draft.md") {
		t.Fatal("only directories count as hidden")
	}
	if !InFolder("Archive/2023/note.md", []string{"archive"}) {
		t.Fatal("expected case-insensitive folder match")
	}
	if InFolder("archive.md", []string{"archive"}) || InFolder("a/b.md", nil) {
		t.Fatal("file names are not folders")
	}
}
