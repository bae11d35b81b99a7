package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Paintersrp/twohop/internal/search"
)

// ResolveNote maps a command argument to the vault-relative path of an
// indexed note. The argument may be an absolute path inside the vault, a
// path relative to the vault, or link text as it would appear in a note.
func ResolveNote(idx *search.Index, arg string) (string, error) {
	if idx == nil {
		return "", fmt.Errorf("vault index is not available")
	}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("a note argument is required")
	}

	if filepath.IsAbs(arg) {
		if err := ensureWithinVault(idx.Root(), filepath.Clean(arg)); err != nil {
			return "", err
		}
	} else if rel := filepath.Clean(arg); rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the vault %q", arg, idx.Root())
	}

	if rel := idx.Relative(arg); rel != "" {
		if _, ok := idx.FileCache(rel); ok {
			return rel, nil
		}
	}

	if res := idx.ResolveLink(arg, ""); res.IsDocument() {
		return res.Path, nil
	}

	return "", fmt.Errorf("note %q not found in vault %q", arg, idx.Root())
}

func ensureWithinVault(vaultDir, resolved string) error {
	rel, err := filepath.Rel(vaultDir, resolved)
	if err != nil {
		return fmt.Errorf("failed to resolve path %q relative to vault %q: %w", resolved, vaultDir, err)
	}

	if rel == "." {
		return fmt.Errorf("path %q is the vault itself, not a note", resolved)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside the vault %q", resolved, vaultDir)
	}

	return nil
}
