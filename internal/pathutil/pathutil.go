package pathutil

import (
	"path"
	"path/filepath"
	"strings"
)

const markdownExt = ".md"

// NormalizePath converts Windows-style separators to the current platform's separator
// and cleans the resulting path.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}

	replaced := strings.ReplaceAll(p, "\\", "/")
	return filepath.Clean(filepath.FromSlash(replaced))
}

// VaultRelative returns target relative to vaultDir with forward slashes.
// Relative targets are taken to be vault-relative already. Targets that are
// the vault itself or lie outside of it yield "".
func VaultRelative(vaultDir, target string) string {
	cleaned := NormalizePath(target)
	if cleaned == "" || cleaned == "." {
		return ""
	}

	if filepath.IsAbs(cleaned) {
		rel, err := filepath.Rel(NormalizePath(vaultDir), cleaned)
		if err != nil {
			return ""
		}
		cleaned = rel
	}

	rel := filepath.ToSlash(cleaned)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return ""
	}
	return rel
}

// FromVault joins a vault-relative slash path onto vaultDir.
func FromVault(vaultDir, rel string) string {
	return filepath.Join(NormalizePath(vaultDir), filepath.FromSlash(rel))
}

// IsMarkdown reports whether p names a markdown note.
func IsMarkdown(p string) bool {
	return strings.EqualFold(path.Ext(filepath.ToSlash(p)), markdownExt)
}

// HasHiddenDir reports whether any directory of the vault-relative path rel
// starts with a dot, such as the .obsidian or .git folders.
func HasHiddenDir(rel string) bool {
	for _, segment := range strings.Split(path.Dir(rel), "/") {
		if segment != "." && strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

// InFolder reports whether any directory of rel matches one of folders,
// case-insensitively.
func InFolder(rel string, folders []string) bool {
	if len(folders) == 0 {
		return false
	}
	for _, segment := range strings.Split(path.Dir(rel), "/") {
		for _, folder := range folders {
			if folder != "" && strings.EqualFold(segment, folder) {
				return true
			}
		}
	}
	return false
}
