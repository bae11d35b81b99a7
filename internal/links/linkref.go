// Package links aggregates forward, backward, two-hop and tag relationships
// for a single focal note from a snapshot of the vault link index.
package links

import "strings"

const (
	blockReferenceMarker = "#^"
	markdownExt          = ".md"
)

// LinkRef identifies a link target as written, together with the note the
// link is resolved relative to.
type LinkRef struct {
	SourcePath string `json:"sourcePath"`
	LinkText   string `json:"linkText"`
}

// NewLinkRef returns a LinkRef for linkText resolved from sourcePath.
func NewLinkRef(sourcePath, linkText string) LinkRef {
	return LinkRef{SourcePath: sourcePath, LinkText: linkText}
}

// Key returns the identity used for equality and set membership. Block
// references are ignored, so "Note#^a" and "Note#^b" share a key.
func (l LinkRef) Key() string {
	return l.SourcePath + "|" + Normalize(l.LinkText)
}

// Target returns the link text without its block reference.
func (l LinkRef) Target() string {
	return Normalize(l.LinkText)
}

// Normalize strips a trailing block reference ("#^id") from a link.
func Normalize(linkText string) string {
	if i := strings.Index(linkText, blockReferenceMarker); i >= 0 {
		return linkText[:i]
	}
	return linkText
}

// PathToLinkText converts an index path into the text a note would use to
// link to it.
func PathToLinkText(path string) string {
	return strings.TrimSuffix(path, markdownExt)
}

// KeySet is a set of LinkRef keys.
type KeySet map[string]struct{}

// Keys builds the key set of refs.
func Keys(refs []LinkRef) KeySet {
	set := make(KeySet, len(refs))
	for _, ref := range refs {
		set[ref.Key()] = struct{}{}
	}
	return set
}

// Has reports whether key is present. A nil set is empty.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s KeySet) add(key string) {
	s[key] = struct{}{}
}
