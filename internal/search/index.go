package search

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Paintersrp/twohop/internal/links"
	"github.com/Paintersrp/twohop/internal/pathutil"
)

const markdownExt = ".md"

type document struct {
	Path       string
	Tags       []string
	Links      []string
	Embeds     []string
	Size       int64
	ModifiedAt time.Time
}

// Index stores the link metadata of the notes in a vault. Paths are relative
// to the vault root and always use forward slashes.
type Index struct {
	root      string
	cfg       Config
	docs      map[string]document
	resources map[string]int64
	// aliases maps lowercase note identifiers (relative paths, basenames,
	// and stemmed names) to their canonical relative path.
	aliases         map[string]string
	resourceAliases map[string]string
	resolved        links.LinkIndex
	unresolved      links.LinkIndex
}

var _ links.MetadataCache = (*Index)(nil)

// NewIndex constructs an empty index rooted at the provided directory.
func NewIndex(root string, cfg Config) *Index {
	return &Index{
		root:            filepath.Clean(root),
		cfg:             cfg,
		docs:            make(map[string]document),
		resources:       make(map[string]int64),
		aliases:         make(map[string]string),
		resourceAliases: make(map[string]string),
		resolved:        make(links.LinkIndex),
		unresolved:      make(links.LinkIndex),
	}
}

// Root returns the vault directory of the index.
func (idx *Index) Root() string {
	return idx.root
}

// Build replaces the index contents using the provided paths. Markdown files
// are parsed as notes; every other file is recorded as an attachment that
// links may resolve to.
func (idx *Index) Build(paths []string) error {
	idx.docs = make(map[string]document, len(paths))
	idx.resources = make(map[string]int64)
	for _, p := range paths {
		rel := idx.Relative(p)
		if rel == "" || idx.shouldIgnore(rel) {
			continue
		}

		if err := idx.load(rel); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("search: indexing %s: %w", rel, err)
		}
	}
	idx.refreshMetadata()
	return nil
}

// Update refreshes the indexed representation of the provided path.
//
// The method gracefully handles files that have been removed and ignores
// directories that fall under configured ignore rules.
func (idx *Index) Update(path string) error {
	if idx == nil {
		return nil
	}

	rel := idx.Relative(path)
	if rel == "" {
		return nil
	}

	if idx.shouldIgnore(rel) {
		return idx.Remove(rel)
	}

	if err := idx.load(rel); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return idx.Remove(rel)
		}
		return fmt.Errorf("search: indexing %s: %w", rel, err)
	}

	idx.refreshMetadata()
	return nil
}

// Remove deletes the provided path from the index if present.
func (idx *Index) Remove(path string) error {
	if idx == nil {
		return nil
	}

	rel := idx.Relative(path)
	if rel == "" {
		return nil
	}

	_, isDoc := idx.docs[rel]
	_, isResource := idx.resources[rel]
	if !isDoc && !isResource {
		return nil
	}

	delete(idx.docs, rel)
	delete(idx.resources, rel)
	idx.refreshMetadata()
	return nil
}

// Clone returns a copy of the index that can be read while the original keeps
// receiving updates. Documents are never mutated in place, so they are
// shared.
func (idx *Index) Clone() *Index {
	if idx == nil {
		return nil
	}

	clone := &Index{
		root:            idx.root,
		cfg:             idx.cfg,
		docs:            make(map[string]document, len(idx.docs)),
		resources:       make(map[string]int64, len(idx.resources)),
		aliases:         make(map[string]string, len(idx.aliases)),
		resourceAliases: make(map[string]string, len(idx.resourceAliases)),
		resolved:        idx.resolved.Clone(),
		unresolved:      idx.unresolved.Clone(),
	}
	for k, v := range idx.docs {
		clone.docs[k] = v
	}
	for k, v := range idx.resources {
		clone.resources[k] = v
	}
	for k, v := range idx.aliases {
		clone.aliases[k] = v
	}
	for k, v := range idx.resourceAliases {
		clone.resourceAliases[k] = v
	}
	return clone
}

// Relative converts an absolute or vault-relative path into the slash
// separated form used as index key. Paths outside the vault yield "".
func (idx *Index) Relative(p string) string {
	return pathutil.VaultRelative(idx.root, p)
}

// Abs returns the on-disk location of a vault-relative path.
func (idx *Index) Abs(rel string) string {
	return pathutil.FromVault(idx.root, rel)
}

// FileCache implements links.MetadataCache.
func (idx *Index) FileCache(path string) (links.FileMetadata, bool) {
	doc, ok := idx.docs[path]
	if !ok {
		return links.FileMetadata{}, false
	}
	return links.FileMetadata{
		Path:  doc.Path,
		Links: append([]string(nil), doc.Links...),
		Tags:  append([]string(nil), doc.Tags...),
		Size:  doc.Size,
	}, true
}

// ResolvedLinks implements links.MetadataCache.
func (idx *Index) ResolvedLinks() links.LinkIndex {
	return idx.resolved
}

// UnresolvedLinks implements links.MetadataCache.
func (idx *Index) UnresolvedLinks() links.LinkIndex {
	return idx.unresolved
}

// MarkdownFiles returns the relative paths of every indexed note, sorted.
func (idx *Index) MarkdownFiles() []string {
	out := make([]string, 0, len(idx.docs))
	for p := range idx.docs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ResourceSize reports the size of an indexed attachment.
func (idx *Index) ResourceSize(rel string) (int64, bool) {
	size, ok := idx.resources[rel]
	return size, ok
}

// Documents returns the metadata of every indexed note, sorted by path.
func (idx *Index) Documents() []links.FileMetadata {
	files := idx.MarkdownFiles()
	if len(files) == 0 {
		return nil
	}
	out := make([]links.FileMetadata, 0, len(files))
	for _, p := range files {
		meta, _ := idx.FileCache(p)
		out = append(out, meta)
	}
	return out
}

// ModifiedAt returns the modification time recorded for a note.
func (idx *Index) ModifiedAt(rel string) (time.Time, bool) {
	doc, ok := idx.docs[rel]
	return doc.ModifiedAt, ok
}

// ResolveLink implements links.MetadataCache. Subpaths ("#heading",
// "#^block") are ignored. Notes are matched by relative path, basename or
// stem, case-insensitively, then relative to the directory of sourcePath.
// Attachments are matched by relative path or file name.
func (idx *Index) ResolveLink(linkText, sourcePath string) links.Resolution {
	cleaned := cleanLinkTarget(linkText)
	if cleaned == "" || isExternal(cleaned) {
		return links.Resolution{Kind: links.Missing}
	}

	candidates := []string{cleaned}
	if relative := resolveRelativeLink(sourcePath, cleaned); relative != "" && relative != cleaned {
		candidates = append(candidates, relative)
	}

	for _, candidate := range candidates {
		if resolved := lookupAlias(idx.aliases, candidate, true); resolved != "" {
			return links.Resolution{Kind: links.Document, Path: resolved}
		}
	}
	for _, candidate := range candidates {
		if resolved := lookupAlias(idx.resourceAliases, candidate, false); resolved != "" {
			return links.Resolution{Kind: links.Resource, Path: resolved}
		}
	}
	return links.Resolution{Kind: links.Missing}
}

func (idx *Index) shouldIgnore(rel string) bool {
	return pathutil.HasHiddenDir(rel) || pathutil.InFolder(rel, idx.cfg.IgnoredFolders)
}

func (idx *Index) load(rel string) error {
	abs := idx.Abs(rel)
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}

	if !pathutil.IsMarkdown(rel) {
		delete(idx.docs, rel)
		idx.resources[rel] = info.Size()
		return nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return err
	}

	parsed, err := parseNote(data, idx.cfg.InlineTags)
	if err != nil {
		return fmt.Errorf("parse front matter: %w", err)
	}

	delete(idx.resources, rel)
	idx.docs[rel] = document{
		Path:       rel,
		Tags:       parsed.Tags,
		Links:      parsed.Links,
		Embeds:     parsed.Embeds,
		Size:       info.Size(),
		ModifiedAt: info.ModTime().UTC(),
	}
	return nil
}

func (idx *Index) refreshMetadata() {
	idx.aliases, idx.resourceAliases = idx.buildAliases()
	idx.computeLinkIndices()
}

func (idx *Index) computeLinkIndices() {
	resolved := make(links.LinkIndex, len(idx.docs))
	unresolved := make(links.LinkIndex, len(idx.docs))

	for _, src := range idx.MarkdownFiles() {
		doc := idx.docs[src]
		resolved[src] = make(map[string]int)
		unresolved[src] = make(map[string]int)

		targets := make([]string, 0, len(doc.Links)+len(doc.Embeds))
		targets = append(targets, doc.Links...)
		targets = append(targets, doc.Embeds...)
		for _, raw := range targets {
			if res := idx.ResolveLink(raw, src); res.Exists() {
				resolved[src][res.Path]++
				continue
			}
			if text := links.Normalize(raw); text != "" {
				unresolved[src][text]++
			}
		}
	}

	idx.resolved = resolved
	idx.unresolved = unresolved
}

// buildAliases indexes notes and attachments by every name a link may use.
// Full relative paths always win over basenames; among equal basenames the
// lexically first path wins.
func (idx *Index) buildAliases() (map[string]string, map[string]string) {
	docAliases := make(map[string]string, len(idx.docs)*3)
	for _, p := range idx.MarkdownFiles() {
		addAlias(docAliases, path.Base(p), p, true, false)
	}
	for _, p := range idx.MarkdownFiles() {
		addAlias(docAliases, p, p, true, true)
	}

	resourcePaths := make([]string, 0, len(idx.resources))
	for p := range idx.resources {
		resourcePaths = append(resourcePaths, p)
	}
	sort.Strings(resourcePaths)

	resourceAliases := make(map[string]string, len(resourcePaths)*2)
	for _, p := range resourcePaths {
		addAlias(resourceAliases, path.Base(p), p, false, false)
	}
	for _, p := range resourcePaths {
		addAlias(resourceAliases, p, p, false, true)
	}
	return docAliases, resourceAliases
}

func addAlias(aliases map[string]string, candidate, target string, stem, overwrite bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return
	}

	keys := []string{strings.ToLower(candidate)}
	if stem {
		if trimmed := strings.TrimSuffix(keys[0], markdownExt); trimmed != keys[0] && trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	for _, key := range keys {
		if _, exists := aliases[key]; exists && !overwrite {
			continue
		}
		aliases[key] = target
	}
}

func lookupAlias(aliases map[string]string, candidate string, stem bool) string {
	if len(aliases) == 0 {
		return ""
	}
	normalized := strings.ToLower(candidate)
	if resolved, ok := aliases[normalized]; ok {
		return resolved
	}
	if stem {
		if trimmed := strings.TrimSuffix(normalized, markdownExt); trimmed != normalized {
			if resolved, ok := aliases[trimmed]; ok {
				return resolved
			}
		}
	}
	return ""
}

func cleanLinkTarget(link string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(link, "\\", "/"))
	if hash := strings.Index(cleaned, "#"); hash >= 0 {
		cleaned = cleaned[:hash]
	}
	cleaned = strings.TrimPrefix(cleaned, "./")
	return strings.Trim(cleaned, "/")
}

func resolveRelativeLink(sourcePath, link string) string {
	if sourcePath == "" || link == "" {
		return ""
	}
	joined := path.Clean(path.Join(path.Dir(sourcePath), link))
	if joined == "." || joined == ".." || strings.HasPrefix(joined, "../") {
		return ""
	}
	return joined
}
