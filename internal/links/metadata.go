package links

// FileMetadata is the cached metadata of a single note.
type FileMetadata struct {
	Path  string
	Links []string
	Tags  []string
	Size  int64
}

// ResolutionKind classifies what a link resolves to.
type ResolutionKind int

const (
	// Missing means no file in the vault matches the link.
	Missing ResolutionKind = iota
	// Document means the link resolves to a markdown note.
	Document
	// Resource means the link resolves to a non-note file such as an image.
	Resource
)

func (k ResolutionKind) String() string {
	switch k {
	case Document:
		return "document"
	case Resource:
		return "resource"
	default:
		return "missing"
	}
}

// Resolution is the outcome of resolving a link.
type Resolution struct {
	Kind ResolutionKind
	Path string
}

// IsDocument reports whether the link resolved to a note.
func (r Resolution) IsDocument() bool {
	return r.Kind == Document
}

// Exists reports whether the link resolved to any file.
func (r Resolution) Exists() bool {
	return r.Kind != Missing
}

// MetadataCache is the read-only view of the vault the aggregator works from.
type MetadataCache interface {
	// FileCache returns the cached metadata for path. ok is false when the
	// note has not been indexed yet.
	FileCache(path string) (meta FileMetadata, ok bool)
	ResolvedLinks() LinkIndex
	UnresolvedLinks() LinkIndex
	// ResolveLink resolves linkText as written in sourcePath.
	ResolveLink(linkText, sourcePath string) Resolution
	// MarkdownFiles lists every note path in vault order.
	MarkdownFiles() []string
}
