package search

// Config describes index behavior.
type Config struct {
	// IgnoredFolders contains directory names that should be skipped when
	// indexing. Paths containing any of these folders will not be indexed.
	IgnoredFolders []string
	// InlineTags controls whether #tags written in note bodies are collected
	// in addition to the front matter tags.
	InlineTags bool
}

// DefaultConfig returns the configuration used when a workspace does not
// override it.
func DefaultConfig() Config {
	return Config{InlineTags: true}
}
