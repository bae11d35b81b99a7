// Package preview derives the one-line summary shown next to each link in
// the panel.
package preview

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/twohop/internal/cache"
	"github.com/Paintersrp/twohop/internal/links"
	"github.com/Paintersrp/twohop/internal/logging"
)

const (
	defaultConcurrency = 8
	ellipsis           = "…"
)

var (
	textExtensions = map[string]struct{}{
		".md":       {},
		".markdown": {},
		".txt":      {},
		".text":     {},
	}

	frontMatterRe = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n.*?\r?\n---[ \t]*(?:\r?\n|\z)`)
	imageEmbedRe  = regexp.MustCompile(`(?i)!\[\[([^\]|]+?\.(?:png|bmp|jpe?g|gif|webp|svg))(?:\|[^\]]*)?\]\]`)
	bareURLRe     = regexp.MustCompile(`^(?:https?|ftp)://\S+$`)
)

// Options controls what a preview may contain.
type Options struct {
	// MaxBytes skips files larger than this many bytes. Zero disables the
	// limit.
	MaxBytes int64
	// ShowImage prefers the first embedded image over the first text line.
	ShowImage bool
	// Width truncates text previews. Zero disables truncation.
	Width int
}

// Resolver maps link text to a vault file.
type Resolver interface {
	ResolveLink(linkText, sourcePath string) links.Resolution
}

// Reader reads previews from a vault file system. Paths handed to the file
// system are vault-relative with forward slashes, so os.DirFS(vault) works.
type Reader struct {
	fsys        fs.FS
	resolver    Resolver
	opts        Options
	logger      *log.Logger
	cache       *cache.LRU[string, string]
	concurrency int
}

// NewReader returns a Reader. A nil logger discards output.
func NewReader(fsys fs.FS, resolver Resolver, opts Options, logger *log.Logger) *Reader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reader{
		fsys:        fsys,
		resolver:    resolver,
		opts:        opts,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
}

// UseCache makes r remember previews in c, keyed by file, size,
// modification time and options. A cache may be shared between readers.
func (r *Reader) UseCache(c *cache.LRU[string, string]) *Reader {
	r.cache = c
	return r
}

// Preview returns the summary for ref, or "" when the target does not exist,
// is not a text file, or exceeds the size limit.
func (r *Reader) Preview(ref links.LinkRef) (string, error) {
	res := r.resolver.ResolveLink(ref.Target(), ref.SourcePath)
	if !res.Exists() {
		return "", nil
	}
	if _, ok := textExtensions[strings.ToLower(path.Ext(res.Path))]; !ok {
		return "", nil
	}

	info, err := fs.Stat(r.fsys, res.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if r.opts.MaxBytes > 0 && info.Size() > r.opts.MaxBytes {
		r.logger.Debug("skipping preview of large file", "path", res.Path, "size", info.Size(), "limit", r.opts.MaxBytes)
		return "", nil
	}

	key := fmt.Sprintf("%s|%d|%d|%v|%d", res.Path, info.Size(), info.ModTime().UnixNano(), r.opts.ShowImage, r.opts.Width)
	if r.cache != nil {
		if text, ok := r.cache.Get(key); ok {
			return text, nil
		}
	}

	data, err := fs.ReadFile(r.fsys, res.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	text := r.summarize(string(data), res.Path)
	if r.cache != nil {
		r.cache.Put(key, text)
	}
	return text, nil
}

func (r *Reader) summarize(content, sourcePath string) string {
	if r.opts.ShowImage {
		if image := r.firstImage(content, sourcePath); image != "" {
			return image
		}
	}
	return r.firstLine(content)
}

// Previews reads the previews of refs concurrently and returns them keyed by
// LinkRef.Key. Files that cannot be read are logged and left out.
func (r *Reader) Previews(ctx context.Context, refs []links.LinkRef) (map[string]string, error) {
	out := make(map[string]string, len(refs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	seen := make(links.KeySet, len(refs))
	for _, ref := range refs {
		key := ref.Key()
		if seen.Has(key) {
			continue
		}
		seen[key] = struct{}{}

		ref := ref
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := r.Preview(ref)
			if err != nil {
				r.logger.Warn("failed to read preview", "link", ref.LinkText, "err", err)
				return nil
			}
			if text == "" {
				return nil
			}
			mu.Lock()
			out[key] = text
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) firstImage(content, sourcePath string) string {
	for _, m := range imageEmbedRe.FindAllStringSubmatch(content, -1) {
		res := r.resolver.ResolveLink(strings.TrimSpace(m[1]), sourcePath)
		if res.Exists() {
			return res.Path
		}
	}
	return ""
}

func (r *Reader) firstLine(content string) string {
	content = frontMatterRe.ReplaceAllString(content, "")

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || bareURLRe.MatchString(line) {
			continue
		}
		if r.opts.Width > 0 {
			line = truncate.StringWithTail(line, uint(r.opts.Width), ellipsis)
		}
		return line
	}
	return ""
}
