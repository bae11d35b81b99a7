package state

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/Paintersrp/twohop/internal/logging"
	"github.com/Paintersrp/twohop/internal/pathutil"
)

// VaultWatcher reports changed vault files. Events are collected for the
// debounce interval and then delivered as one sorted batch of vault-relative
// paths.
type VaultWatcher struct {
	watcher  *fsnotify.Watcher
	vault    string
	ignored  []string
	debounce time.Duration
	logger   *log.Logger

	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	onChange func(string)
	onBatch  func([]string)
	onClose  func()
}

// WatcherOption customises a VaultWatcher.
type WatcherOption func(*VaultWatcher)

// WithDebounce sets how long events are collected before a batch is
// delivered. Zero delivers every event on its own.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *VaultWatcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithIgnoredFolders skips events below the named folders.
func WithIgnoredFolders(folders []string) WatcherOption {
	return func(w *VaultWatcher) {
		w.ignored = append([]string(nil), folders...)
	}
}

// WithWatcherLogger sets the logger used for watch errors.
func WithWatcherLogger(logger *log.Logger) WatcherOption {
	return func(w *VaultWatcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewVaultWatcher(vault string, opts ...WatcherOption) (*VaultWatcher, error) {
	normalizedVault := pathutil.NormalizePath(vault)
	if normalizedVault == "" {
		return nil, errors.New("vault directory cannot be empty")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &VaultWatcher{
		watcher: w,
		vault:   normalizedVault,
		logger:  logging.Discard(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(watcher)
	}

	if _, err := watcher.addRecursive(normalizedVault); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return watcher, nil
}

// Run processes file system events until ctx is cancelled or the watcher is
// closed. The watcher is closed when Run returns.
func (w *VaultWatcher) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("vault watcher is nil")
	}
	defer w.Close()

	batch := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.flush(batch)
			return nil
		case <-w.done:
			return nil
		case <-fire:
			fire = nil
			w.flush(batch)
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			changed := w.handleEvent(event)
			if len(changed) == 0 {
				continue
			}
			for _, rel := range changed {
				batch[rel] = struct{}{}
			}

			if w.debounce <= 0 {
				w.flush(batch)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Warn("vault watcher error", "err", err)
			}
		}
	}
}

// handleEvent returns the vault-relative paths affected by event. Newly
// created directories are watched and their files reported.
func (w *VaultWatcher) handleEvent(event fsnotify.Event) []string {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return nil
	}

	rel := w.relevantPath(event.Name)
	if rel == "" {
		return nil
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			files, err := w.addRecursive(event.Name)
			if err != nil {
				w.logger.Warn("watch new directory", "path", rel, "err", err)
			}
			return files
		}
	}

	return []string{rel}
}

func (w *VaultWatcher) flush(batch map[string]struct{}) {
	if len(batch) == 0 {
		return
	}

	rels := make([]string, 0, len(batch))
	for rel := range batch {
		rels = append(rels, rel)
		delete(batch, rel)
	}
	sort.Strings(rels)

	w.mu.Lock()
	onChange, onBatch := w.onChange, w.onBatch
	w.mu.Unlock()

	if onChange != nil {
		for _, rel := range rels {
			onChange(rel)
		}
	}
	if onBatch != nil {
		onBatch(rels)
	}
}

func (w *VaultWatcher) Close() error {
	if w == nil {
		return nil
	}

	var closeErr error
	w.once.Do(func() {
		close(w.done)
		closeErr = w.watcher.Close()

		w.mu.Lock()
		onClose := w.onClose
		w.mu.Unlock()
		if onClose != nil {
			onClose()
		}
	})

	return closeErr
}

// OnChange registers a callback that receives each changed vault-relative
// path. It runs before the batch callback.
func (w *VaultWatcher) OnChange(fn func(string)) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// OnBatch registers a callback that receives every debounced batch.
func (w *VaultWatcher) OnBatch(fn func([]string)) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onBatch = fn
}

// OnClose registers a callback that is invoked exactly once when the watcher
// shuts down.
func (w *VaultWatcher) OnClose(fn func()) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClose = fn
}

// addRecursive watches root and every directory below it that is not hidden
// or ignored. It returns the files found along the way.
func (w *VaultWatcher) addRecursive(root string) ([]string, error) {
	var files []string
	normalized := pathutil.NormalizePath(root)
	err := filepath.WalkDir(normalized, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}

		if path != w.vault && w.skipped(path, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			if rel := pathutil.VaultRelative(w.vault, path); rel != "" {
				files = append(files, rel)
			}
			return nil
		}

		return w.watcher.Add(path)
	})
	return files, err
}

func (w *VaultWatcher) skipped(path string, d fs.DirEntry) bool {
	name := d.Name()
	if strings.HasPrefix(name, ".") {
		return true
	}
	if !d.IsDir() {
		return false
	}
	for _, ignored := range w.ignored {
		if ignored != "" && strings.EqualFold(name, ignored) {
			return true
		}
	}
	return false
}

// relevantPath returns the vault-relative form of path, or "" when the path
// lies outside the vault, in a hidden or ignored folder, or is a hidden file.
func (w *VaultWatcher) relevantPath(path string) string {
	rel := pathutil.VaultRelative(w.vault, path)
	if rel == "" {
		return ""
	}
	if pathutil.HasHiddenDir(rel) || pathutil.InFolder(rel, w.ignored) {
		return ""
	}
	if strings.HasPrefix(filepath.Base(rel), ".") {
		return ""
	}
	return rel
}
