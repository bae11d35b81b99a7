package index

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Paintersrp/twohop/internal/pathutil"
	"github.com/Paintersrp/twohop/internal/search"
)

// ErrClosed signals that the index service has been shut down and cannot be
// used to produce new snapshots.
var ErrClosed = errors.New("index service closed")

// ErrUnavailable indicates that the vault index has not been built yet.
var ErrUnavailable = errors.New("vault index unavailable")

// Stats captures lightweight instrumentation about the shared index.
type Stats struct {
	LastRebuild time.Time
	Pending     int
	Notes       int
}

// Service owns the link index of a vault and coordinates incremental updates
// coming from the vault watcher.
type Service struct {
	mu          sync.RWMutex
	vault       string
	config      search.Config
	index       *search.Index
	pending     map[string]struct{}
	lastRebuild time.Time
	closed      bool

	logger *log.Logger
	now    func() time.Time
	stat   func(string) (fs.FileInfo, error)
	maxAge time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger used for rebuild and update diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxAge sets how long a built index is trusted before a full rebuild.
// Zero disables age based rebuilds.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) {
		s.maxAge = d
	}
}

// NewService constructs a vault-scoped index service.
func NewService(vault string, cfg search.Config, opts ...Option) *Service {
	s := &Service{
		vault:   pathutil.NormalizePath(vault),
		config:  cfg,
		pending: make(map[string]struct{}),
		logger:  log.New(io.Discard),
		now:     time.Now,
		stat:    os.Stat,
		maxAge:  time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Vault returns the vault directory served by the service.
func (s *Service) Vault() string {
	if s == nil {
		return ""
	}
	return s.vault
}

// AcquireSnapshot returns a snapshot of the index that is safe to read while
// updates continue. The index is rebuilt or brought up to date with pending
// changes first.
func (s *Service) AcquireSnapshot() (*search.Index, error) {
	if s == nil {
		return nil, ErrUnavailable
	}

	if err := s.ensureFresh(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.index == nil {
		return nil, ErrUnavailable
	}

	return s.index.Clone(), nil
}

// QueueUpdate schedules a relative path for incremental reindexing.
func (s *Service) QueueUpdate(rel string) {
	if s == nil {
		return
	}

	trimmed := strings.TrimSpace(rel)
	if trimmed == "" {
		return
	}

	normalized := filepath.ToSlash(trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.pending == nil {
		s.pending = make(map[string]struct{})
	}
	s.pending[normalized] = struct{}{}
}

// Stats returns instrumentation about the index lifecycle.
func (s *Service) Stats() Stats {
	if s == nil {
		return Stats{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{LastRebuild: s.lastRebuild, Pending: len(s.pending)}
	if s.index != nil {
		stats.Notes = len(s.index.MarkdownFiles())
	}
	return stats
}

// Close releases the service. Subsequent calls to AcquireSnapshot will return
// ErrClosed.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.index = nil
	s.pending = nil
	return nil
}

func (s *Service) ensureFresh() error {
	s.mu.RLock()
	closed := s.closed
	needsRebuild := s.index == nil
	if !needsRebuild && s.maxAge > 0 {
		needsRebuild = s.now().Sub(s.lastRebuild) > s.maxAge
	}
	hasPending := len(s.pending) > 0
	s.mu.RUnlock()

	if closed {
		return ErrClosed
	}

	if needsRebuild {
		if err := s.rebuild(); err != nil {
			return err
		}
	}

	if hasPending {
		if err := s.applyPending(); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) rebuild() error {
	start := s.now()
	paths, err := s.collectVaultFiles()
	if err != nil {
		return err
	}

	idx := search.NewIndex(s.vault, s.config)
	if err := idx.Build(paths); err != nil {
		return fmt.Errorf("build vault index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.index = idx
	s.lastRebuild = s.now()
	s.logger.Debug("rebuilt vault index",
		"vault", s.vault,
		"files", len(paths),
		"notes", len(idx.MarkdownFiles()),
		"took", s.lastRebuild.Sub(start),
	)
	return nil
}

func (s *Service) applyPending() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.index == nil {
		return ErrUnavailable
	}
	if len(s.pending) == 0 {
		return nil
	}

	idx := s.index
	pending := s.pending
	s.pending = make(map[string]struct{})

	rels := make([]string, 0, len(pending))
	for rel := range pending {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	for _, rel := range rels {
		abs := pathutil.FromVault(s.vault, rel)

		info, err := s.stat(abs)
		switch {
		case err == nil:
			if info.IsDir() {
				if err := s.removeTree(idx, rel); err != nil {
					return err
				}
				continue
			}
			if err := idx.Update(rel); err != nil {
				return fmt.Errorf("update %s: %w", rel, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			if err := s.removeTree(idx, rel); err != nil {
				return err
			}
		default:
			return fmt.Errorf("stat %s: %w", abs, err)
		}
	}

	s.logger.Debug("applied pending index updates", "count", len(rels))
	return nil
}

// removeTree drops rel and, when rel was a directory, every note below it.
func (s *Service) removeTree(idx *search.Index, rel string) error {
	if err := idx.Remove(rel); err != nil {
		return fmt.Errorf("remove %s: %w", rel, err)
	}
	prefix := strings.TrimSuffix(rel, "/") + "/"
	for _, note := range idx.MarkdownFiles() {
		if !strings.HasPrefix(note, prefix) {
			continue
		}
		if err := idx.Remove(note); err != nil {
			return fmt.Errorf("remove %s: %w", note, err)
		}
	}
	return nil
}

// collectVaultFiles lists every file of the vault outside hidden and ignored
// folders. Notes and attachments are both returned.
func (s *Service) collectVaultFiles() ([]string, error) {
	if s.vault == "" {
		return nil, errors.New("vault directory cannot be empty")
	}

	ignored := make(map[string]struct{}, len(s.config.IgnoredFolders))
	for _, dir := range s.config.IgnoredFolders {
		ignored[strings.ToLower(dir)] = struct{}{}
	}

	paths := make([]string, 0)
	err := filepath.WalkDir(s.vault, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := strings.ToLower(d.Name())
			if strings.HasPrefix(name, ".") && path != s.vault {
				return filepath.SkipDir
			}
			if _, skip := ignored[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
