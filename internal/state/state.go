package state

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/Paintersrp/twohop/internal/cache"
	"github.com/Paintersrp/twohop/internal/config"
	"github.com/Paintersrp/twohop/internal/constants"
	"github.com/Paintersrp/twohop/internal/links"
	"github.com/Paintersrp/twohop/internal/logging"
	"github.com/Paintersrp/twohop/internal/preview"
	"github.com/Paintersrp/twohop/internal/search"
	indexsvc "github.com/Paintersrp/twohop/internal/services/index"
)

type State struct {
	Config        *config.Config
	Workspace     *config.Workspace
	WorkspaceName string
	Home          string
	Vault         string
	Logger        *log.Logger
	Index         IndexService
	Watcher       *VaultWatcher

	previews *cache.LRU[string, string]
}

const previewCacheSize = 4096

// IndexService exposes the vault index snapshots shared by commands and the
// watcher.
type IndexService interface {
	AcquireSnapshot() (*search.Index, error)
	QueueUpdate(string)
	Stats() indexsvc.Stats
	Close() error
}

// Options configures NewState.
type Options struct {
	Workspace string
	Verbose   bool
}

// NewState loads the configuration and prepares the index service for the
// active workspace.
func NewState(opts Options) (*State, error) {
	s := &State{}
	if err := s.Init(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Init populates s. When the active workspace has no usable vault, Init
// returns a *config.ConfigInitError with Config, Home and Logger already set,
// so commands that only manage configuration can proceed.
func (s *State) Init(opts Options) error {
	home, err := GetHomeDir()
	if err != nil {
		return err
	}
	s.Home = home
	s.Logger = logging.New(logging.Options{Verbose: opts.Verbose})

	cfg, err := LoadConfig(home)
	if err != nil {
		return err
	}
	s.Config = cfg

	if opts.Workspace != "" {
		if err := cfg.ActivateWorkspace(opts.Workspace); err != nil {
			return err
		}
	}
	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return err
	}
	s.Workspace = ws
	s.WorkspaceName = cfg.CurrentWorkspace

	if err := cfg.Validate(); err != nil {
		return err
	}

	searchCfg := search.Config{
		IgnoredFolders: append([]string(nil), ws.Search.IgnoredFolders...),
		InlineTags:     ws.Search.InlineTagsEnabled(),
	}

	s.Vault = ws.VaultDir
	s.Index = indexsvc.NewService(ws.VaultDir, searchCfg, indexsvc.WithLogger(s.Logger))

	s.Logger.Debug("loaded workspace", "workspace", cfg.CurrentWorkspace, "vault", ws.VaultDir)
	return nil
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory. err: %s", err)
	}

	return home, nil
}

// LoadConfig reads the config file into viper and the typed config. Missing
// files are created empty.
func LoadConfig(home string) (*config.Config, error) {
	viper.AddConfigPath(home + constants.ConfigDir)
	viper.SetConfigName(constants.ConfigFile)
	viper.SetConfigType(constants.ConfigFileType)

	if err := config.EnsureConfigExists(home); err != nil {
		var initErr *config.ConfigInitError
		if !errors.As(err, &initErr) {
			return nil, err
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return config.Load(home)
}

// LinkOptions returns the aggregation toggles in effect, flags included.
func (s *State) LinkOptions() links.Options {
	return links.Options{
		ExcludeFrontLink:       viper.GetBool(config.KeyExcludeFrontLink),
		ExcludeBacklink:        viper.GetBool(config.KeyExcludeBacklink),
		ExcludeTag:             viper.GetBool(config.KeyExcludeTag),
		ExcludesDuplicateLinks: viper.GetBool(config.KeyExcludesDuplicateLinks),
	}
}

// PreviewOptions returns the preview settings in effect, flags included.
func (s *State) PreviewOptions() preview.Options {
	return preview.Options{
		MaxBytes:  viper.GetInt64(config.KeyPreviewMaxBytes),
		ShowImage: viper.GetBool(config.KeyShowImage),
		Width:     viper.GetInt(config.KeyPreviewWidth),
	}
}

// PreviewCache returns the preview cache shared by every render of this
// process.
func (s *State) PreviewCache() *cache.LRU[string, string] {
	if s.previews == nil {
		s.previews = cache.NewLRU[string, string](previewCacheSize)
	}
	return s.previews
}

// Watch creates the vault watcher on first use and wires it to the index
// service so that every change is queued for reindexing.
func (s *State) Watch() (*VaultWatcher, error) {
	if s == nil {
		return nil, errors.New("state is nil")
	}
	if s.Watcher != nil {
		return s.Watcher, nil
	}

	var ignored []string
	if s.Workspace != nil {
		ignored = s.Workspace.Search.IgnoredFolders
	}
	debounce := time.Duration(viper.GetInt(config.KeyDebounceMillis)) * time.Millisecond

	watcher, err := NewVaultWatcher(
		s.Vault,
		WithDebounce(debounce),
		WithIgnoredFolders(ignored),
		WithWatcherLogger(s.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault watcher: %w", err)
	}

	index := s.Index
	watcher.OnChange(func(rel string) {
		if index != nil {
			index.QueueUpdate(rel)
		}
	})

	s.Watcher = watcher
	return watcher, nil
}

// Close releases resources associated with the state, including the vault
// watcher and shared index service.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.Watcher != nil {
		if err := s.Watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Watcher = nil
	}
	if s.Index != nil {
		if err := s.Index.Close(); err != nil && !errors.Is(err, indexsvc.ErrClosed) {
			errs = append(errs, err)
		}
		s.Index = nil
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
