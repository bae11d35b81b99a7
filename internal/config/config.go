package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/twohop/internal/constants"
)

// Viper keys of the settings that commands may override with flags.
const (
	KeyVaultDir               = "vaultdir"
	KeyEditor                 = "editor"
	KeyExcludeFrontLink       = "twohop.exclude_front_link"
	KeyExcludeBacklink        = "twohop.exclude_backlink"
	KeyExcludeTag             = "twohop.exclude_tag"
	KeyExcludesDuplicateLinks = "twohop.excludes_duplicate_links"
	KeyShowImage              = "twohop.show_image"
	KeyPreviewMaxBytes        = "twohop.preview_max_bytes"
	KeyPreviewWidth           = "twohop.preview_width"
	KeyStyle                  = "twohop.style"
	KeyDebounceMillis         = "twohop.debounce_ms"
)

type SearchConfig struct {
	IgnoredFolders []string `yaml:"ignored_folders" json:"ignored_folders"`
	// InlineTags is nil when unset so that the default (enabled) survives a
	// round trip through the config file.
	InlineTags *bool `yaml:"inline_tags,omitempty" json:"inline_tags,omitempty"`
}

// InlineTagsEnabled reports whether #tags in note bodies are indexed.
func (s SearchConfig) InlineTagsEnabled() bool {
	return s.InlineTags == nil || *s.InlineTags
}

// TwoHopConfig holds the link panel settings of a workspace.
type TwoHopConfig struct {
	ExcludeFrontLink       bool   `yaml:"exclude_front_link"       json:"exclude_front_link"`
	ExcludeBacklink        bool   `yaml:"exclude_backlink"         json:"exclude_backlink"`
	ExcludeTag             bool   `yaml:"exclude_tag"              json:"exclude_tag"`
	ExcludesDuplicateLinks bool   `yaml:"excludes_duplicate_links" json:"excludes_duplicate_links"`
	ShowImage              bool   `yaml:"show_image"               json:"show_image"`
	PreviewMaxBytes        int64  `yaml:"preview_max_bytes"        json:"preview_max_bytes"`
	PreviewWidth           int    `yaml:"preview_width"            json:"preview_width"`
	Style                  string `yaml:"style"                    json:"style"`
	DebounceMillis         int    `yaml:"debounce_ms"              json:"debounce_ms"`
}

type Workspace struct {
	VaultDir string       `yaml:"vaultdir" json:"vault_dir"`
	Editor   string       `yaml:"editor"   json:"editor"`
	Search   SearchConfig `yaml:"search"   json:"search"`
	TwoHop   TwoHopConfig `yaml:"twohop"   json:"twohop"`
}

type Config struct {
	Workspaces       map[string]*Workspace `yaml:"workspaces"        json:"workspaces"`
	CurrentWorkspace string                `yaml:"current_workspace" json:"current_workspace"`

	active *Workspace `yaml:"-"`
	home   string     `yaml:"-"`
}

const defaultWorkspaceName = "default"

// NewWorkspace returns a workspace for vaultDir with default settings.
func NewWorkspace(vaultDir string) *Workspace {
	ws := &Workspace{VaultDir: vaultDir}
	ws.ensureDefaults()
	return ws
}

func (ws *Workspace) ensureDefaults() {
	ws.VaultDir = strings.TrimSpace(ws.VaultDir)
	ws.Editor = strings.TrimSpace(ws.Editor)
	if ws.TwoHop.PreviewMaxBytes <= 0 {
		ws.TwoHop.PreviewMaxBytes = constants.DefaultPreviewMaxBytes
	}
	if ws.TwoHop.PreviewWidth <= 0 {
		ws.TwoHop.PreviewWidth = constants.DefaultPreviewWidth
	}
	if strings.TrimSpace(ws.TwoHop.Style) == "" {
		ws.TwoHop.Style = constants.DefaultStyle
	}
	if ws.TwoHop.DebounceMillis <= 0 {
		ws.TwoHop.DebounceMillis = constants.DefaultDebounceMillis
	}
}

// Load reads the config file below home. An empty file yields a single
// default workspace without a vault.
func Load(home string) (*Config, error) {
	path := GetConfigPath(home)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{home: home}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.ensureInitialized(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) ensureInitialized() error {
	if cfg.Workspaces == nil {
		cfg.Workspaces = make(map[string]*Workspace)
	}

	if cfg.CurrentWorkspace == "" {
		if len(cfg.Workspaces) == 0 {
			cfg.Workspaces[defaultWorkspaceName] = NewWorkspace("")
			cfg.CurrentWorkspace = defaultWorkspaceName
		} else {
			cfg.CurrentWorkspace = cfg.WorkspaceNames()[0]
		}
	}

	return cfg.setActiveWorkspace(cfg.CurrentWorkspace)
}

func (cfg *Config) setActiveWorkspace(name string) error {
	if name == "" {
		return fmt.Errorf("workspace name cannot be empty")
	}
	ws, ok := cfg.Workspaces[name]
	if !ok {
		return fmt.Errorf("workspace %q does not exist", name)
	}
	if ws == nil {
		ws = NewWorkspace("")
		cfg.Workspaces[name] = ws
	}

	ws.ensureDefaults()
	cfg.CurrentWorkspace = name
	cfg.active = ws

	syncWorkspaceWithViper(ws)
	return nil
}

// syncWorkspaceWithViper publishes the workspace settings as viper defaults.
// Flags bound with viper.BindPFlag take precedence over defaults, so a flag
// given on the command line overrides the file for that invocation.
func syncWorkspaceWithViper(ws *Workspace) {
	viper.SetDefault(KeyVaultDir, ws.VaultDir)
	viper.SetDefault(KeyEditor, ws.Editor)
	viper.SetDefault(KeyExcludeFrontLink, ws.TwoHop.ExcludeFrontLink)
	viper.SetDefault(KeyExcludeBacklink, ws.TwoHop.ExcludeBacklink)
	viper.SetDefault(KeyExcludeTag, ws.TwoHop.ExcludeTag)
	viper.SetDefault(KeyExcludesDuplicateLinks, ws.TwoHop.ExcludesDuplicateLinks)
	viper.SetDefault(KeyShowImage, ws.TwoHop.ShowImage)
	viper.SetDefault(KeyPreviewMaxBytes, ws.TwoHop.PreviewMaxBytes)
	viper.SetDefault(KeyPreviewWidth, ws.TwoHop.PreviewWidth)
	viper.SetDefault(KeyStyle, ws.TwoHop.Style)
	viper.SetDefault(KeyDebounceMillis, ws.TwoHop.DebounceMillis)
}

func (cfg *Config) ActiveWorkspace() (*Workspace, error) {
	if cfg.active != nil {
		return cfg.active, nil
	}

	if cfg.CurrentWorkspace == "" {
		return nil, fmt.Errorf("no workspace is currently selected")
	}

	if err := cfg.setActiveWorkspace(cfg.CurrentWorkspace); err != nil {
		return nil, err
	}

	return cfg.active, nil
}

func (cfg *Config) WorkspaceNames() []string {
	names := make([]string, 0, len(cfg.Workspaces))
	for name := range cfg.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SwitchWorkspace makes name the current workspace and persists the choice.
func (cfg *Config) SwitchWorkspace(name string) error {
	if err := cfg.setActiveWorkspace(name); err != nil {
		return err
	}
	return cfg.Save()
}

// ActivateWorkspace selects name for this process only.
func (cfg *Config) ActivateWorkspace(name string) error {
	return cfg.setActiveWorkspace(name)
}

func (cfg *Config) AddWorkspace(name string, ws *Workspace, makeCurrent bool) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("workspace name cannot be empty")
	}

	if cfg.Workspaces == nil {
		cfg.Workspaces = make(map[string]*Workspace)
	}

	if existing, exists := cfg.Workspaces[trimmed]; exists && existing != nil && existing.VaultDir != "" {
		return fmt.Errorf("workspace %q already exists", trimmed)
	}

	if ws == nil {
		ws = NewWorkspace("")
	}
	ws.ensureDefaults()
	cfg.Workspaces[trimmed] = ws

	if cfg.CurrentWorkspace == "" || cfg.CurrentWorkspace == trimmed || makeCurrent {
		if err := cfg.setActiveWorkspace(trimmed); err != nil {
			return err
		}
	}

	return cfg.Save()
}

func (cfg *Config) RemoveWorkspace(name string) error {
	if len(cfg.Workspaces) <= 1 {
		return fmt.Errorf("cannot remove the last workspace")
	}

	if _, exists := cfg.Workspaces[name]; !exists {
		return fmt.Errorf("workspace %q does not exist", name)
	}

	delete(cfg.Workspaces, name)

	if cfg.CurrentWorkspace == name {
		cfg.active = nil
		cfg.CurrentWorkspace = ""
		if err := cfg.ensureInitialized(); err != nil {
			return err
		}
	}

	return cfg.Save()
}

// Path returns the location the config is saved to.
func (cfg *Config) Path() string {
	home := cfg.home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return GetConfigPath(home)
}

func (cfg *Config) Save() error {
	if _, err := cfg.ActiveWorkspace(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	configPath := cfg.Path()
	if configPath == "" {
		return fmt.Errorf("cannot determine config location")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}
