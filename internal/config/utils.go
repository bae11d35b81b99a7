package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Paintersrp/twohop/internal/constants"
)

func GetConfigPath(homeDir string) string {
	return filepath.Join(
		homeDir,
		constants.ConfigDir,
		constants.ConfigFile+"."+constants.ConfigFileType,
	)
}

// EnsureConfigExists creates an empty config file when none exists yet, then
// checks that the active workspace points at a vault directory.
func EnsureConfigExists(homeDir string) error {
	configPath := GetConfigPath(homeDir)
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		file, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		file.Close()
	} else if err != nil {
		return fmt.Errorf("failed to check config file existence: %w", err)
	}

	cfg, err := Load(homeDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return cfg.Validate()
}

// Validate reports a ConfigInitError when the active workspace cannot be
// used.
func (cfg *Config) Validate() error {
	if cfg.CurrentWorkspace == "" {
		return &ConfigInitError{msg: "no current workspace is configured"}
	}

	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return err
	}

	if strings.TrimSpace(ws.VaultDir) == "" {
		return &ConfigInitError{
			msg: fmt.Sprintf("workspace %q has no vault directory; run `twohop workspace add`", cfg.CurrentWorkspace),
		}
	}

	info, err := os.Stat(ws.VaultDir)
	if err != nil {
		return &ConfigInitError{msg: fmt.Sprintf("vault directory %q is not accessible: %v", ws.VaultDir, err)}
	}
	if !info.IsDir() {
		return &ConfigInitError{msg: fmt.Sprintf("vault directory %q is not a directory", ws.VaultDir)}
	}

	return nil
}
