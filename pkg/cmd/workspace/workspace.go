package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/twohop/internal/config"
	"github.com/Paintersrp/twohop/internal/state"
)

// SkipVaultCheck marks commands that work without a usable vault.
const SkipVaultCheck = "twohop/skip-vault-check"

func NewCmdWorkspace(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
		Long: heredoc.Doc(`
			A workspace names a vault together with its search and panel settings.
			The current workspace is used unless --workspace selects another one.
		`),
		Annotations: map[string]string{SkipVaultCheck: "true"},
	}

	cmd.AddCommand(
		newCmdWorkspaceList(s),
		newCmdWorkspaceUse(s),
		newCmdWorkspaceAdd(s),
		newCmdWorkspaceRemove(s),
	)

	return cmd
}

func newCmdWorkspaceList(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List configured workspaces",
		Annotations: map[string]string{SkipVaultCheck: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireConfig(s); err != nil {
				return err
			}
			names := s.Config.WorkspaceNames()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workspaces configured")
				return nil
			}

			for _, name := range names {
				marker := " "
				if name == s.Config.CurrentWorkspace {
					marker = "*"
				}
				vault := s.Config.Workspaces[name].VaultDir
				if vault == "" {
					vault = "(no vault)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", marker, name, vault)
			}

			return nil
		},
	}
}

func newCmdWorkspaceUse(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:         "use [name]",
		Aliases:     []string{"switch"},
		Short:       "Switch the active workspace",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{SkipVaultCheck: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(s); err != nil {
				return err
			}
			target := strings.TrimSpace(args[0])
			if target == "" {
				return fmt.Errorf("workspace name cannot be empty")
			}

			if err := s.Config.SwitchWorkspace(target); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Switched to workspace %q\n", target)
			return nil
		},
	}
}

func newCmdWorkspaceAdd(s *state.State) *cobra.Command {
	var name string
	var vault string
	var makeCurrent bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new workspace",
		Example: heredoc.Doc(`
			twohop workspace add --name notes --vault ~/Documents/notes --current
		`),
		Annotations: map[string]string{SkipVaultCheck: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireConfig(s); err != nil {
				return err
			}
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("workspace name is required")
			}

			dir, err := vaultDir(vault)
			if err != nil {
				return err
			}

			ws := cloneWorkspaceSettings(s.Workspace)
			ws.VaultDir = dir

			if err := s.Config.AddWorkspace(name, ws, makeCurrent); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added workspace %q\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the new workspace")
	cmd.Flags().StringVar(&vault, "vault", "", "Path to the workspace vault")
	cmd.Flags().BoolVar(&makeCurrent, "current", false, "Switch to the new workspace after creation")

	return cmd
}

func newCmdWorkspaceRemove(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:         "remove [name]",
		Aliases:     []string{"rm"},
		Short:       "Remove an existing workspace",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{SkipVaultCheck: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(s); err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("workspace name cannot be empty")
			}

			if err := s.Config.RemoveWorkspace(name); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed workspace %q\n", name)
			return nil
		},
	}
}

func requireConfig(s *state.State) error {
	if s == nil || s.Config == nil {
		return fmt.Errorf("configuration is not loaded")
	}
	return nil
}

// vaultDir expands and checks the --vault argument.
func vaultDir(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("vault path is required")
	}

	if raw == "~" || strings.HasPrefix(raw, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("vault directory %q is not accessible: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("vault directory %q is not a directory", abs)
	}
	return abs, nil
}

// cloneWorkspaceSettings copies src so that a new workspace starts from the
// settings of the active one.
func cloneWorkspaceSettings(src *config.Workspace) *config.Workspace {
	if src == nil {
		return config.NewWorkspace("")
	}

	clone := &config.Workspace{
		Editor: src.Editor,
		Search: config.SearchConfig{
			IgnoredFolders: append([]string(nil), src.Search.IgnoredFolders...),
		},
		TwoHop: src.TwoHop,
	}
	if src.Search.InlineTags != nil {
		inline := *src.Search.InlineTags
		clone.Search.InlineTags = &inline
	}
	return clone
}
