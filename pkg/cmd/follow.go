package cmd

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Paintersrp/twohop/internal/config"
	"github.com/Paintersrp/twohop/internal/editor"
	"github.com/Paintersrp/twohop/internal/links"
	"github.com/Paintersrp/twohop/internal/pathutil"
	"github.com/Paintersrp/twohop/internal/search"
	"github.com/Paintersrp/twohop/internal/state"
)

// FollowOptions controls how FollowLink treats missing targets and editors.
type FollowOptions struct {
	// Yes creates missing notes without asking.
	Yes bool
	// Edit opens the target in the configured editor.
	Edit    bool
	Confirm func(prompt string) (bool, error)
	Launch  func(editor, vault, abs string) error
}

// FollowLink resolves link as written in the note source, creating the target
// after confirmation when it does not exist, and prints its absolute path.
func FollowLink(
	cmd *cobra.Command,
	s *state.State,
	snapshot *search.Index,
	link, source string,
	opts FollowOptions,
) error {
	rel := LinkTarget(snapshot, link, source)
	if rel == "" {
		var err error
		rel, err = NewNotePath(link, source)
		if err != nil {
			return err
		}

		if !opts.Yes {
			ok, err := opts.Confirm(fmt.Sprintf("Create new file: %s?", rel))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "Note not created")
				return nil
			}
		}

		if err := editor.CreateNote(snapshot.Abs(rel)); err != nil {
			return err
		}
		s.Index.QueueUpdate(rel)
		s.Logger.Info("created note", "path", rel)
	}

	abs := snapshot.Abs(rel)
	fmt.Fprintln(cmd.OutOrStdout(), abs)

	if opts.Edit {
		return opts.Launch(viper.GetString(config.KeyEditor), snapshot.Root(), abs)
	}
	return nil
}

// LinkTarget returns the vault-relative path link resolves to, or "" when it
// resolves to nothing.
func LinkTarget(snapshot *search.Index, link, source string) string {
	if res := snapshot.ResolveLink(link, source); res.Exists() {
		return res.Path
	}
	return ""
}

// NewNotePath places a missing link target. Bare names and links starting
// with "./" or "../" are placed relative to the source note, other links with
// a folder relative to the vault.
func NewNotePath(link, source string) (string, error) {
	name := links.Normalize(link)
	if i := strings.IndexAny(name, "#|"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	relative := strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../")
	name = strings.Trim(name, "/")
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("link %q does not name a note", link)
	}
	if path.Ext(name) == "" {
		name += ".md"
	}

	rel := name
	if source != "" && (relative || !strings.Contains(name, "/")) {
		rel = path.Join(path.Dir(source), name)
	}

	rel = pathutil.VaultRelative(".", rel)
	if rel == "" {
		return "", fmt.Errorf("link %q points outside the vault", link)
	}
	return rel, nil
}
