package show

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/atotto/clipboard"
	"github.com/erikgeiser/promptkit/confirmation"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/twohop/internal/editor"
	"github.com/Paintersrp/twohop/internal/fzf"
	"github.com/Paintersrp/twohop/internal/links"
	"github.com/Paintersrp/twohop/internal/panel"
	"github.com/Paintersrp/twohop/internal/search"
	"github.com/Paintersrp/twohop/internal/state"
	"github.com/Paintersrp/twohop/internal/tui/follow"
	cmdutil "github.com/Paintersrp/twohop/pkg/cmd"
	"github.com/Paintersrp/twohop/pkg/shared/arg"
	"github.com/Paintersrp/twohop/pkg/shared/flags"
)

var (
	writeClipboard = clipboard.WriteAll
	pickNote       = func(idx *search.Index) (string, error) {
		return fzf.NewFuzzyFinder(idx, "Select a note.").Run("")
	}
	pickLink = func(p panel.Panel) (links.LinkRef, error) {
		return follow.Run(p)
	}
	confirm = func(prompt string) (bool, error) {
		return confirmation.New(prompt, confirmation.No).RunPrompt()
	}
	launch = editor.Open
)

func NewCmdShow(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show [note]",
		Aliases: []string{"s"},
		Short:   "Show the notes related to a note.",
		Long: heredoc.Doc(`
			Show the links of a note, grouped the way an Obsidian two-hop panel
			groups them: links to existing notes, links to notes that do not exist
			yet, back links, notes reached through a shared link, and notes sharing
			a tag.

			The note may be given as a path inside the vault or as link text. Without
			an argument a fuzzy finder lists the notes of the vault.

			With --follow the links of the panel are listed afterwards; the chosen
			one is opened like "twohop open" would, asking before a missing note is
			created.
		`),
		Example: heredoc.Doc(`
			twohop show "Project Plan"
			twohop show inbox/idea.md --json
			twohop show --exclude-tag --excludes-duplicate-links
			twohop show "Project Plan" --follow --edit
		`),
		Args: cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.BindLinks(cmd); err != nil {
				return err
			}
			return flags.BindPreview(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, s)
		},
	}

	flags.AddLinks(cmd)
	flags.AddPreview(cmd)
	flags.AddJSON(cmd)
	cmd.Flags().Bool("copy", false, "Copy the panel as markdown to the clipboard")
	cmd.Flags().BoolP("follow", "f", false, "Pick a link of the panel and open it")
	cmd.Flags().BoolP("edit", "e", false, "Open the followed link in the configured editor")

	return cmd
}

func run(cmd *cobra.Command, args []string, s *state.State) error {
	if s == nil || s.Index == nil {
		return fmt.Errorf("vault index is not available")
	}

	snapshot, err := s.Index.AcquireSnapshot()
	if err != nil {
		return err
	}

	rel, err := selectNote(snapshot, arg.HandleNote(args))
	if err != nil {
		if errors.Is(err, fzf.ErrNoSelection) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No note selected")
			return nil
		}
		return err
	}

	p, err := cmdutil.BuildPanel(cmd.Context(), s, snapshot, rel)
	if err != nil {
		return err
	}

	asJSON, err := flags.HandleJSON(cmd)
	if err != nil {
		return err
	}
	if err := cmdutil.WritePanel(cmd.OutOrStdout(), p, asJSON); err != nil {
		return err
	}

	if copyFlag, _ := cmd.Flags().GetBool("copy"); copyFlag {
		if err := writeClipboard(p.Markdown()); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		s.Logger.Info("copied panel to clipboard", "note", rel)
	}

	if followFlag, _ := cmd.Flags().GetBool("follow"); followFlag {
		return followPanel(cmd, s, snapshot, p)
	}
	return nil
}

func followPanel(cmd *cobra.Command, s *state.State, snapshot *search.Index, p panel.Panel) error {
	ref, err := pickLink(p)
	if err != nil {
		if errors.Is(err, follow.ErrNoSelection) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No link selected")
			return nil
		}
		return err
	}

	edit, _ := cmd.Flags().GetBool("edit")
	return cmdutil.FollowLink(cmd, s, snapshot, ref.Target(), ref.SourcePath, cmdutil.FollowOptions{
		Edit:    edit,
		Confirm: confirm,
		Launch:  launch,
	})
}

func selectNote(snapshot *search.Index, query string) (string, error) {
	if query == "" {
		return pickNote(snapshot)
	}
	return cmdutil.ResolveNote(snapshot, query)
}
