package open

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/erikgeiser/promptkit/confirmation"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/twohop/internal/editor"
	"github.com/Paintersrp/twohop/internal/state"
	cmdutil "github.com/Paintersrp/twohop/pkg/cmd"
	"github.com/Paintersrp/twohop/pkg/shared/arg"
)

var (
	confirm = func(prompt string) (bool, error) {
		return confirmation.New(prompt, confirmation.No).RunPrompt()
	}
	launch = editor.Open
)

func NewCmdOpen(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "open <link>",
		Aliases: []string{"o"},
		Short:   "Resolve a link and print the note it points to.",
		Long: heredoc.Doc(`
			Resolve a link the way a note would, optionally relative to the note
			given with --from, and print the path of the target. When the target
			does not exist yet you are asked whether to create it.
		`),
		Example: heredoc.Doc(`
			twohop open "Project Plan"
			twohop open ../ideas/Next --from inbox/today.md --edit
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, s)
		},
	}

	cmd.Flags().String("from", "", "Note the link is written in")
	cmd.Flags().BoolP("yes", "y", false, "Create missing notes without asking")
	cmd.Flags().BoolP("edit", "e", false, "Open the note in the configured editor")

	return cmd
}

func run(cmd *cobra.Command, args []string, s *state.State) error {
	if s == nil || s.Index == nil {
		return fmt.Errorf("vault index is not available")
	}

	link, err := arg.HandleLink(args)
	if err != nil {
		return err
	}

	snapshot, err := s.Index.AcquireSnapshot()
	if err != nil {
		return err
	}

	source := ""
	if from, _ := cmd.Flags().GetString("from"); strings.TrimSpace(from) != "" {
		if source, err = cmdutil.ResolveNote(snapshot, from); err != nil {
			return err
		}
	}

	yes, _ := cmd.Flags().GetBool("yes")
	edit, _ := cmd.Flags().GetBool("edit")
	return cmdutil.FollowLink(cmd, s, snapshot, link, source, cmdutil.FollowOptions{
		Yes:     yes,
		Edit:    edit,
		Confirm: confirm,
		Launch:  launch,
	})
}
