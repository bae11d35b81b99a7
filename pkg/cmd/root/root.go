package root

import (
	"errors"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/twohop/internal/config"
	"github.com/Paintersrp/twohop/internal/constants"
	"github.com/Paintersrp/twohop/internal/state"
	"github.com/Paintersrp/twohop/pkg/cmd/open"
	"github.com/Paintersrp/twohop/pkg/cmd/show"
	"github.com/Paintersrp/twohop/pkg/cmd/watch"
	"github.com/Paintersrp/twohop/pkg/cmd/workspace"
)

// NewCmdRoot builds the command tree. The state is populated before any
// subcommand runs, from the config file and the global flags.
func NewCmdRoot(s *state.State) (*cobra.Command, error) {
	var opts state.Options

	cmd := &cobra.Command{
		Use:     "twohop",
		Short:   "Explore the links around a note in a markdown vault.",
		Version: constants.Version,
		Long: heredoc.Doc(`
			twohop indexes a markdown vault and shows, for one note, its links, the
			notes that link back to it, the notes one more link away and the notes
			sharing its tags.

			  twohop workspace add --name notes --vault ~/notes
			  twohop show "Project Plan"
		`),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initState(cmd, s, opts)
		},
	}
	cmd.SetUsageTemplate(constants.Help)

	cmd.PersistentFlags().
		StringVarP(&opts.Workspace, "workspace", "w", "", "Workspace to use for this command")
	cmd.PersistentFlags().
		BoolVar(&opts.Verbose, "verbose", false, "Log debug output to stderr")

	cmd.AddCommand(
		show.NewCmdShow(s),
		watch.NewCmdWatch(s),
		open.NewCmdOpen(s),
		workspace.NewCmdWorkspace(s),
	)

	return cmd, nil
}

func initState(cmd *cobra.Command, s *state.State, opts state.Options) error {
	if s.Config != nil {
		return nil
	}

	err := s.Init(opts)
	var initErr *config.ConfigInitError
	if errors.As(err, &initErr) && skipsVaultCheck(cmd) {
		return nil
	}
	return err
}

func skipsVaultCheck(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd:
			return true
		}
		if c.Annotations[workspace.SkipVaultCheck] == "true" {
			return true
		}
	}
	return false
}
