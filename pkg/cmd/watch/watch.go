package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/twohop/internal/panel"
	"github.com/Paintersrp/twohop/internal/state"
	cmdutil "github.com/Paintersrp/twohop/pkg/cmd"
	"github.com/Paintersrp/twohop/pkg/shared/arg"
	"github.com/Paintersrp/twohop/pkg/shared/flags"
)

func NewCmdWatch(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch <note>",
		Aliases: []string{"w"},
		Short:   "Keep the panel of a note up to date while the vault changes.",
		Long: heredoc.Doc(`
			Render the panel of a note, then render it again every time a file in
			the vault changes, until interrupted.
		`),
		Example: heredoc.Doc(`
			twohop watch "Project Plan"
			twohop watch inbox/idea.md --excludes-duplicate-links
		`),
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.BindLinks(cmd); err != nil {
				return err
			}
			return flags.BindPreview(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, args, s)
		},
	}

	flags.AddLinks(cmd)
	flags.AddPreview(cmd)
	flags.AddJSON(cmd)

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, args []string, s *state.State) error {
	if s == nil || s.Index == nil {
		return fmt.Errorf("vault index is not available")
	}

	snapshot, err := s.Index.AcquireSnapshot()
	if err != nil {
		return err
	}
	rel, err := cmdutil.ResolveNote(snapshot, arg.HandleNote(args))
	if err != nil {
		return err
	}

	asJSON, err := flags.HandleJSON(cmd)
	if err != nil {
		return err
	}

	watcher, err := s.Watch()
	if err != nil {
		return err
	}

	changes := make(chan []string, 1)
	watcher.OnBatch(func(rels []string) {
		select {
		case changes <- rels:
		default:
		}
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Run(ctx)
	}()

	out := cmd.OutOrStdout()
	build := func(ctx context.Context) (panel.Panel, error) {
		return buildPanel(ctx, s, rel)
	}

	p, err := build(ctx)
	if err != nil {
		return err
	}
	if err := writeFrame(out, s, p, asJSON); err != nil {
		return err
	}

	refresh := newRefresher(ctx, build)
	defer refresh.stop()

	for {
		select {
		case <-ctx.Done():
			<-errCh
			return nil
		case err := <-errCh:
			return err
		case batch := <-changes:
			s.Logger.Debug("vault changed", "files", len(batch), "note", rel)
			refresh.trigger()
		case f := <-refresh.frames:
			if !refresh.current(f) {
				continue
			}
			if f.err != nil {
				if !errors.Is(f.err, context.Canceled) {
					s.Logger.Error("failed to refresh panel", "note", rel, "err", f.err)
				}
				continue
			}
			if err := writeFrame(out, s, f.panel, asJSON); err != nil {
				s.Logger.Error("failed to write panel", "note", rel, "err", err)
			}
		}
	}
}

func buildPanel(ctx context.Context, s *state.State, rel string) (panel.Panel, error) {
	snapshot, err := s.Index.AcquireSnapshot()
	if err != nil {
		return panel.Panel{}, err
	}
	if _, ok := snapshot.FileCache(rel); !ok {
		s.Logger.Warn("note is no longer in the vault", "note", rel)
	}
	return cmdutil.BuildPanel(ctx, s, snapshot, rel)
}

func writeFrame(w io.Writer, s *state.State, p panel.Panel, asJSON bool) error {
	if !asJSON && cmdutil.IsTerminal(w) {
		output := termenv.NewOutput(w)
		output.ClearScreen()
	} else if !asJSON {
		fmt.Fprintf(w, "\n--- %s ---\n", time.Now().Format("15:04:05"))
	}
	if err := cmdutil.WritePanel(w, p, asJSON); err != nil {
		return err
	}
	if !asJSON {
		fmt.Fprintln(w, s.IndexStatus())
	}
	return nil
}
