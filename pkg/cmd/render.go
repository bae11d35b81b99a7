package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Paintersrp/twohop/internal/config"
	"github.com/Paintersrp/twohop/internal/links"
	"github.com/Paintersrp/twohop/internal/panel"
	"github.com/Paintersrp/twohop/internal/preview"
	"github.com/Paintersrp/twohop/internal/search"
	"github.com/Paintersrp/twohop/internal/state"
)

// BuildPanel aggregates the links of the note rel in snapshot and reads the
// previews of every linked file, resolved against the same snapshot.
func BuildPanel(ctx context.Context, s *state.State, snapshot *search.Index, rel string) (panel.Panel, error) {
	if s == nil {
		return panel.Panel{}, fmt.Errorf("vault index is not available")
	}

	if snapshot == nil {
		return panel.Panel{}, fmt.Errorf("vault snapshot is not available")
	}

	result := links.NewAggregator(snapshot, s.Logger).Aggregate(rel, s.LinkOptions())

	reader := preview.NewReader(os.DirFS(snapshot.Root()), snapshot, s.PreviewOptions(), s.Logger).
		UseCache(s.PreviewCache())
	previews, err := reader.Previews(ctx, result.Refs())
	if err != nil {
		return panel.Panel{}, err
	}

	return panel.New(result, previews), nil
}

// WritePanel writes p to w as JSON or as rendered markdown. Colors and word
// wrap follow the terminal when w is one.
func WritePanel(w io.Writer, p panel.Panel, asJSON bool) error {
	if asJSON {
		return p.WriteJSON(w)
	}
	return p.Render(w, RenderOptionsFor(w))
}

// RenderOptionsFor derives the render settings for output written to w.
func RenderOptionsFor(w io.Writer) panel.RenderOptions {
	opts := panel.RenderOptions{Style: viper.GetString(config.KeyStyle)}

	if !IsTerminal(w) {
		return opts
	}

	opts.Color = true
	if width, _, err := term.GetSize(int(w.(*os.File).Fd())); err == nil && width > 0 {
		opts.Width = width
	}
	return opts
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
