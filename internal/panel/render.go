package panel

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// RenderOptions controls terminal output.
type RenderOptions struct {
	// Style is a glamour style name ("dark", "light", "dracula", "notty"),
	// a path to a JSON style file, or "auto".
	Style string
	// Width wraps the rendered document. Zero keeps glamour's default.
	Width int
	// Color enables ANSI colors. It should be false when output is not a
	// terminal.
	Color bool
}

// Summary returns a one-line header naming the focal note and the size of
// each category.
func (p Panel) Summary(opts RenderOptions) string {
	r := lipgloss.NewRenderer(io.Discard)
	if opts.Color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	c := p.Counts()
	parts := []string{
		fmt.Sprintf("%d links", c.Links),
		fmt.Sprintf("%d new", c.New),
		fmt.Sprintf("%d back", c.Back),
		fmt.Sprintf("%d two-hop", c.TwoHop),
		fmt.Sprintf("%d via backlinks", c.Backlink),
		fmt.Sprintf("%d tagged", c.Tags),
	}
	focal := r.NewStyle().
		Foreground(lipgloss.Color("#0AF")).
		Bold(true).
		Padding(0, 1)
	counts := r.NewStyle().Foreground(lipgloss.Color("#888"))

	return focal.Render(displayName(p.Focal)) + counts.Render(strings.Join(parts, " · "))
}

// Render writes the summary line and the styled markdown document to w.
func (p Panel) Render(w io.Writer, opts RenderOptions) error {
	renderer, err := newTermRenderer(opts)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := renderer.Render(p.Markdown())
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	if _, err := fmt.Fprintln(w, p.Summary(opts)); err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// WriteJSON encodes the panel, previews included, as indented JSON.
func (p Panel) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func newTermRenderer(opts RenderOptions) (*glamour.TermRenderer, error) {
	style := strings.TrimSpace(opts.Style)
	options := []glamour.TermRendererOption{
		glamour.WithEmoji(),
	}

	switch {
	case !opts.Color:
		options = append(options, glamour.WithStandardStyle("notty"), glamour.WithColorProfile(termenv.Ascii))
	case style == "" || style == "auto":
		options = append(options, glamour.WithAutoStyle(), glamour.WithColorProfile(termenv.ANSI256))
	default:
		options = append(options, glamour.WithStylePath(style), glamour.WithColorProfile(termenv.ANSI256))
	}

	if opts.Width > 0 {
		options = append(options, glamour.WithWordWrap(opts.Width))
	}
	return glamour.NewTermRenderer(options...)
}
