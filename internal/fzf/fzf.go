// Package fzf lets the user pick a focal note with a fuzzy finder.
package fzf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/muesli/termenv"

	"github.com/Paintersrp/twohop/internal/links"
	"github.com/Paintersrp/twohop/internal/search"
)

// ErrNoSelection is returned when the finder is closed without a choice.
var ErrNoSelection = errors.New("no note selected")

// FuzzyFinder lists the notes of an index snapshot.
type FuzzyFinder struct {
	index  *search.Index
	Header string
	files  []string
	labels []string
}

func NewFuzzyFinder(idx *search.Index, header string) *FuzzyFinder {
	f := &FuzzyFinder{index: idx, Header: header}
	if idx != nil {
		f.files = idx.MarkdownFiles()
	}
	f.labels = make([]string, len(f.files))
	for i, file := range f.files {
		f.labels[i] = f.label(file)
	}
	return f
}

// Run opens the finder and returns the vault-relative path of the chosen
// note.
func (f *FuzzyFinder) Run(query string) (string, error) {
	if len(f.files) == 0 {
		return "", fmt.Errorf("no notes in vault")
	}

	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(f.renderMarkdownPreview),
	}
	if query != "" {
		options = append(options, fuzzyfinder.WithQuery(query))
	}
	if f.Header != "" {
		options = append(options, fuzzyfinder.WithHeader(f.Header))
	}

	idx, err := fuzzyfinder.Find(f.files, func(i int) string {
		return f.labels[i]
	}, options...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", ErrNoSelection
		}
		return "", fmt.Errorf("error selecting note: %w", err)
	}

	return f.files[idx], nil
}

// Labels returns the finder entries, in the same order as the notes.
func (f *FuzzyFinder) Labels() []string {
	return append([]string(nil), f.labels...)
}

func (f *FuzzyFinder) label(file string) string {
	title := links.PathToLinkText(file)
	meta, ok := f.index.FileCache(file)
	if !ok || len(meta.Tags) == 0 {
		return fmt.Sprintf("%s [No tags]", title)
	}
	return fmt.Sprintf("%s [Tags: %s]", title, strings.Join(meta.Tags, ", "))
}

func (f *FuzzyFinder) renderMarkdownPreview(i, w, _ int) string {
	if i == -1 {
		return ""
	}

	content, err := os.ReadFile(f.index.Abs(f.files[i]))
	if err != nil {
		return "Error reading file"
	}

	width := w - 4
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(termenv.ANSI256),
	)
	if err != nil {
		return "Error rendering markdown"
	}

	markdown, err := r.Render(string(content))
	if err != nil {
		return "Error rendering markdown"
	}

	return markdown
}
