// Package follow lets the user pick one link of a rendered panel.
package follow

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Paintersrp/twohop/internal/links"
	"github.com/Paintersrp/twohop/internal/panel"
)

// ErrNoSelection is returned when the list is closed without a choice.
var ErrNoSelection = errors.New("no link selected")

type item struct {
	entry panel.Entry
}

func (i item) Title() string { return i.entry.Name() }

func (i item) Description() string {
	if i.entry.Preview == "" {
		return i.entry.Section
	}
	return i.entry.Section + " · " + i.entry.Preview
}

func (i item) FilterValue() string { return i.entry.Name() + " " + i.entry.Section }

// Model lists the entries of a panel next to the preview of the selected
// one.
type Model struct {
	list   list.Model
	keys   *keyMap
	width  int
	height int
	chosen *links.LinkRef
}

func New(p panel.Panel) Model {
	entries := p.Entries()
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, item{entry: e})
	}

	keys := newKeyMap()
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Follow a link from " + links.PathToLinkText(p.Focal)
	l.Styles.Title = titleStyle
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.follow}
	}

	return Model{list: l, keys: keys}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		m.list.SetSize(msg.Width/2-h, msg.Height-v)

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.follow):
			if selected, ok := m.list.SelectedItem().(item); ok {
				ref := selected.entry.Ref
				m.chosen = &ref
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.quit) && m.list.FilterState() == list.Unfiltered:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	left := listStyle.Width(m.width / 2).Render(m.list.View())

	body := ""
	if selected, ok := m.list.SelectedItem().(item); ok {
		body = fmt.Sprintf(
			"%s\n%s\n\n%s",
			titleStyle.Render(selected.entry.Name()),
			sectionStyle.Render(selected.entry.Section),
			selected.entry.Preview,
		)
	}
	right := previewStyle.
		Width(max(m.width/2-4, 10)).
		Height(m.list.Height()).
		MaxHeight(m.list.Height()).
		Render(body)

	return appStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
}

// Chosen returns the link picked with enter.
func (m Model) Chosen() (links.LinkRef, bool) {
	if m.chosen == nil {
		return links.LinkRef{}, false
	}
	return *m.chosen, true
}

// Run shows the entries of p full screen and returns the chosen link.
func Run(p panel.Panel) (links.LinkRef, error) {
	if len(p.Entries()) == 0 {
		return links.LinkRef{}, fmt.Errorf("no links to follow from %s", p.Focal)
	}

	final, err := tea.NewProgram(New(p), tea.WithAltScreen()).Run()
	if err != nil {
		return links.LinkRef{}, fmt.Errorf("run link list: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return links.LinkRef{}, ErrNoSelection
	}
	ref, ok := m.Chosen()
	if !ok {
		return links.LinkRef{}, ErrNoSelection
	}
	return ref, nil
}
