package follow

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	follow key.Binding
	quit   key.Binding
}

func newKeyMap() *keyMap {
	return &keyMap{
		follow: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "follow"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
