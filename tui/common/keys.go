package common

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines shared key bindings across all views.
type KeyMap struct {
	Quit          key.Binding
	ForceQuit     key.Binding
	Refresh       key.Binding
	Up            key.Binding
	Down          key.Binding
	Top           key.Binding
	Like          key.Binding // l: like/unlike the focused post
	Comments      key.Binding // enter: open the comment thread
	Compose       key.Binding // c: write a comment in $EDITOR
	Send          key.Binding // ctrl+s: send the inline comment
	Back          key.Binding
	NextTab       key.Binding
	PrevTab       key.Binding
	Feed          key.Binding
	Leaderboard   key.Binding
	Notifications key.Binding
	ToggleHints   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "like"),
		),
		Comments: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "comments"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comment ($EDITOR)"),
		),
		Send: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "send"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		Feed: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "feed"),
		),
		Leaderboard: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "leaderboard"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("3", "n"),
			key.WithHelp("3/n", "notifications"),
		),
		ToggleHints: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "keys"),
		),
	}
}
