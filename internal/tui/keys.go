package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Choose   key.Binding
	Next     key.Binding
	Previous key.Binding
	Submit   key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	Exit     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Choose:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose")),
		Next:     key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next")),
		Previous: key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/p", "previous")),
		Submit:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),
		Confirm:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "submit anyway")),
		Cancel:   key.NewBinding(key.WithKeys("esc", "N"), key.WithHelp("esc", "keep answering")),
		Exit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "back to quizzes")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit, keep progress")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Choose, k.Next, k.Previous, k.Submit, k.Exit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Choose},
		{k.Next, k.Previous},
		{k.Submit, k.Confirm, k.Cancel},
		{k.Exit, k.Quit},
	}
}
