package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Goto       key.Binding
	Float      key.Binding
	Fullscreen key.Binding
	Close      key.Binding
	Layout     key.Binding
	Focus      key.Binding
	Refresh    key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Goto:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "goto")),
		Float:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "float")),
		Fullscreen: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "fullscreen")),
		Close:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close")),
		Layout:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "next layout")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next client")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Goto, k.Float, k.Fullscreen, k.Close, k.Layout, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Goto},
		{k.Float, k.Fullscreen, k.Close},
		{k.Layout, k.Focus, k.Refresh, k.Quit},
	}
}
