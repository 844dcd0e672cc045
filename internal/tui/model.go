package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/tilewm/internal/wm"
)

type stateMsg struct{ state *wm.State }

type errMsg struct{ err error }

type tickMsg struct{}

type model struct {
	ctl     Controller
	refresh time.Duration
	keys    keyMap
	help    help.Model

	state    *wm.State
	selected string
	err      error

	width  int
	height int
}

func newModel(ctl Controller, refresh time.Duration) model {
	return model{
		ctl:     ctl,
		refresh: refresh,
		keys:    defaultKeys(),
		help:    help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.tick())
}

func (m model) fetch() tea.Msg {
	st, err := m.ctl.State()
	if err != nil {
		return errMsg{err}
	}
	return stateMsg{st}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg { return tickMsg{} })
}

// do runs fn against the manager and reloads the state afterwards.
func (m model) do(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return m.fetch()
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		m.state = msg.state
		m.err = nil
		if m.index(m.selected) < 0 {
			m.selected = msg.state.FocusedWorkspace
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch, m.tick())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch
	}

	if m.state == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Goto):
		name := m.selected
		if name == "" {
			return m, nil
		}
		return m, m.do(func() error { return m.ctl.GotoWorkspace(name) })
	case key.Matches(msg, m.keys.Float):
		return m, m.do(func() error { return m.ctl.ToggleFloating(0) })
	case key.Matches(msg, m.keys.Fullscreen):
		return m, m.do(func() error { return m.ctl.ToggleFullscreen(0) })
	case key.Matches(msg, m.keys.Close):
		return m, m.do(m.ctl.CloseFocused)
	case key.Matches(msg, m.keys.Layout):
		return m, m.do(func() error { return m.ctl.CycleLayout(1) })
	case key.Matches(msg, m.keys.Focus):
		return m, m.do(func() error { return m.ctl.CycleFocus(1) })
	}
	return m, nil
}

// index returns the position of the named workspace, or -1.
func (m model) index(name string) int {
	if m.state == nil || name == "" {
		return -1
	}
	for i, ws := range m.state.Workspaces {
		if ws.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) move(delta int) {
	if m.state == nil || len(m.state.Workspaces) == 0 {
		return
	}
	n := len(m.state.Workspaces)
	i := m.index(m.selected)
	if i < 0 {
		i = 0
	} else {
		i = ((i+delta)%n + n) % n
	}
	m.selected = m.state.Workspaces[i].Name
}
