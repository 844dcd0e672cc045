// Package tui is a terminal inspector for a running window manager. It
// polls the manager over IPC and offers a handful of controls.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/tilewm/internal/wm"
)

// Controller is the part of the IPC client the inspector uses.
type Controller interface {
	State() (*wm.State, error)
	GotoWorkspace(name string) error
	ToggleFloating(window uint32) error
	ToggleFullscreen(window uint32) error
	CloseFocused() error
	CycleLayout(delta int) error
	CycleFocus(delta int) error
}

// DefaultRefresh is the polling interval when Run is given zero.
const DefaultRefresh = time.Second

// Run starts the inspector and blocks until the user quits.
func Run(ctl Controller, refresh time.Duration) error {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	p := tea.NewProgram(newModel(ctl, refresh), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
