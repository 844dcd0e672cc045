package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tilewm/internal/wm"
)

var (
	statusStyle   = lipgloss.NewStyle().Background(lipgloss.Color("235")).Foreground(lipgloss.Color("250")).Padding(0, 1)
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func (m model) View() string {
	if m.width == 0 {
		return ""
	}

	parts := []string{m.renderStatus()}
	if m.state != nil {
		left := paneStyle.Render(m.renderWorkspaces())
		right := paneStyle.Render(m.renderClients())
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, left, right))
		if n := len(m.state.InvariantErrors); n > 0 {
			parts = append(parts, errorStyle.Render(fmt.Sprintf("%d invariant violation(s): %s", n, m.state.InvariantErrors[0])))
		}
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("error: "+m.err.Error()))
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) renderStatus() string {
	var status string
	switch {
	case m.state != nil:
		status = okStyle.Render("●") + " connected  workspace:" + m.state.FocusedWorkspace
		if m.state.FocusedClient != 0 {
			status += fmt.Sprintf("  focused:%#x", uint32(m.state.FocusedClient))
		}
	case m.err != nil:
		status = dimStyle.Render("●") + " window manager not reachable"
	default:
		status = dimStyle.Render("●") + " connecting"
	}
	return statusStyle.Width(m.width).Render(status)
}

func (m model) renderWorkspaces() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Workspaces"))
	for _, ws := range m.state.Workspaces {
		line := fmt.Sprintf("%-8s %-14s %2d", ws.Name, ws.Layout, len(ws.Tiled)+len(ws.Floating))
		if ws.Screen >= 0 {
			line += fmt.Sprintf("  screen %d", ws.Screen)
		}
		b.WriteString("\n")
		if ws.Name == m.selected {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(line)
		}
	}
	return b.String()
}

func (m model) renderClients() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Clients on " + m.selected))
	clients := clientsOn(m.state, m.selected)
	if len(clients) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("(empty)"))
		return b.String()
	}
	for _, c := range clients {
		label := c.Class
		if label == "" {
			label = c.Title
		}
		line := fmt.Sprintf("%#-10x %-16s %-10s %dx%d", uint32(c.ID), label, c.Mode, c.Geometry.Width, c.Geometry.Height)
		if c.ID == m.state.FocusedClient {
			line += " *"
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func clientsOn(st *wm.State, name string) []wm.ClientState {
	var out []wm.ClientState
	for _, c := range st.Clients {
		if c.Workspace == name {
			out = append(out, c)
		}
	}
	return out
}
