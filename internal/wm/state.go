package wm

import (
	"errors"
	"fmt"
	"slices"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/screen"
	"github.com/1broseidon/tilewm/internal/workspace"
)

// State is a point-in-time copy of the manager's model for introspection.
type State struct {
	FocusedScreen    int                 `json:"focused_screen" yaml:"focused_screen"`
	FocusedWorkspace string              `json:"focused_workspace" yaml:"focused_workspace"`
	FocusedClient    platform.WindowID   `json:"focused_client,omitempty" yaml:"focused_client,omitempty"`
	Screens          []ScreenState       `json:"screens" yaml:"screens"`
	Workspaces       []WorkspaceState    `json:"workspaces" yaml:"workspaces"`
	Clients          []ClientState       `json:"clients" yaml:"clients"`
	Docks            []platform.WindowID `json:"docks,omitempty" yaml:"docks,omitempty"`
	PendingUnmaps    int                 `json:"pending_unmaps" yaml:"pending_unmaps"`
	Dragging         platform.WindowID   `json:"dragging,omitempty" yaml:"dragging,omitempty"`
	Diagnostics      []Diagnostic        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	InvariantErrors  []string            `json:"invariant_errors,omitempty" yaml:"invariant_errors,omitempty"`
}

type ScreenState struct {
	Index     int           `json:"index" yaml:"index"`
	Name      string        `json:"name" yaml:"name"`
	Geometry  platform.Rect `json:"geometry" yaml:"geometry"`
	Usable    platform.Rect `json:"usable" yaml:"usable"`
	Workspace string        `json:"workspace,omitempty" yaml:"workspace,omitempty"`
}

type WorkspaceState struct {
	Name     string              `json:"name" yaml:"name"`
	Layout   string              `json:"layout" yaml:"layout"`
	Ratio    float64             `json:"ratio" yaml:"ratio"`
	Gap      int                 `json:"gap" yaml:"gap"`
	Screen   int                 `json:"screen" yaml:"screen"`
	Focused  platform.WindowID   `json:"focused,omitempty" yaml:"focused,omitempty"`
	Tiled    []platform.WindowID `json:"tiled" yaml:"tiled"`
	Floating []platform.WindowID `json:"floating" yaml:"floating"`
}

type ClientState struct {
	ID           platform.WindowID `json:"id" yaml:"id"`
	Class        string            `json:"class,omitempty" yaml:"class,omitempty"`
	Instance     string            `json:"instance,omitempty" yaml:"instance,omitempty"`
	Title        string            `json:"title,omitempty" yaml:"title,omitempty"`
	Mode         client.Mode       `json:"mode" yaml:"mode"`
	Workspace    string            `json:"workspace" yaml:"workspace"`
	Geometry     platform.Rect     `json:"geometry" yaml:"geometry"`
	BorderWidth  int               `json:"border_width" yaml:"border_width"`
	TransientFor platform.WindowID `json:"transient_for,omitempty" yaml:"transient_for,omitempty"`
}

// DumpState copies the model, the diagnostics log and the result of an
// invariant check.
func (m *Manager) DumpState() State {
	st := State{
		FocusedScreen: m.focusedScr,
		Diagnostics:   m.diags.list(),
	}
	if ws := m.focusedWorkspace(); ws != screen.None {
		st.FocusedWorkspace = m.workspaces[ws].Name
	}
	st.FocusedClient, _ = m.focusedClientID()

	for _, s := range m.screens {
		ss := ScreenState{Index: s.Index, Name: s.Name, Geometry: s.Geometry, Usable: s.Usable}
		if s.Workspace != screen.None {
			ss.Workspace = m.workspaces[s.Workspace].Name
		}
		st.Screens = append(st.Screens, ss)
	}
	for i, ws := range m.workspaces {
		focused, _ := ws.Focused()
		st.Workspaces = append(st.Workspaces, WorkspaceState{
			Name:     ws.Name,
			Layout:   ws.Layout().Name(),
			Ratio:    ws.Params().Ratio,
			Gap:      ws.Params().Gap,
			Screen:   m.screenOf(i),
			Focused:  focused,
			Tiled:    ws.Tiled(),
			Floating: ws.Floating(),
		})
	}
	for _, id := range m.order {
		c := m.clients[id]
		st.Clients = append(st.Clients, ClientState{
			ID:           c.ID,
			Class:        c.Class,
			Instance:     c.Instance,
			Title:        c.Title,
			Mode:         c.Mode,
			Workspace:    m.workspaces[c.Workspace].Name,
			Geometry:     c.Geometry,
			BorderWidth:  c.BorderWidth,
			TransientFor: c.TransientFor,
		})
	}
	for id := range m.docks {
		st.Docks = append(st.Docks, id)
	}
	slices.Sort(st.Docks)
	for _, n := range m.pendingUnmaps {
		st.PendingUnmaps += n
	}
	if m.drag != nil {
		st.Dragging = m.drag.window
	}
	if err := m.CheckInvariants(); err != nil {
		for _, e := range unwrapJoined(err) {
			st.InvariantErrors = append(st.InvariantErrors, e.Error())
		}
	}
	return st
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// CheckInvariants verifies that every client is in exactly one workspace,
// the one it records, in the part matching its mode; that membership
// totals match the registry; and that no workspace is displayed twice.
func (m *Manager) CheckInvariants() error {
	var errs []error

	owners := make(map[platform.WindowID]int)
	total := 0
	for i, ws := range m.workspaces {
		for _, id := range ws.Members() {
			total++
			if prev, dup := owners[id]; dup {
				errs = append(errs, fmt.Errorf("window 0x%x is in workspaces %q and %q", uint32(id), m.workspaces[prev].Name, ws.Name))
			}
			owners[id] = i
		}
		if len(ws.Tiled()) > 0 {
			if _, ok := ws.Master(); !ok {
				errs = append(errs, fmt.Errorf("workspace %q has tiled clients but no master", ws.Name))
			}
		}
	}
	if total != len(m.clients) {
		errs = append(errs, fmt.Errorf("workspaces hold %d clients, registry has %d", total, len(m.clients)))
	}

	for id, c := range m.clients {
		owner, ok := owners[id]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("window 0x%x is in no workspace", uint32(id)))
		case owner != c.Workspace:
			errs = append(errs, fmt.Errorf("window 0x%x records workspace %d but is in %d", uint32(id), c.Workspace, owner))
		case c.IsTiled() != m.workspaces[owner].IsTiled(id):
			errs = append(errs, fmt.Errorf("window 0x%x is %s but placed otherwise", uint32(id), c.Mode))
		}
	}

	shown := make(map[int]int)
	for i, s := range m.screens {
		if s.Workspace == screen.None {
			continue
		}
		if prev, dup := shown[s.Workspace]; dup {
			errs = append(errs, fmt.Errorf("workspace %q is on screens %d and %d", m.workspaces[s.Workspace].Name, prev, i))
		}
		shown[s.Workspace] = i
	}
	return errors.Join(errs...)
}

// Snapshot captures every workspace's layout and ordered client list.
func (m *Manager) Snapshot(name string) *workspace.Snapshot {
	snap := &workspace.Snapshot{Name: name, SavedAt: now()}
	for _, ws := range m.workspaces {
		sw := workspace.SnapshotWorkspace{
			Name:   ws.Name,
			Layout: ws.Layout().Name(),
			Ratio:  ws.Params().Ratio,
		}
		for _, id := range ws.Members() {
			c := m.clients[id]
			if c == nil {
				continue
			}
			sc := workspace.SnapshotClient{ID: uint32(id), Class: c.Class, Mode: c.Mode}
			if !c.IsTiled() {
				g := c.Geometry
				if saved, ok := c.SavedState(); ok {
					g = saved.Geometry
				}
				sc.Geometry = &g
			}
			sw.Clients = append(sw.Clients, sc)
		}
		snap.Workspaces = append(snap.Workspaces, sw)
	}
	return snap
}

func (m *Manager) saveSnapshot(name string) (string, error) {
	if m.store == nil {
		return "", ErrNoStore
	}
	if name == "" {
		name = m.cfg.Snapshot.Name
	}
	if err := m.store.Write(m.Snapshot(name)); err != nil {
		return "", err
	}
	m.logger.Debug("snapshot saved", "name", name)
	return name, nil
}
