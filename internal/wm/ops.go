package wm

import (
	"fmt"
	"slices"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/screen"
	"github.com/1broseidon/tilewm/internal/tiling"
)

// GotoWorkspace shows the named workspace. A workspace displayed on another
// screen gets the focus and the pointer; otherwise it replaces the
// workspace on the focused screen. Going to the focused workspace does
// nothing.
func (m *Manager) GotoWorkspace(name string) error {
	_, err := m.Execute(Request{Op: OpGotoWorkspace, Workspace: name})
	return err
}

// CycleWorkspace goes delta workspaces forward from the focused one.
func (m *Manager) CycleWorkspace(delta int) error {
	_, err := m.Execute(Request{Op: OpCycleWorkspace, Delta: delta})
	return err
}

// SendFocusedTo moves the focused client to the end of the named
// workspace, keeping its mode. Focus in the source workspace follows the
// configured send_focus_policy.
func (m *Manager) SendFocusedTo(name string) error {
	_, err := m.Execute(Request{Op: OpSendFocusedTo, Workspace: name})
	return err
}

// SendFocusedAndFollow sends the focused client and then goes to the
// target workspace.
func (m *Manager) SendFocusedAndFollow(name string) error {
	_, err := m.Execute(Request{Op: OpSendAndFollow, Workspace: name})
	return err
}

// ToggleFloating switches a client between tiled and floating. Toggling
// twice restores its ring position.
func (m *Manager) ToggleFloating(id platform.WindowID) error {
	_, err := m.Execute(Request{Op: OpToggleFloating, Window: id})
	return err
}

// ToggleFullscreen covers the full geometry of the client's screen, or
// restores the saved geometry and mode.
func (m *Manager) ToggleFullscreen(id platform.WindowID) error {
	_, err := m.Execute(Request{Op: OpToggleFullscreen, Window: id})
	return err
}

// WarpWindow moves a client dist pixels in dir, kept inside its screen.
// A tiled client is floated first. dist <= 0 uses warp_step.
func (m *Manager) WarpWindow(id platform.WindowID, dir hotkeys.Direction, dist int) error {
	_, err := m.Execute(Request{Op: OpWarpWindow, Window: id, Direction: dir, Distance: dist})
	return err
}

// CloseFocused asks the focused client to close, or destroys it when it
// does not support WM_DELETE_WINDOW.
func (m *Manager) CloseFocused() error {
	_, err := m.Execute(Request{Op: OpCloseFocused})
	return err
}

// RunExternal starts a program without waiting for it.
func (m *Manager) RunExternal(name string, args ...string) error {
	_, err := m.Execute(Request{Op: OpRunExternal, Command: name, Args: args})
	return err
}

// Quit makes Run return after the current handler.
func (m *Manager) Quit() error {
	_, err := m.Execute(Request{Op: OpQuit})
	return err
}

// CycleFocus moves focus delta clients along the focused workspace's ring.
func (m *Manager) CycleFocus(delta int) error {
	_, err := m.Execute(Request{Op: OpCycleFocus, Delta: delta})
	return err
}

// FocusDirection focuses the client nearest the focused one in dir on
// the focused workspace, wrapping at the screen edge.
func (m *Manager) FocusDirection(dir hotkeys.Direction) error {
	_, err := m.Execute(Request{Op: OpFocusDirection, Direction: dir})
	return err
}

// FocusClient focuses a client, showing its workspace if it is hidden.
func (m *Manager) FocusClient(id platform.WindowID) error {
	_, err := m.Execute(Request{Op: OpFocusClient, Window: id})
	return err
}

// PromoteFocused makes the focused tiled client the master.
func (m *Manager) PromoteFocused() error {
	_, err := m.Execute(Request{Op: OpPromoteFocused})
	return err
}

// SetLayout arranges the focused workspace with the named registered
// layout.
func (m *Manager) SetLayout(name string) error {
	_, err := m.Execute(Request{Op: OpSetLayout, Layout: name})
	return err
}

// CycleLayout steps through the configured layouts on the focused
// workspace.
func (m *Manager) CycleLayout(delta int) error {
	_, err := m.Execute(Request{Op: OpCycleLayout, Delta: delta})
	return err
}

// AdjustRatio changes the focused workspace's master ratio. Values outside
// the allowed range are clamped and recorded as a diagnostic.
func (m *Manager) AdjustRatio(delta float64) error {
	_, err := m.Execute(Request{Op: OpAdjustRatio, Ratio: delta})
	return err
}

// Reload applies a new configuration. The workspace list must not change.
func (m *Manager) Reload(cfg *config.Config) error {
	_, err := m.Execute(Request{Op: OpReload, Config: cfg})
	return err
}

// SaveSnapshot writes the current workspaces to the snapshot store and
// returns the name used.
func (m *Manager) SaveSnapshot(name string) (string, error) {
	res, err := m.Execute(Request{Op: OpSaveSnapshot, Snapshot: name})
	return res.Snapshot, err
}

// perform runs one operation against the model. The caller settles and
// flushes.
func (m *Manager) perform(req Request) (Result, error) {
	switch req.Op {
	case OpGotoWorkspace:
		return Result{}, m.gotoWorkspace(req.Workspace)
	case OpCycleWorkspace:
		return Result{}, m.cycleWorkspace(req.Delta)
	case OpSendFocusedTo:
		return Result{}, m.sendFocusedTo(req.Workspace, false)
	case OpSendAndFollow:
		return Result{}, m.sendFocusedTo(req.Workspace, true)
	case OpToggleFloating:
		return Result{}, m.toggleFloating(req.Window)
	case OpToggleFullscreen:
		return Result{}, m.toggleFullscreen(req.Window)
	case OpWarpWindow:
		return Result{}, m.warpWindow(req.Window, req.Direction, req.Distance)
	case OpCloseFocused:
		return Result{}, m.closeFocused()
	case OpRunExternal:
		return Result{}, m.runExternal(req.Command, req.Args)
	case OpQuit:
		m.quitRequested = true
		return Result{}, nil
	case OpDumpState:
		st := m.DumpState()
		m.logger.Debug("internal state",
			"focused_workspace", st.FocusedWorkspace,
			"focused_client", st.FocusedClient,
			"clients", len(st.Clients),
			"invariant_errors", len(st.InvariantErrors))
		return Result{State: &st}, nil
	case OpCheckInvariants:
		return Result{}, m.CheckInvariants()
	case OpCycleFocus:
		return Result{}, m.cycleFocus(req.Delta)
	case OpFocusDirection:
		return Result{}, m.focusDirection(req.Direction)
	case OpFocusClient:
		return Result{}, m.focusClient(req.Window)
	case OpPromoteFocused:
		return Result{}, m.promoteFocused()
	case OpSetLayout:
		return Result{}, m.setLayout(req.Layout)
	case OpCycleLayout:
		return Result{}, m.cycleLayout(req.Delta)
	case OpAdjustRatio:
		return Result{}, m.adjustRatio(req.Ratio)
	case OpSaveSnapshot:
		name, err := m.saveSnapshot(req.Snapshot)
		return Result{Snapshot: name}, err
	case OpReload:
		return Result{}, m.reload(req.Config)
	}
	return Result{}, fmt.Errorf("unknown operation %q", req.Op)
}

func (m *Manager) gotoWorkspace(name string) error {
	idx, err := m.workspaceIndex(name)
	if err != nil {
		return err
	}
	if idx == m.focusedWorkspace() {
		return nil
	}
	if si := m.screenOf(idx); si != screen.None {
		m.focusedScr = si
		x, y := m.screens[si].Center()
		m.emit(platform.WarpPointer{X: x, Y: y})
		return nil
	}

	prev := m.screens[m.focusedScr].Activate(idx)
	m.hide(prev)
	m.show(idx, m.focusedScr)
	m.logger.Debug("workspace activated", "workspace", name, "screen", m.focusedScr)
	return nil
}

func (m *Manager) cycleWorkspace(delta int) error {
	cur := m.focusedWorkspace()
	if cur == screen.None {
		cur = 0
	}
	n := len(m.workspaces)
	next := ((cur+delta)%n + n) % n
	return m.gotoWorkspace(m.workspaces[next].Name)
}

func (m *Manager) sendFocusedTo(name string, follow bool) error {
	idx, err := m.workspaceIndex(name)
	if err != nil {
		return err
	}
	src := m.focusedWorkspace()
	if src == screen.None || src == idx {
		return nil
	}
	id, ok := m.workspaces[src].Focused()
	if !ok {
		return nil
	}
	c := m.clients[id]
	if c == nil {
		return fmt.Errorf("%w: 0x%x", ErrUnknownWindow, uint32(id))
	}

	fromScreen := m.screenFor(src).Geometry
	if c.Mode == client.Fullscreen {
		c.ExitFullscreen()
	}

	source := m.workspaces[src]
	source.Remove(id)
	if m.cfg.SendFocusPolicy == config.SendFocusRestore {
		source.RestorePriorFocus()
	}
	m.workspaces[idx].Append(id, c.Mode)
	c.Workspace = idx

	if si := m.screenOf(idx); si == screen.None {
		m.unmapClient(id)
	} else if !c.IsTiled() {
		to := m.screens[si].Geometry
		c.Geometry.X += to.X - fromScreen.X
		c.Geometry.Y += to.Y - fromScreen.Y
		m.placeFloating(c)
		m.emit(platform.Configure{Window: id, Geometry: c.Geometry, BorderWidth: c.BorderWidth})
	}
	m.logger.Debug("sent client", "window", id, "from", source.Name, "to", name)

	if follow {
		return m.gotoWorkspace(name)
	}
	return nil
}

func (m *Manager) toggleFloating(id platform.WindowID) error {
	c, err := m.lookup(id)
	if err != nil {
		return err
	}
	ws := m.workspaces[c.Workspace]
	switch c.Mode {
	case client.Tiled:
		ws.SetMode(c.ID, client.Floating)
		c.Mode = client.Floating
	case client.Floating:
		ws.SetMode(c.ID, client.Tiled)
		c.Mode = client.Tiled
	default:
		m.logger.Debug("not toggling floating on a fullscreen client", "window", c.ID)
	}
	return nil
}

func (m *Manager) toggleFullscreen(id platform.WindowID) error {
	c, err := m.lookup(id)
	if err != nil {
		return err
	}
	ws := m.workspaces[c.Workspace]

	if c.Mode == client.Fullscreen {
		saved, ok := c.ExitFullscreen()
		if !ok {
			return nil
		}
		ws.SetMode(c.ID, saved.Mode)
		m.emit(platform.Configure{Window: c.ID, Geometry: c.Geometry, BorderWidth: c.BorderWidth})
		return nil
	}

	ws.Focus(c.ID)
	wasTiled := c.IsTiled()
	c.EnterFullscreen(m.screenFor(c.Workspace).Geometry)
	if wasTiled {
		ws.SetMode(c.ID, client.Fullscreen)
	}
	m.emit(
		platform.Configure{Window: c.ID, Geometry: c.Geometry, BorderWidth: c.BorderWidth},
		platform.Raise{Window: c.ID},
	)
	return nil
}

// warpWindow floats a tiled client before moving it, so the master slot
// passes to the next ring element while focus stays on the warped client.
func (m *Manager) warpWindow(id platform.WindowID, dir hotkeys.Direction, dist int) error {
	c, err := m.lookup(id)
	if err != nil {
		return err
	}
	if c.Mode == client.Fullscreen {
		return nil
	}
	if dist <= 0 {
		dist = m.cfg.WarpStep
	}
	if c.IsTiled() {
		m.workspaces[c.Workspace].SetMode(c.ID, client.Floating)
		c.Mode = client.Floating
	}
	dx, dy := dir.Delta(dist)
	c.Displace(dx, dy, m.screenFor(c.Workspace).Usable)
	m.emit(
		platform.Configure{Window: c.ID, Geometry: c.Geometry, BorderWidth: c.BorderWidth},
		platform.Raise{Window: c.ID},
	)
	return nil
}

func (m *Manager) closeFocused() error {
	id, ok := m.focusedClientID()
	if !ok {
		return nil
	}
	c, err := m.lookup(id)
	if err != nil {
		return err
	}
	if c.SupportsDelete {
		m.emit(platform.Close{Window: id})
	} else {
		m.emit(platform.Destroy{Window: id})
	}
	return nil
}

func (m *Manager) runExternal(name string, args []string) error {
	if name == "" {
		return fmt.Errorf("run: empty command")
	}
	if err := m.spawn(name, args); err != nil {
		return err
	}
	m.logger.Info("started program", "command", name, "args", args)
	return nil
}

func (m *Manager) cycleFocus(delta int) error {
	ws := m.focusedWorkspace()
	if ws == screen.None {
		return nil
	}
	m.workspaces[ws].CycleFocus(delta)
	return nil
}

func (m *Manager) focusDirection(dir hotkeys.Direction) error {
	ws := m.focusedWorkspace()
	if ws == screen.None {
		return nil
	}
	w := m.workspaces[ws]
	cur, ok := w.Focused()
	if !ok {
		return nil
	}
	var ids []platform.WindowID
	var rects []platform.Rect
	current := -1
	for _, id := range w.Members() {
		c, ok := m.clients[id]
		if !ok {
			continue
		}
		if id == cur {
			current = len(ids)
		}
		ids = append(ids, id)
		rects = append(rects, c.Geometry)
	}
	if current < 0 {
		return nil
	}
	dx, dy := dir.Delta(1)
	if next := tiling.Neighbor(rects, current, dx, dy); next != current {
		w.Focus(ids[next])
	}
	return nil
}

func (m *Manager) focusClient(id platform.WindowID) error {
	c, err := m.lookup(id)
	if err != nil {
		return err
	}
	if m.screenOf(c.Workspace) == screen.None {
		if err := m.gotoWorkspace(m.workspaces[c.Workspace].Name); err != nil {
			return err
		}
	}
	m.focusedScr = m.screenOf(c.Workspace)
	m.workspaces[c.Workspace].Focus(c.ID)
	return nil
}

func (m *Manager) promoteFocused() error {
	ws := m.focusedWorkspace()
	if ws == screen.None {
		return nil
	}
	if id, ok := m.workspaces[ws].Focused(); ok {
		m.workspaces[ws].Promote(id)
	}
	return nil
}

func (m *Manager) setLayout(name string) error {
	l, err := m.layoutByName(name)
	if err != nil {
		return err
	}
	if ws := m.focusedWorkspace(); ws != screen.None {
		m.workspaces[ws].SetLayout(l)
	}
	return nil
}

func (m *Manager) cycleLayout(delta int) error {
	ws := m.focusedWorkspace()
	names := m.cfg.Layouts
	if ws == screen.None || len(names) == 0 {
		return nil
	}
	cur := slices.Index(names, m.workspaces[ws].Layout().Name())
	n := len(names)
	next := ((cur+delta)%n + n) % n
	if cur < 0 {
		next = 0
	}
	return m.setLayout(names[next])
}

func (m *Manager) adjustRatio(delta float64) error {
	ws := m.focusedWorkspace()
	if ws == screen.None {
		return nil
	}
	w := m.workspaces[ws]
	if w.AdjustRatio(delta) {
		m.record(0, fmt.Errorf("%w: master ratio clamped to %.2f on %q", ErrInvalidConfiguration, w.Params().Ratio, w.Name))
	}
	return nil
}

func (m *Manager) reload(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: no configuration", ErrInvalidConfiguration)
	}
	if !slices.Equal(cfg.Workspaces, m.cfg.Workspaces) {
		return fmt.Errorf("%w: the workspace list cannot change while running", ErrInvalidConfiguration)
	}
	actions, err := cfg.Actions()
	if err != nil {
		return err
	}
	layout, err := m.checkLayouts(cfg)
	if err != nil {
		return err
	}

	m.cfg = cfg
	m.actions = actions
	m.rules.Update(cfg.FloatClasses, cfg.FloatTransients)
	for _, ws := range m.workspaces {
		ws.SetLayout(layout)
		if ws.SetParams(cfg.TilingParams()) {
			m.record(0, fmt.Errorf("%w: layout parameters clamped on %q", ErrInvalidConfiguration, ws.Name))
		}
	}
	m.emit(platform.GrabKeys{Combos: cfg.KeyCombos()}, platform.GrabButtons{Combos: cfg.ButtonCombos()})
	m.repaintBorders()
	m.logger.Info("configuration reloaded", "keybinds", len(actions))
	return nil
}
