package wm

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/rules"
	"github.com/1broseidon/tilewm/internal/screen"
)

type dragKind int

const (
	dragMove dragKind = iota
	dragResize
)

// drag is the state kept between the button press that starts a pointer
// move or resize and the release that ends it.
type drag struct {
	kind     dragKind
	window   platform.WindowID
	origin   platform.Rect
	pointerX int
	pointerY int
}

// HandleEvent processes one event as a single handler and flushes the
// resulting command batch.
func (m *Manager) HandleEvent(ev platform.Event) error {
	var win platform.WindowID
	var fn func() error

	switch e := ev.(type) {
	case platform.MapRequest:
		win, fn = e.Window, func() error { return m.onMapRequest(e) }
	case platform.UnmapNotify:
		win, fn = e.Window, func() error { return m.onUnmap(e) }
	case platform.DestroyNotify:
		win, fn = e.Window, func() error { return m.onDestroy(e) }
	case platform.ConfigureRequest:
		win, fn = e.Window, func() error { return m.onConfigureRequest(e) }
	case platform.EnterNotify:
		win, fn = e.Window, func() error { return m.onEnter(e) }
	case platform.ButtonPress:
		win, fn = e.Window, func() error { return m.onButtonPress(e) }
	case platform.ButtonRelease:
		fn = m.endDrag
	case platform.MotionNotify:
		fn = func() error { return m.onMotion(e) }
	case platform.GrabBroken:
		fn = func() error {
			// The grab is already gone; only the drag state needs clearing.
			m.drag = nil
			return nil
		}
	case platform.KeyPress:
		win, fn = e.Window, func() error { return m.onKeyPress(e) }
	case platform.ScreenChange:
		fn = m.onScreenChange
	case platform.KeymapChange:
		fn = func() error {
			m.emit(platform.GrabKeys{Combos: m.cfg.KeyCombos()}, platform.GrabButtons{Combos: m.cfg.ButtonCombos()})
			return nil
		}
	default:
		m.logger.Debug("ignoring event", "kind", ev.EventKind())
		return nil
	}
	return m.handle(ev.EventKind(), win, fn)
}

func (m *Manager) onMapRequest(e platform.MapRequest) error {
	if c, ok := m.clients[e.Window]; ok {
		if m.screenOf(c.Workspace) != screen.None {
			m.emit(platform.Map{Window: e.Window})
		}
		return nil
	}
	if _, ok := m.docks[e.Window]; ok {
		m.emit(platform.Map{Window: e.Window})
		return nil
	}

	props, err := m.conn.Properties(e.Window)
	if err != nil {
		if errors.Is(err, platform.ErrNoWindow) {
			return fmt.Errorf("%w: %w", ErrUnknownWindow, err)
		}
		return err
	}
	m.admit(props, nil)
	return nil
}

// placement is where a window goes when it is first managed.
type placement struct {
	workspace int
	mode      client.Mode
	geometry  *platform.Rect
	appendTo  bool
}

// admit classifies a window and manages it, maps it unmanaged or records
// it as a dock. at overrides the default placement.
func (m *Manager) admit(props platform.WindowProperties, at *placement) {
	id := props.ID
	decision := m.rules.Classify(props)
	switch decision {
	case rules.Unmanaged:
		m.emit(platform.Map{Window: id})
		return
	case rules.Dock:
		m.docks[id] = props.Strut
		m.applyStruts()
		m.emit(platform.Map{Window: id})
		m.logger.Debug("dock mapped", "window", id, "class", props.Class)
		return
	}

	p := placement{workspace: m.focusedWorkspace(), mode: client.Tiled}
	if decision == rules.Float {
		p.mode = client.Floating
	}
	if parent, ok := m.clients[props.TransientFor]; ok {
		p.workspace = parent.Workspace
	}
	if at != nil {
		p = *at
	}
	if p.workspace == screen.None {
		p.workspace = 0
	}

	c := client.New(props, p.mode, p.workspace)
	if p.geometry != nil && !p.geometry.Empty() {
		c.Geometry = *p.geometry
	}
	if c.Mode != client.Tiled {
		m.placeFloating(c)
	}
	m.clients[id] = c
	m.order = append(m.order, id)
	m.clientsDirty = true

	ws := m.workspaces[p.workspace]
	if p.appendTo {
		ws.Append(id, c.Mode)
	} else {
		ws.Add(id, c.Mode)
	}

	m.emit(platform.Manage{Window: id})
	m.paintBorder(id, false)
	if c.Mode != client.Tiled {
		m.emit(platform.Configure{Window: id, Geometry: c.Geometry, BorderWidth: c.BorderWidth})
	}
	if si := m.screenOf(p.workspace); si != screen.None {
		if c.IsTiled() {
			m.arrange(si)
		}
		m.emit(platform.Map{Window: id}, platform.SetWindowState{Window: id, State: platform.StateNormal})
	} else if props.Mapped {
		m.unmapClient(id)
	} else {
		m.emit(platform.SetWindowState{Window: id, State: platform.StateIconic})
	}
	m.logger.Debug("managing window", "window", id, "class", c.Class, "mode", c.Mode, "workspace", ws.Name)
}

// placeFloating keeps a floating client's geometry on its screen,
// centering windows that have no usable position.
func (m *Manager) placeFloating(c *client.Client) {
	area := m.screenFor(c.Workspace).Usable
	g := &c.Geometry
	if g.Width < 1 {
		g.Width = max(area.Width/2, 1)
	}
	if g.Height < 1 {
		g.Height = max(area.Height/2, 1)
	}
	cx, cy := g.Center()
	if !area.Contains(cx, cy) {
		g.X = area.X + (area.Width-g.Width)/2
		g.Y = area.Y + (area.Height-g.Height)/2
	}
}

// adoptExisting manages the windows that were mapped before the manager
// started, in the order a restore snapshot recorded them when there is one.
func (m *Manager) adoptExisting() error {
	ids, err := m.conn.ExistingWindows()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	type candidate struct {
		props platform.WindowProperties
		at    *placement
		rank  int
	}
	claimed := make(map[string]bool)
	var candidates []candidate
	for _, id := range ids {
		props, err := m.conn.Properties(id)
		if err != nil {
			m.logger.Debug("skipping vanished window", "window", id, "error", err)
			continue
		}
		if props.OverrideRedirect || !props.Mapped {
			continue
		}
		cand := candidate{props: props, rank: 1<<30 + len(candidates)}
		if at, rank, ok := m.restorePlacement(props, claimed); ok {
			cand.at, cand.rank = at, rank
		}
		candidates = append(candidates, cand)
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int { return cmp.Compare(a.rank, b.rank) })
	for _, cand := range candidates {
		m.admit(cand.props, cand.at)
	}
	if m.restore != nil {
		m.restoreWorkspaceSettings()
	}
	return nil
}

// restorePlacement finds where the restore snapshot put a window. rank
// orders matched windows by their snapshot position.
func (m *Manager) restorePlacement(props platform.WindowProperties, claimed map[string]bool) (*placement, int, bool) {
	if m.restore == nil {
		return nil, 0, false
	}
	name, sc, ok := m.restore.Lookup(props.ID, props.Class, claimed)
	if !ok {
		return nil, 0, false
	}
	idx, err := m.workspaceIndex(name)
	if err != nil {
		return nil, 0, false
	}
	rank := 0
	for wi, ws := range m.restore.Workspaces {
		for ci, c := range ws.Clients {
			if ws.Name == name && c == sc {
				rank = wi*1_000 + ci
			}
		}
	}
	mode := sc.Mode
	if mode == client.Fullscreen {
		mode = client.Floating
	}
	return &placement{workspace: idx, mode: mode, geometry: sc.Geometry, appendTo: true}, rank, true
}

func (m *Manager) restoreWorkspaceSettings() {
	for _, sw := range m.restore.Workspaces {
		idx, err := m.workspaceIndex(sw.Name)
		if err != nil {
			continue
		}
		ws := m.workspaces[idx]
		if l, ok := m.layouts.Get(sw.Layout); ok {
			ws.SetLayout(l)
		}
		if sw.Ratio > 0 {
			p := ws.Params()
			p.Ratio = sw.Ratio
			if ws.SetParams(p) {
				m.record(0, fmt.Errorf("%w: snapshot ratio %v for %q", ErrInvalidConfiguration, sw.Ratio, sw.Name))
			}
		}
	}
}

func (m *Manager) onUnmap(e platform.UnmapNotify) error {
	if n := m.pendingUnmaps[e.Window]; n > 0 {
		if n == 1 {
			delete(m.pendingUnmaps, e.Window)
		} else {
			m.pendingUnmaps[e.Window] = n - 1
		}
		return nil
	}
	if _, ok := m.docks[e.Window]; ok {
		delete(m.docks, e.Window)
		m.applyStruts()
		return nil
	}
	if _, ok := m.clients[e.Window]; !ok {
		return nil
	}
	m.unmanage(e.Window)
	m.emit(platform.SetWindowState{Window: e.Window, State: platform.StateWithdrawn})
	return nil
}

func (m *Manager) onDestroy(e platform.DestroyNotify) error {
	delete(m.pendingUnmaps, e.Window)
	if _, ok := m.docks[e.Window]; ok {
		delete(m.docks, e.Window)
		m.applyStruts()
		return nil
	}
	if _, ok := m.clients[e.Window]; ok {
		m.unmanage(e.Window)
	}
	return nil
}

// unmanage purges id from the registry and its workspace. Focus in the
// workspace falls to the ring's next element.
func (m *Manager) unmanage(id platform.WindowID) {
	c := m.clients[id]
	m.workspaces[c.Workspace].Remove(id)
	delete(m.clients, id)
	m.order = slices.DeleteFunc(m.order, func(o platform.WindowID) bool { return o == id })
	m.clientsDirty = true
	if m.active == id {
		m.activeSet = false
	}
	m.logger.Debug("unmanaged window", "window", id)
}

func (m *Manager) onConfigureRequest(e platform.ConfigureRequest) error {
	c, ok := m.clients[e.Window]
	if !ok {
		g := e.Geometry
		border := e.BorderWidth
		if props, err := m.conn.Properties(e.Window); err == nil {
			g = mergeGeometry(props.Geometry, e.Geometry, e.Mask)
			if e.Mask&platform.ConfigureBorder == 0 {
				border = props.BorderWidth
			}
		}
		m.emit(platform.Configure{Window: e.Window, Geometry: g, BorderWidth: border})
		return nil
	}

	if c.Mode == client.Floating {
		c.Geometry = mergeGeometry(c.Geometry, e.Geometry, e.Mask)
		c.Geometry.Width = max(c.Geometry.Width, 1)
		c.Geometry.Height = max(c.Geometry.Height, 1)
	}
	// Tiled and fullscreen clients are told their current geometry.
	m.emit(platform.Configure{Window: c.ID, Geometry: c.Geometry, BorderWidth: c.BorderWidth})
	return nil
}

func mergeGeometry(base, req platform.Rect, mask platform.ConfigureMask) platform.Rect {
	if mask&platform.ConfigureX != 0 {
		base.X = req.X
	}
	if mask&platform.ConfigureY != 0 {
		base.Y = req.Y
	}
	if mask&platform.ConfigureWidth != 0 {
		base.Width = req.Width
	}
	if mask&platform.ConfigureHeight != 0 {
		base.Height = req.Height
	}
	return base
}

func (m *Manager) onEnter(e platform.EnterNotify) error {
	if !m.cfg.FocusFollowsPointer || !e.Normal || m.drag != nil {
		return nil
	}
	c, ok := m.clients[e.Window]
	if !ok {
		if si := m.screenAt(e.RootX, e.RootY); si != screen.None {
			m.focusedScr = si
		}
		return nil
	}
	si := m.screenOf(c.Workspace)
	if si == screen.None {
		return nil
	}
	m.focusedScr = si
	m.workspaces[c.Workspace].Focus(c.ID)
	return nil
}

func (m *Manager) onButtonPress(e platform.ButtonPress) error {
	var kind dragKind
	switch e.Combo {
	case m.cfg.Mousebinds.Move:
		kind = dragMove
	case m.cfg.Mousebinds.Resize:
		kind = dragResize
	default:
		return nil
	}
	if m.drag != nil {
		return nil
	}
	if e.Window == 0 || e.Window == m.root {
		return nil
	}
	c, err := m.lookup(e.Window)
	if err != nil {
		return err
	}
	if c.Mode == client.Fullscreen {
		return nil
	}
	si := m.screenOf(c.Workspace)
	if si == screen.None {
		return nil
	}

	ws := m.workspaces[c.Workspace]
	if c.IsTiled() {
		ws.SetMode(c.ID, client.Floating)
		c.Mode = client.Floating
	}
	m.focusedScr = si
	ws.Focus(c.ID)

	m.drag = &drag{kind: kind, window: c.ID, origin: c.Geometry, pointerX: e.RootX, pointerY: e.RootY}
	m.emit(platform.GrabPointer{Window: m.root}, platform.Raise{Window: c.ID})
	return nil
}

func (m *Manager) onMotion(e platform.MotionNotify) error {
	d := m.drag
	if d == nil {
		return nil
	}
	c, ok := m.clients[d.window]
	if !ok {
		return nil
	}
	dx, dy := e.RootX-d.pointerX, e.RootY-d.pointerY
	g := d.origin
	switch d.kind {
	case dragMove:
		g.X += dx
		g.Y += dy
	case dragResize:
		g.Width = max(g.Width+dx, 1)
		g.Height = max(g.Height+dy, 1)
	}
	c.Geometry = g
	m.emit(platform.Configure{Window: c.ID, Geometry: g, BorderWidth: c.BorderWidth})
	return nil
}

// endDrag releases the pointer grab. It runs whether or not the dragged
// client still exists.
func (m *Manager) endDrag() error {
	if m.drag == nil {
		return nil
	}
	m.drag = nil
	m.emit(platform.UngrabPointer{})
	return nil
}

func (m *Manager) onKeyPress(e platform.KeyPress) error {
	action, ok := m.actions[e.Combo]
	if !ok {
		m.logger.Debug("no binding for key", "combo", e.Combo)
		return nil
	}
	req, err := RequestFromAction(action)
	if err != nil {
		return err
	}
	_, err = m.perform(req)
	return err
}

// onScreenChange rediscovers displays. Screens that survive keep their
// workspace; new screens take hidden workspaces and the workspaces of
// removed screens are hidden.
func (m *Manager) onScreenChange() error {
	displays, err := m.conn.Displays()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	m.rootBounds = m.conn.RootBounds()
	if len(displays) == 0 {
		displays = []platform.Display{{Name: "root", Bounds: m.rootBounds, Usable: m.rootBounds}}
	}

	used := make(map[int]bool)
	next := make([]*screen.Screen, 0, len(displays))
	for i, d := range displays {
		s := screen.New(i, d)
		if i < len(m.screens) && m.screens[i].Workspace != screen.None {
			s.Activate(m.screens[i].Workspace)
			used[s.Workspace] = true
		}
		next = append(next, s)
	}
	for i := len(displays); i < len(m.screens); i++ {
		m.hide(m.screens[i].Workspace)
	}
	var shown []int
	for i, s := range next {
		if s.Workspace == screen.None {
			if idx := m.firstHidden(used); idx != screen.None {
				s.Activate(idx)
				used[idx] = true
				shown = append(shown, i)
			}
		}
	}

	m.screens = next
	m.focusedScr = min(m.focusedScr, len(m.screens)-1)
	m.applyStruts()
	for _, s := range m.screens {
		if s.Workspace != screen.None {
			m.workspaces[s.Workspace].MarkDirty()
		}
	}
	for _, si := range shown {
		m.show(m.screens[si].Workspace, si)
	}
	m.logger.Info("screens changed", "screens", len(m.screens))
	return nil
}
