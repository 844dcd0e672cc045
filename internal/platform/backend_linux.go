//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/x11"
)

// ManagerName is published on the supporting-WM check window.
const ManagerName = "tilewm"

// X11Conn drives an X server behind the Conn interface. A pump goroutine
// translates raw X events into platform events; Apply issues requests
// unchecked and lets asynchronous errors surface through the pump log.
type X11Conn struct {
	conn   *x11.Connection
	binder *hotkeys.Binder
	logger *slog.Logger

	events    chan Event
	synthetic chan Event
	done      chan struct{}
	quit      chan struct{}

	mu     sync.Mutex
	closed bool
}

var _ Conn = (*X11Conn)(nil)

// NewX11Conn opens display ("" means $DISPLAY) and starts the event pump.
func NewX11Conn(display string, logger *slog.Logger) (*X11Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	c := &X11Conn{
		conn:      conn,
		binder:    hotkeys.NewBinder(conn.XUtil, conn.Root, logger),
		logger:    logger,
		events:    make(chan Event, 64),
		synthetic: make(chan Event, 8),
		done:      make(chan struct{}),
		quit:      make(chan struct{}),
	}
	go c.pump()
	return c, nil
}

func (c *X11Conn) Root() WindowID {
	return WindowID(c.conn.Root)
}

// pump reads the X connection until it closes. X request errors are
// expected (windows vanish between event and request) and only logged.
func (c *X11Conn) pump() {
	defer close(c.done)
	for {
		ev, err := c.conn.WaitForEvent()
		if errors.Is(err, x11.ErrClosed) {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.logger.Debug("x11 request error", "error", err)
			continue
		}
		if out := c.translate(ev); out != nil && !c.deliver(out) {
			return
		}
	}
}

// deliver hands ev to NextEvent. It gives up and reports false once Close
// has been called, so a reader that stopped cannot wedge the pump.
func (c *X11Conn) deliver(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.quit:
		return false
	}
}

func (c *X11Conn) translate(ev xgb.Event) Event {
	root := c.conn.Root
	switch e := ev.(type) {
	case xproto.MapRequestEvent:
		return MapRequest{Window: WindowID(e.Window)}
	case xproto.UnmapNotifyEvent:
		// Root substructure events only; the window's own copy would
		// double count.
		if e.Event != root {
			return nil
		}
		return UnmapNotify{Window: WindowID(e.Window)}
	case xproto.DestroyNotifyEvent:
		if e.Event != root {
			return nil
		}
		return DestroyNotify{Window: WindowID(e.Window)}
	case xproto.ConfigureRequestEvent:
		return configureRequest(e)
	case xproto.EnterNotifyEvent:
		return EnterNotify{
			Window: WindowID(e.Event),
			RootX:  int(e.RootX),
			RootY:  int(e.RootY),
			Normal: e.Mode == xproto.NotifyModeNormal && e.Detail != xproto.NotifyDetailInferior,
		}
	case xproto.ButtonPressEvent:
		combo, ok := c.binder.ButtonCombo(e.State, e.Detail)
		if !ok {
			return nil
		}
		return ButtonPress{Window: WindowID(e.Child), Combo: combo, RootX: int(e.RootX), RootY: int(e.RootY)}
	case xproto.ButtonReleaseEvent:
		return ButtonRelease{Window: WindowID(e.Child), RootX: int(e.RootX), RootY: int(e.RootY)}
	case xproto.MotionNotifyEvent:
		return MotionNotify{Window: WindowID(e.Child), RootX: int(e.RootX), RootY: int(e.RootY)}
	case xproto.KeyPressEvent:
		combo, ok := c.binder.KeyCombo(e.State, e.Detail)
		if !ok {
			c.logger.Debug("unbound key press", "keycode", e.Detail, "mods", c.binder.DescribeState(e.State))
			return nil
		}
		return KeyPress{Window: WindowID(e.Child), Combo: combo}
	case xproto.MappingNotifyEvent:
		if e.Request == xproto.MappingPointer {
			return nil
		}
		c.conn.RefreshKeyboardMapping()
		return KeymapChange{}
	case randr.ScreenChangeNotifyEvent:
		return ScreenChange{}
	}
	return nil
}

func configureRequest(e xproto.ConfigureRequestEvent) ConfigureRequest {
	req := ConfigureRequest{
		Window: WindowID(e.Window),
		Geometry: Rect{
			X:      int(e.X),
			Y:      int(e.Y),
			Width:  int(e.Width),
			Height: int(e.Height),
		},
		BorderWidth: int(e.BorderWidth),
	}
	bits := []struct {
		x   uint16
		out ConfigureMask
	}{
		{xproto.ConfigWindowX, ConfigureX},
		{xproto.ConfigWindowY, ConfigureY},
		{xproto.ConfigWindowWidth, ConfigureWidth},
		{xproto.ConfigWindowHeight, ConfigureHeight},
		{xproto.ConfigWindowBorderWidth, ConfigureBorder},
	}
	for _, b := range bits {
		if e.ValueMask&b.x != 0 {
			req.Mask |= b.out
		}
	}
	return req
}

// NextEvent returns the next translated event. Synthetic events raised by
// Apply (a refused pointer grab) are delivered first.
func (c *X11Conn) NextEvent(ctx context.Context) (Event, error) {
	select {
	case ev := <-c.synthetic:
		return ev, nil
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev := <-c.synthetic:
		return ev, nil
	case ev := <-c.events:
		return ev, nil
	case <-c.done:
		return nil, ErrDisconnected
	}
}

// Displays returns all active displays, ordered left to right.
func (c *X11Conn) Displays() ([]Display, error) {
	monitors, err := c.conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}

	sort.SliceStable(displays, func(i, j int) bool {
		if displays[i].Bounds.X != displays[j].Bounds.X {
			return displays[i].Bounds.X < displays[j].Bounds.X
		}
		return displays[i].Bounds.Y < displays[j].Bounds.Y
	})

	return displays, nil
}

func (c *X11Conn) RootBounds() Rect {
	g, err := c.conn.RootGeometry()
	if err != nil {
		return Rect{}
	}
	return Rect{Width: g.Width, Height: g.Height}
}

// ExistingWindows lists the root's children so already-mapped windows
// can be adopted at startup.
func (c *X11Conn) ExistingWindows() ([]WindowID, error) {
	wins, err := c.conn.TopLevelWindows()
	if err != nil {
		return nil, c.wrap(err)
	}
	out := make([]WindowID, 0, len(wins))
	for _, w := range wins {
		out = append(out, WindowID(w))
	}
	return out, nil
}

func (c *X11Conn) Properties(id WindowID) (WindowProperties, error) {
	info, err := c.conn.WindowInfo(xproto.Window(id))
	if err != nil {
		if c.isClosed() {
			return WindowProperties{}, ErrDisconnected
		}
		return WindowProperties{}, fmt.Errorf("%w: %v", ErrNoWindow, err)
	}
	return WindowProperties{
		ID: id,
		Geometry: Rect{
			X:      info.Geometry.X,
			Y:      info.Geometry.Y,
			Width:  info.Geometry.Width,
			Height: info.Geometry.Height,
		},
		BorderWidth:      info.Geometry.BorderWidth,
		OverrideRedirect: info.OverrideRedirect,
		Mapped:           info.Mapped,
		Class:            info.Class,
		Instance:         info.Instance,
		Title:            info.Title,
		TransientFor:     WindowID(info.TransientFor),
		Types:            info.Types,
		Protocols:        info.Protocols,
		Strut:            Strut(info.Strut),
	}, nil
}

func (c *X11Conn) Pointer() (int, int, error) {
	x, y, err := c.conn.QueryPointer()
	if err != nil {
		return 0, 0, c.wrap(err)
	}
	return x, y, nil
}

// Apply issues every command in order. Per-window failures are logged and
// skipped; only a dead connection or a refused root claim is returned.
func (c *X11Conn) Apply(cmds []Command) error {
	if c.isClosed() {
		return ErrDisconnected
	}
	for _, cmd := range cmds {
		if err := c.apply(cmd); err != nil {
			if errors.Is(err, x11.ErrAnotherWM) {
				return fmt.Errorf("%w: %v", ErrRootClaimed, err)
			}
			if c.isClosed() {
				return ErrDisconnected
			}
			c.logger.Debug("command failed", "command", cmd.CommandKind(), "error", err)
		}
	}
	return nil
}

func (c *X11Conn) apply(cmd Command) error {
	x := c.conn
	switch cmd := cmd.(type) {
	case Configure:
		x.Configure(xproto.Window(cmd.Window), x11.Geometry{
			X:           cmd.Geometry.X,
			Y:           cmd.Geometry.Y,
			Width:       cmd.Geometry.Width,
			Height:      cmd.Geometry.Height,
			BorderWidth: cmd.BorderWidth,
		})
	case Map:
		x.Map(xproto.Window(cmd.Window))
	case Unmap:
		x.Unmap(xproto.Window(cmd.Window))
	case Destroy:
		x.Kill(xproto.Window(cmd.Window))
	case Close:
		return x.CloseGracefully(xproto.Window(cmd.Window))
	case Focus:
		x.Focus(xproto.Window(cmd.Window))
	case Raise:
		x.Raise(xproto.Window(cmd.Window))
	case Manage:
		if xproto.Window(cmd.Window) == x.Root {
			if err := x.ClaimRoot(); err != nil {
				return err
			}
			return x.PublishSupportingCheck(ManagerName)
		}
		x.Subscribe(xproto.Window(cmd.Window))
	case GrabKeys:
		return c.binder.GrabKeys(cmd.Combos)
	case GrabButtons:
		return c.binder.GrabButtons(cmd.Combos)
	case GrabPointer:
		ok, err := x.GrabPointer()
		if err != nil || !ok {
			c.raise(GrabBroken{})
		}
		return err
	case UngrabPointer:
		x.UngrabPointer()
	case WarpPointer:
		x.WarpPointer(cmd.X, cmd.Y)
	case SetDesktops:
		return x.SetDesktops(cmd.Names)
	case SetCurrentDesktop:
		return x.SetCurrentDesktop(cmd.Index)
	case SetActiveWindow:
		return x.SetActiveWindow(xproto.Window(cmd.Window))
	case SetClientList:
		wins := make([]xproto.Window, len(cmd.Windows))
		for i, w := range cmd.Windows {
			wins[i] = xproto.Window(w)
		}
		return x.SetClientList(wins)
	case SetSupported:
		return x.SetSupported(cmd.Atoms)
	case SetWindowState:
		return x.SetWindowState(xproto.Window(cmd.Window), int(cmd.State))
	case SetBorderColor:
		x.SetBorderColor(xproto.Window(cmd.Window), cmd.Color)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

// raise queues a synthetic event without blocking the caller.
func (c *X11Conn) raise(ev Event) {
	select {
	case c.synthetic <- ev:
	default:
		c.logger.Warn("dropping synthetic event", "event", ev.EventKind())
	}
}

func (c *X11Conn) Close() error {
	c.mu.Lock()
	already := c.closed
	c.closed = true
	c.mu.Unlock()
	if !already {
		close(c.quit)
		c.conn.Close()
	}
	return nil
}

func (c *X11Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *X11Conn) wrap(err error) error {
	if c.isClosed() {
		return ErrDisconnected
	}
	return err
}

func displayFromMonitor(m x11.Monitor) Display {
	bounds := Rect{
		X:      m.X,
		Y:      m.Y,
		Width:  m.Width,
		Height: m.Height,
	}
	return Display{
		ID:     m.ID,
		Name:   m.Name,
		Bounds: bounds,
		Usable: bounds,
	}
}
