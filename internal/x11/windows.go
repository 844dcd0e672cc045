package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// Strut mirrors _NET_WM_STRUT_PARTIAL.
type Strut struct {
	Left, Right, Top, Bottom int

	LeftStartY, LeftEndY     int
	RightStartY, RightEndY   int
	TopStartX, TopEndX       int
	BottomStartX, BottomEndX int
}

// WindowInfo is a one-shot read of the attributes and properties the
// manager classifies windows by.
type WindowInfo struct {
	Geometry         Geometry
	OverrideRedirect bool
	Mapped           bool
	Class            string
	Instance         string
	Title            string
	TransientFor     xproto.Window
	Types            []string
	Protocols        []string
	Strut            Strut
}

// WindowInfo reads everything about a window. It fails only when the
// window itself is gone; missing properties are left empty.
func (c *Connection) WindowInfo(win xproto.Window) (WindowInfo, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return WindowInfo{}, fmt.Errorf("window 0x%x: %w", win, err)
	}
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return WindowInfo{}, fmt.Errorf("window 0x%x: %w", win, err)
	}

	info := WindowInfo{
		Geometry: Geometry{
			X:           int(geom.X),
			Y:           int(geom.Y),
			Width:       int(geom.Width),
			Height:      int(geom.Height),
			BorderWidth: int(geom.BorderWidth),
		},
		OverrideRedirect: attrs.OverrideRedirect,
		Mapped:           attrs.MapState != xproto.MapStateUnmapped,
		Title:            c.windowTitle(win),
	}

	if wmClass, err := icccm.WmClassGet(c.XUtil, win); err == nil && wmClass != nil {
		info.Class = strings.TrimSpace(wmClass.Class)
		info.Instance = strings.TrimSpace(wmClass.Instance)
	}
	if parent, err := icccm.WmTransientForGet(c.XUtil, win); err == nil && parent != win {
		info.TransientFor = parent
	}
	if types, err := ewmh.WmWindowTypeGet(c.XUtil, win); err == nil {
		info.Types = types
	}
	if protocols, err := icccm.WmProtocolsGet(c.XUtil, win); err == nil {
		info.Protocols = protocols
	}
	info.Strut = c.windowStrut(win)

	return info, nil
}

func (c *Connection) windowTitle(win xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, win)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, win)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// windowStrut reads _NET_WM_STRUT_PARTIAL, falling back to _NET_WM_STRUT
// whose reservations span the whole edge. Zero ranges mean "whole edge".
func (c *Connection) windowStrut(win xproto.Window) Strut {
	if sp, err := ewmh.WmStrutPartialGet(c.XUtil, win); err == nil && sp != nil {
		return Strut{
			Left:         int(sp.Left),
			Right:        int(sp.Right),
			Top:          int(sp.Top),
			Bottom:       int(sp.Bottom),
			LeftStartY:   int(sp.LeftStartY),
			LeftEndY:     int(sp.LeftEndY),
			RightStartY:  int(sp.RightStartY),
			RightEndY:    int(sp.RightEndY),
			TopStartX:    int(sp.TopStartX),
			TopEndX:      int(sp.TopEndX),
			BottomStartX: int(sp.BottomStartX),
			BottomEndX:   int(sp.BottomEndX),
		}
	}
	if s, err := ewmh.WmStrutGet(c.XUtil, win); err == nil && s != nil {
		return Strut{
			Left:   int(s.Left),
			Right:  int(s.Right),
			Top:    int(s.Top),
			Bottom: int(s.Bottom),
		}
	}
	return Strut{}
}

// TopLevelWindows lists the children of the root window in stacking order.
func (c *Connection) TopLevelWindows() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query window tree: %w", err)
	}
	return tree.Children, nil
}

// Subscribe selects the per-window events the manager follows.
func (c *Connection) Subscribe(win xproto.Window) {
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), win, xproto.CwEventMask,
		[]uint32{xproto.EventMaskEnterWindow | xproto.EventMaskPropertyChange})
}

// Configure moves, resizes and sets the border of a window in one request.
func (c *Connection) Configure(win xproto.Window, g Geometry) {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY |
		xproto.ConfigWindowWidth | xproto.ConfigWindowHeight |
		xproto.ConfigWindowBorderWidth)
	values := []uint32{
		uint32(int32(g.X)),
		uint32(int32(g.Y)),
		uint32(max(g.Width, 1)),
		uint32(max(g.Height, 1)),
		uint32(max(g.BorderWidth, 0)),
	}
	xproto.ConfigureWindow(c.XUtil.Conn(), win, mask, values)
}

// SetBorderColor sets the border pixel of win. Pixels are 24-bit RGB on
// the TrueColor visuals the manager runs with.
func (c *Connection) SetBorderColor(win xproto.Window, pixel uint32) {
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), win, xproto.CwBorderPixel, []uint32{pixel})
}

// Raise puts a window on top of its siblings.
func (c *Connection) Raise(win xproto.Window) {
	xproto.ConfigureWindow(c.XUtil.Conn(), win, xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove})
}

func (c *Connection) Map(win xproto.Window) {
	xproto.MapWindow(c.XUtil.Conn(), win)
}

func (c *Connection) Unmap(win xproto.Window) {
	xproto.UnmapWindow(c.XUtil.Conn(), win)
}

// Kill disconnects the client owning win.
func (c *Connection) Kill(win xproto.Window) {
	xproto.KillClient(c.XUtil.Conn(), uint32(win))
}

// Focus gives input focus to win, or to the root when win is 0.
func (c *Connection) Focus(win xproto.Window) {
	if win == 0 {
		win = c.Root
	}
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, win, xproto.TimeCurrentTime)
}

// CloseGracefully requests graceful window close via WM_DELETE_WINDOW.
func (c *Connection) CloseGracefully(win xproto.Window) error {
	deleteAtom, err := c.Atom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.Atom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), uint32(xproto.TimeCurrentTime), 0, 0, 0}),
	}

	xproto.SendEvent(c.XUtil.Conn(), false, win, xproto.EventMaskNoEvent, string(ev.Bytes()))
	return nil
}

// GrabPointer takes an active pointer grab for a drag. It reports false
// when the server refused the grab.
func (c *Connection) GrabPointer() (bool, error) {
	mask := uint16(xproto.EventMaskButtonRelease | xproto.EventMaskButtonMotion | xproto.EventMaskPointerMotion)
	reply, err := xproto.GrabPointer(c.XUtil.Conn(), false, c.Root, mask,
		xproto.GrabModeAsync, xproto.GrabModeAsync, xproto.WindowNone, xproto.CursorNone,
		xproto.TimeCurrentTime).Reply()
	if err != nil {
		return false, err
	}
	return reply.Status == xproto.GrabStatusSuccess, nil
}

func (c *Connection) UngrabPointer() {
	xproto.UngrabPointer(c.XUtil.Conn(), xproto.TimeCurrentTime)
}

// WarpPointer moves the pointer to x, y in root coordinates.
func (c *Connection) WarpPointer(x, y int) {
	xproto.WarpPointer(c.XUtil.Conn(), xproto.WindowNone, c.Root, 0, 0, 0, 0, int16(x), int16(y))
}

// SetWindowState writes the ICCCM WM_STATE property.
func (c *Connection) SetWindowState(win xproto.Window, state int) error {
	return icccm.WmStateSet(c.XUtil, win, &icccm.WmState{State: uint(state)})
}
