package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// PublishSupportingCheck creates the _NET_SUPPORTING_WM_CHECK child window
// and names the manager on it, so pagers and panels can detect us.
func (c *Connection) PublishSupportingCheck(name string) error {
	conn := c.XUtil.Conn()
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return fmt.Errorf("failed to allocate check window: %w", err)
	}
	err = xproto.CreateWindowChecked(conn, 0, win, c.Root, -1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("failed to create check window: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, c.Root, win); err != nil {
		return err
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, win, win); err != nil {
		return err
	}
	return ewmh.WmNameSet(c.XUtil, win, name)
}

// SetSupported publishes _NET_SUPPORTED.
func (c *Connection) SetSupported(atoms []string) error {
	return ewmh.SupportedSet(c.XUtil, atoms)
}

// SetDesktops publishes the desktop count and names.
func (c *Connection) SetDesktops(names []string) error {
	if err := ewmh.NumberOfDesktopsSet(c.XUtil, uint(len(names))); err != nil {
		return fmt.Errorf("failed to set desktop count: %w", err)
	}
	if err := ewmh.DesktopNamesSet(c.XUtil, names); err != nil {
		return fmt.Errorf("failed to set desktop names: %w", err)
	}
	return nil
}

// SetCurrentDesktop publishes _NET_CURRENT_DESKTOP.
func (c *Connection) SetCurrentDesktop(index int) error {
	return ewmh.CurrentDesktopSet(c.XUtil, uint(index))
}

// SetActiveWindow publishes _NET_ACTIVE_WINDOW; 0 clears it.
func (c *Connection) SetActiveWindow(win xproto.Window) error {
	return ewmh.ActiveWindowSet(c.XUtil, win)
}

// SetClientList publishes _NET_CLIENT_LIST in mapping order.
func (c *Connection) SetClientList(wins []xproto.Window) error {
	return ewmh.ClientListSet(c.XUtil, wins)
}
