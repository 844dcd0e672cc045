package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xprop"
)

var (
	// ErrClosed is returned by WaitForEvent once the server connection is gone.
	ErrClosed = errors.New("x11 connection closed")
	// ErrAnotherWM is returned by ClaimRoot when substructure redirection
	// is already held by someone else.
	ErrAnotherWM = errors.New("another window manager is running")
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	hasRandr bool
}

// NewConnection connects to display ("" means $DISPLAY) and initializes the
// extensions the manager uses.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for global hotkeys)
	keybind.Initialize(xu)

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	if err := randr.Init(xu.Conn()); err == nil {
		c.hasRandr = true
	}
	return c, nil
}

// ClaimRoot selects substructure redirection on the root window. Only one
// client may hold it, so failure means another window manager is running.
func (c *Connection) ClaimRoot() error {
	mask := uint32(xproto.EventMaskSubstructureRedirect |
		xproto.EventMaskSubstructureNotify |
		xproto.EventMaskStructureNotify |
		xproto.EventMaskPropertyChange |
		xproto.EventMaskEnterWindow)
	err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), c.Root,
		xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return ErrAnotherWM
		}
		return fmt.Errorf("failed to select root events: %w", err)
	}
	if c.hasRandr {
		randr.SelectInput(c.XUtil.Conn(), c.Root, randr.NotifyMaskScreenChange)
	}
	return nil
}

// WaitForEvent blocks for the next event or asynchronous request error.
// Request errors come back as a nil event and a non-nil xgb.Error.
func (c *Connection) WaitForEvent() (xgb.Event, error) {
	ev, err := c.XUtil.Conn().WaitForEvent()
	if ev == nil && err == nil {
		return nil, ErrClosed
	}
	return ev, err
}

// RefreshKeyboardMapping reloads the keyboard and modifier maps after a
// MappingNotify so keysym lookups and grabs use the new layout.
func (c *Connection) RefreshKeyboardMapping() {
	km, mm := keybind.MapsGet(c.XUtil)
	keybind.KeyMapSet(c.XUtil, km)
	keybind.ModMapSet(c.XUtil, mm)
}

// Atom interns name.
func (c *Connection) Atom(name string) (xproto.Atom, error) {
	return xprop.Atm(c.XUtil, name)
}

// AtomName resolves an atom back to its name.
func (c *Connection) AtomName(atom xproto.Atom) (string, error) {
	return xprop.AtomName(c.XUtil, atom)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
