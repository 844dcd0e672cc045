package platform

// Event is a classified window-system or input event.
type Event interface {
	EventKind() string
}

// ConfigureMask selects which fields of a ConfigureRequest were set.
type ConfigureMask uint8

const (
	ConfigureX ConfigureMask = 1 << iota
	ConfigureY
	ConfigureWidth
	ConfigureHeight
	ConfigureBorder
)

// MapRequest asks the manager to map a window.
type MapRequest struct {
	Window WindowID
}

// UnmapNotify reports that a window was unmapped.
type UnmapNotify struct {
	Window WindowID
}

// DestroyNotify reports that a window is gone.
type DestroyNotify struct {
	Window WindowID
}

// ConfigureRequest is a client asking for a new geometry.
type ConfigureRequest struct {
	Window      WindowID
	Geometry    Rect
	BorderWidth int
	Mask        ConfigureMask
}

// EnterNotify reports the pointer crossing into a window. Normal is false
// for crossings caused by grabs, which focus-follows-pointer ignores.
type EnterNotify struct {
	Window WindowID
	RootX  int
	RootY  int
	Normal bool
}

// ButtonPress is a grabbed pointer button going down.
type ButtonPress struct {
	Window WindowID
	Combo  string
	RootX  int
	RootY  int
}

// ButtonRelease is a pointer button going up.
type ButtonRelease struct {
	Window WindowID
	RootX  int
	RootY  int
}

// MotionNotify is pointer movement while a drag grab is held.
type MotionNotify struct {
	Window WindowID
	RootX  int
	RootY  int
}

// GrabBroken reports that the pointer grab was taken away from the manager.
type GrabBroken struct{}

// KeyPress is a grabbed key combination, e.g. "Mod4-Return".
type KeyPress struct {
	Window WindowID
	Combo  string
}

// ScreenChange reports a change in the physical screen layout.
type ScreenChange struct{}

// KeymapChange reports a new keyboard mapping; key grabs must be redone.
type KeymapChange struct{}

func (MapRequest) EventKind() string       { return "map-request" }
func (UnmapNotify) EventKind() string      { return "unmap" }
func (DestroyNotify) EventKind() string    { return "destroy" }
func (ConfigureRequest) EventKind() string { return "configure-request" }
func (EnterNotify) EventKind() string      { return "enter" }
func (ButtonPress) EventKind() string      { return "button-press" }
func (ButtonRelease) EventKind() string    { return "button-release" }
func (MotionNotify) EventKind() string     { return "motion" }
func (GrabBroken) EventKind() string       { return "grab-broken" }
func (KeyPress) EventKind() string         { return "key-press" }
func (ScreenChange) EventKind() string     { return "screen-change" }
func (KeymapChange) EventKind() string     { return "keymap-change" }
