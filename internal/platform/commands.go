package platform

// Command is a request sent to the window system as part of a batch.
type Command interface {
	CommandKind() string
}

// WindowState mirrors the ICCCM WM_STATE values.
type WindowState int

const (
	StateWithdrawn WindowState = 0
	StateNormal    WindowState = 1
	StateIconic    WindowState = 3
)

// Configure sets a window's geometry and border width.
type Configure struct {
	Window      WindowID
	Geometry    Rect
	BorderWidth int
}

type Map struct{ Window WindowID }
type Unmap struct{ Window WindowID }
type Destroy struct{ Window WindowID }

// Close asks the client to close itself via WM_DELETE_WINDOW.
type Close struct{ Window WindowID }

type Focus struct{ Window WindowID }
type Raise struct{ Window WindowID }

// Manage subscribes to the events the manager needs from a window.
// Manage on the root window claims substructure redirection.
type Manage struct{ Window WindowID }

type GrabKeys struct{ Combos []string }
type GrabButtons struct{ Combos []string }
type GrabPointer struct{ Window WindowID }
type UngrabPointer struct{}

type WarpPointer struct{ X, Y int }

type SetDesktops struct{ Names []string }
type SetCurrentDesktop struct{ Index int }
type SetActiveWindow struct{ Window WindowID }
type SetClientList struct{ Windows []WindowID }
type SetSupported struct{ Atoms []string }

type SetWindowState struct {
	Window WindowID
	State  WindowState
}

// SetBorderColor paints a window's border with a 24-bit RGB pixel.
type SetBorderColor struct {
	Window WindowID
	Color  uint32
}

func (Configure) CommandKind() string         { return "configure" }
func (Map) CommandKind() string               { return "map" }
func (Unmap) CommandKind() string             { return "unmap" }
func (Destroy) CommandKind() string           { return "destroy" }
func (Close) CommandKind() string             { return "close" }
func (Focus) CommandKind() string             { return "focus" }
func (Raise) CommandKind() string             { return "raise" }
func (Manage) CommandKind() string            { return "manage" }
func (GrabKeys) CommandKind() string          { return "grab-keys" }
func (GrabButtons) CommandKind() string       { return "grab-buttons" }
func (GrabPointer) CommandKind() string       { return "grab-pointer" }
func (UngrabPointer) CommandKind() string     { return "ungrab-pointer" }
func (WarpPointer) CommandKind() string       { return "warp-pointer" }
func (SetDesktops) CommandKind() string       { return "set-desktops" }
func (SetCurrentDesktop) CommandKind() string { return "set-current-desktop" }
func (SetActiveWindow) CommandKind() string   { return "set-active-window" }
func (SetClientList) CommandKind() string     { return "set-client-list" }
func (SetSupported) CommandKind() string      { return "set-supported" }
func (SetWindowState) CommandKind() string    { return "set-window-state" }
func (SetBorderColor) CommandKind() string    { return "set-border-color" }

// IsGeometry reports whether cmd changes what is on screen: a configure,
// map or unmap.
func IsGeometry(cmd Command) bool {
	switch cmd.(type) {
	case Configure, Map, Unmap:
		return true
	}
	return false
}
