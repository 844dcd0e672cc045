package platform

import (
	"context"
	"errors"
	"slices"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Center returns the midpoint of r.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// Strut is the screen-edge space a dock window reserves, in root
// coordinates, with the ranges along each edge it applies to.
type Strut struct {
	Left, Right, Top, Bottom int

	LeftStartY, LeftEndY     int
	RightStartY, RightEndY   int
	TopStartX, TopEndX       int
	BottomStartX, BottomEndX int
}

// IsZero reports whether the strut reserves nothing.
func (s Strut) IsZero() bool {
	return s.Left == 0 && s.Right == 0 && s.Top == 0 && s.Bottom == 0
}

// Window type names as published in _NET_WM_WINDOW_TYPE.
const (
	TypeDesktop      = "_NET_WM_WINDOW_TYPE_DESKTOP"
	TypeDock         = "_NET_WM_WINDOW_TYPE_DOCK"
	TypeToolbar      = "_NET_WM_WINDOW_TYPE_TOOLBAR"
	TypeMenu         = "_NET_WM_WINDOW_TYPE_MENU"
	TypeUtility      = "_NET_WM_WINDOW_TYPE_UTILITY"
	TypeSplash       = "_NET_WM_WINDOW_TYPE_SPLASH"
	TypeDialog       = "_NET_WM_WINDOW_TYPE_DIALOG"
	TypeNotification = "_NET_WM_WINDOW_TYPE_NOTIFICATION"
	TypeNormal       = "_NET_WM_WINDOW_TYPE_NORMAL"
)

// WindowProperties is everything the manager asks about a window before
// deciding whether and how to manage it.
type WindowProperties struct {
	ID               WindowID
	Geometry         Rect
	BorderWidth      int
	OverrideRedirect bool
	Mapped           bool
	Class            string
	Instance         string
	Title            string
	TransientFor     WindowID
	Types            []string
	Protocols        []string
	Strut            Strut
}

// SupportsDelete reports whether the window accepts WM_DELETE_WINDOW.
func (p WindowProperties) SupportsDelete() bool {
	return slices.Contains(p.Protocols, "WM_DELETE_WINDOW")
}

// HasType reports whether the window declares the given window type.
func (p WindowProperties) HasType(t string) bool {
	return slices.Contains(p.Types, t)
}

// IsDock reports whether the window is a panel that reserves screen space.
func (p WindowProperties) IsDock() bool {
	return p.HasType(TypeDock) || !p.Strut.IsZero()
}

var (
	// ErrDisconnected is returned once the window-system connection is gone.
	ErrDisconnected = errors.New("window system connection closed")
	// ErrNoWindow is returned when a queried window no longer exists.
	ErrNoWindow = errors.New("no such window")
	// ErrRootClaimed is returned when another window manager owns the root.
	ErrRootClaimed = errors.New("another window manager is running")
)

// Conn abstracts the window-system connection the manager drives.
//
// NextEvent blocks until the next classified event. Apply sends a batch of
// commands; it only fails when the connection itself is unusable or the
// root window cannot be claimed.
type Conn interface {
	Root() WindowID
	NextEvent(ctx context.Context) (Event, error)
	Displays() ([]Display, error)
	RootBounds() Rect
	ExistingWindows() ([]WindowID, error)
	Properties(id WindowID) (WindowProperties, error)
	Pointer() (x, y int, err error)
	Apply(cmds []Command) error
	Close() error
}
