// Package screen tracks physical display regions and which workspace each
// one displays.
package screen

import (
	"github.com/1broseidon/tilewm/internal/platform"
)

// None marks a screen that displays no workspace.
const None = -1

// Screen is one physical display region.
type Screen struct {
	Index     int
	Name      string
	Geometry  platform.Rect
	Usable    platform.Rect
	Workspace int
}

// New creates a screen from a discovered display, showing no workspace.
func New(index int, d platform.Display) *Screen {
	usable := d.Usable
	if usable.Empty() {
		usable = d.Bounds
	}
	return &Screen{
		Index:     index,
		Name:      d.Name,
		Geometry:  d.Bounds,
		Usable:    usable,
		Workspace: None,
	}
}

// Activate displays workspace ws and returns the one it replaces.
// Hiding the previous workspace's windows is up to the caller; their state
// is untouched.
func (s *Screen) Activate(ws int) int {
	prev := s.Workspace
	s.Workspace = ws
	return prev
}

// Contains reports whether the point is on this screen.
func (s *Screen) Contains(x, y int) bool {
	return s.Geometry.Contains(x, y)
}

// Center returns the middle of the full geometry.
func (s *Screen) Center() (int, int) {
	return s.Geometry.Center()
}

// ApplyStruts recomputes the usable area from the full geometry and the
// struts of every dock window. root is the size of the root window.
func (s *Screen) ApplyStruts(root platform.Rect, struts []platform.Strut) {
	s.Usable = UsableArea(s.Geometry, root, struts)
}

// UsableArea shrinks monitor by the parts of each strut that overlap it.
// Each edge takes the largest reservation among all struts.
func UsableArea(monitor, root platform.Rect, struts []platform.Strut) platform.Rect {
	var acc edges
	for _, sp := range struts {
		accumulate(monitor, root, sp, &acc)
	}

	out := monitor
	out.X += acc.left
	out.Y += acc.top
	out.Width -= acc.left + acc.right
	out.Height -= acc.top + acc.bottom
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}

type edges struct {
	left, right, top, bottom int
}

func accumulate(mon, root platform.Rect, sp platform.Strut, acc *edges) {
	mx1, my1 := mon.X, mon.Y
	mx2, my2 := mon.X+mon.Width, mon.Y+mon.Height

	// Struts without ranges cover the whole edge.
	span := func(start, end, full int) (int, int) {
		if start == 0 && end == 0 {
			return 0, full
		}
		return start, end + 1
	}

	if sp.Top > 0 {
		x1, x2 := span(sp.TopStartX, sp.TopEndX, root.Width)
		acc.top = max(acc.top, overlap(mx1, my1, mx2, my2, x1, 0, x2, sp.Top).h)
	}
	if sp.Bottom > 0 {
		x1, x2 := span(sp.BottomStartX, sp.BottomEndX, root.Width)
		acc.bottom = max(acc.bottom, overlap(mx1, my1, mx2, my2, x1, root.Height-sp.Bottom, x2, root.Height).h)
	}
	if sp.Left > 0 {
		y1, y2 := span(sp.LeftStartY, sp.LeftEndY, root.Height)
		acc.left = max(acc.left, overlap(mx1, my1, mx2, my2, 0, y1, sp.Left, y2).w)
	}
	if sp.Right > 0 {
		y1, y2 := span(sp.RightStartY, sp.RightEndY, root.Height)
		acc.right = max(acc.right, overlap(mx1, my1, mx2, my2, root.Width-sp.Right, y1, root.Width, y2).w)
	}
}

type intersection struct {
	w int
	h int
}

func overlap(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}
