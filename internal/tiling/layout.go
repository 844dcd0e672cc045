package tiling

import (
	"fmt"
	"math"
	"sort"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Built-in layout names.
const (
	LayoutMasterStack           = "master-stack"
	LayoutMasterStackHorizontal = "master-stack-horizontal"
	LayoutMonocle               = "monocle"
	LayoutGrid                  = "grid"
)

// Placement is the target geometry of one tiled window.
// Clamped is set when gaps or borders left no room and the extent was
// raised to MinExtent.
type Placement struct {
	ID      platform.WindowID
	Rect    platform.Rect
	Clamped bool
}

// Layout computes geometry for the tiled windows of a workspace.
// Implementations must be pure: same input, same output.
type Layout interface {
	Name() string
	Arrange(region platform.Rect, ids []platform.WindowID, p Params) []Placement
}

// CellFunc splits region into n cells that cover it without overlap.
// Gaps and borders are applied afterwards by the layout.
type CellFunc func(region platform.Rect, n int, p Params) []platform.Rect

type cellLayout struct {
	name  string
	cells CellFunc
}

// NewLayout wraps a CellFunc as a named Layout.
func NewLayout(name string, cells CellFunc) Layout {
	return cellLayout{name: name, cells: cells}
}

func (l cellLayout) Name() string { return l.name }

func (l cellLayout) Arrange(region platform.Rect, ids []platform.WindowID, p Params) []Placement {
	if len(ids) == 0 {
		return nil
	}
	cells := l.cells(region, len(ids), p)

	placements := make([]Placement, 0, len(ids))
	for i, id := range ids {
		// A strategy that returns too few cells stacks the rest on the region.
		cell := region
		if i < len(cells) {
			cell = cells[i]
		}
		rect, clamped := Finish(region, cell, p)
		placements = append(placements, Placement{ID: id, Rect: rect, Clamped: clamped})
	}
	return placements
}

// Finish deflates a raw cell by the gap (full against the region edge,
// half against neighbours), then by the border on both sides, and clamps
// the result to MinExtent.
func Finish(region, cell platform.Rect, p Params) (platform.Rect, bool) {
	gap := p.Gap
	if gap < 0 {
		gap = 0
	}
	lead, trail := gap/2, gap-gap/2

	left, top, right, bottom := lead, lead, trail, trail
	if cell.X <= region.X {
		left = gap
	}
	if cell.Y <= region.Y {
		top = gap
	}
	if cell.X+cell.Width >= region.X+region.Width {
		right = gap
	}
	if cell.Y+cell.Height >= region.Y+region.Height {
		bottom = gap
	}

	border := p.BorderWidth
	if border < 0 {
		border = 0
	}

	out := platform.Rect{
		X:      cell.X + left,
		Y:      cell.Y + top,
		Width:  cell.Width - left - right - 2*border,
		Height: cell.Height - top - bottom - 2*border,
	}

	clamped := false
	if out.Width < MinExtent {
		out.Width = MinExtent
		clamped = true
	}
	if out.Height < MinExtent {
		out.Height = MinExtent
		clamped = true
	}
	return out, clamped
}

// MasterStackCells puts the first cell on the left taking ratio of the
// width and splits the rest of the width into equal rows.
func MasterStackCells(region platform.Rect, n int, p Params) []platform.Rect {
	return masterStack(region, n, p.Ratio, false)
}

// MasterStackHorizontalCells puts the master on top and the stack below,
// split into equal columns.
func MasterStackHorizontalCells(region platform.Rect, n int, p Params) []platform.Rect {
	return masterStack(region, n, p.Ratio, true)
}

func masterStack(region platform.Rect, n int, ratio float64, horizontal bool) []platform.Rect {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []platform.Rect{region}
	}

	// Work in a frame where the primary axis is x, then swap back.
	r := region
	if horizontal {
		r = transpose(region)
	}

	masterWidth := int(float64(r.Width) * ratio)
	cells := make([]platform.Rect, 0, n)
	cells = append(cells, platform.Rect{X: r.X, Y: r.Y, Width: masterWidth, Height: r.Height})

	stackCount := n - 1
	slot := r.Height / stackCount
	y := r.Y
	for i := 0; i < stackCount; i++ {
		h := slot
		if i == stackCount-1 {
			h = r.Y + r.Height - y
		}
		cells = append(cells, platform.Rect{X: r.X + masterWidth, Y: y, Width: r.Width - masterWidth, Height: h})
		y += h
	}

	if horizontal {
		for i := range cells {
			cells[i] = transpose(cells[i])
		}
	}
	return cells
}

func transpose(r platform.Rect) platform.Rect {
	return platform.Rect{X: r.Y, Y: r.X, Width: r.Height, Height: r.Width}
}

// MonocleCells gives every window the whole region. Which one is visible
// is decided by stacking order, not here.
func MonocleCells(region platform.Rect, n int, _ Params) []platform.Rect {
	cells := make([]platform.Rect, n)
	for i := range cells {
		cells[i] = region
	}
	return cells
}

// CalculateGrid determines the grid dimensions for the given number of windows
func CalculateGrid(numWindows int) (rows, cols int) {
	if numWindows <= 0 {
		return 0, 0
	}

	// Columns first (ceiling of square root), then the rows needed.
	cols = int(math.Ceil(math.Sqrt(float64(numWindows))))
	rows = int(math.Ceil(float64(numWindows) / float64(cols)))

	return rows, cols
}

// GridCells lays windows out in a near-square grid. A short last row
// stretches its windows to fill the width.
func GridCells(region platform.Rect, n int, _ Params) []platform.Rect {
	rows, cols := CalculateGrid(n)
	if rows == 0 {
		return nil
	}

	cells := make([]platform.Rect, 0, n)
	rowHeight := region.Height / rows
	y := region.Y
	for row := 0; row < rows; row++ {
		h := rowHeight
		if row == rows-1 {
			h = region.Y + region.Height - y
		}

		inRow := cols
		if remaining := n - row*cols; remaining < cols {
			inRow = remaining
		}
		colWidth := region.Width / inRow
		x := region.X
		for col := 0; col < inRow; col++ {
			w := colWidth
			if col == inRow-1 {
				w = region.X + region.Width - x
			}
			cells = append(cells, platform.Rect{X: x, Y: y, Width: w, Height: h})
			x += w
		}
		y += h
	}
	return cells
}

// Registry maps layout names to strategies.
type Registry struct {
	layouts map[string]Layout
}

// NewRegistry returns a registry holding the built-in layouts.
func NewRegistry() *Registry {
	r := &Registry{layouts: make(map[string]Layout)}
	r.layouts[LayoutMasterStack] = NewLayout(LayoutMasterStack, MasterStackCells)
	r.layouts[LayoutMasterStackHorizontal] = NewLayout(LayoutMasterStackHorizontal, MasterStackHorizontalCells)
	r.layouts[LayoutMonocle] = NewLayout(LayoutMonocle, MonocleCells)
	r.layouts[LayoutGrid] = NewLayout(LayoutGrid, GridCells)
	return r
}

// Register adds a user-defined layout. Names must be unique.
func (r *Registry) Register(l Layout) error {
	if l == nil || l.Name() == "" {
		return fmt.Errorf("layout must have a name")
	}
	if _, exists := r.layouts[l.Name()]; exists {
		return fmt.Errorf("layout %q already registered", l.Name())
	}
	r.layouts[l.Name()] = l
	return nil
}

// Get looks up a layout by name.
func (r *Registry) Get(name string) (Layout, bool) {
	l, ok := r.layouts[name]
	return l, ok
}

// Names returns the registered layout names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
