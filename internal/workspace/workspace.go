// Package workspace holds the window membership, focus and layout state of
// one workspace, plus optional on-disk snapshots of all workspaces.
package workspace

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/ring"
	"github.com/1broseidon/tilewm/internal/tiling"
)

// GeometryLookup resolves the stored geometry of a client.
type GeometryLookup interface {
	Geometry(id platform.WindowID) (platform.Rect, bool)
}

// GeometryFunc adapts a function to GeometryLookup.
type GeometryFunc func(id platform.WindowID) (platform.Rect, bool)

func (f GeometryFunc) Geometry(id platform.WindowID) (platform.Rect, bool) { return f(id) }

// modeUndo remembers where a client was before its last mode toggle so that
// toggling straight back restores it exactly.
type modeUndo struct {
	id         platform.WindowID
	toTiled    bool
	ringIndex  int
	floatIndex int
	ringFocus  platform.WindowID
	floatFocus platform.WindowID
	gen        uint64
}

// Workspace owns an ordered ring of tiled clients and a set of floating
// ones. Floating holds fullscreen clients too: neither takes part in layout.
type Workspace struct {
	Name string

	tiled      *ring.Ring[platform.WindowID]
	floating   []platform.WindowID
	floatFocus platform.WindowID
	history    []platform.WindowID

	layout tiling.Layout
	params tiling.Params
	dirty  bool

	gen  uint64
	undo *modeUndo
}

// New creates an empty workspace using layout with params.
func New(name string, layout tiling.Layout, params tiling.Params) *Workspace {
	return &Workspace{
		Name:   name,
		tiled:  ring.New[platform.WindowID](),
		layout: layout,
		params: params,
	}
}

// Len is the number of member clients.
func (w *Workspace) Len() int {
	return w.tiled.Len() + len(w.floating)
}

// Contains reports membership.
func (w *Workspace) Contains(id platform.WindowID) bool {
	return w.tiled.Contains(id) || slices.Contains(w.floating, id)
}

// IsTiled reports whether id is in the tiled ring.
func (w *Workspace) IsTiled(id platform.WindowID) bool {
	return w.tiled.Contains(id)
}

// Tiled returns the tiled clients in ring order, master first.
func (w *Workspace) Tiled() []platform.WindowID {
	return w.tiled.Items()
}

// Floating returns the floating clients in insertion order.
func (w *Workspace) Floating() []platform.WindowID {
	return slices.Clone(w.floating)
}

// Members returns tiled then floating clients.
func (w *Workspace) Members() []platform.WindowID {
	return append(w.tiled.Items(), w.floating...)
}

// Master returns the front of the tiled ring.
func (w *Workspace) Master() (platform.WindowID, bool) {
	return w.tiled.Front()
}

// Focused returns the focused client: the focused floating client if there
// is one, otherwise the ring focus.
func (w *Workspace) Focused() (platform.WindowID, bool) {
	if w.floatFocus != 0 {
		return w.floatFocus, true
	}
	return w.tiled.Focused()
}

// Dirty reports whether the layout needs recomputing.
func (w *Workspace) Dirty() bool { return w.dirty }

// MarkDirty flags the workspace for recomputation.
func (w *Workspace) MarkDirty() { w.dirty = true }

func (w *Workspace) mutated() {
	w.gen++
	w.dirty = true
	w.noteFocus()
}

func (w *Workspace) noteFocus() {
	id, ok := w.Focused()
	if !ok {
		return
	}
	w.history = slices.DeleteFunc(w.history, func(h platform.WindowID) bool { return h == id })
	w.history = append([]platform.WindowID{id}, w.history...)
}

// Add inserts id. Tiled clients go right after the ring focus and take
// focus, so the first tiled client is master. Other modes join the floating
// set and take focus. Adding a member again does nothing.
func (w *Workspace) Add(id platform.WindowID, mode client.Mode) bool {
	if id == 0 || w.Contains(id) {
		return false
	}
	if mode == client.Tiled {
		w.tiled.InsertAfterFocus(id)
		w.floatFocus = 0
	} else {
		w.floating = append(w.floating, id)
		w.floatFocus = id
	}
	w.mutated()
	return true
}

// Append adds id at the end of the tiled ring (or floating set) and gives it
// focus. It is used for clients arriving from another workspace.
func (w *Workspace) Append(id platform.WindowID, mode client.Mode) bool {
	if id == 0 || w.Contains(id) {
		return false
	}
	if mode == client.Tiled {
		w.tiled.PushBack(id)
		w.tiled.SetFocus(id)
		w.floatFocus = 0
	} else {
		w.floating = append(w.floating, id)
		w.floatFocus = id
	}
	w.mutated()
	return true
}

// Remove deletes id from the workspace. Removing the master promotes the
// next ring element; removing the focused client moves focus to the ring's
// next element. Unknown ids are ignored.
func (w *Workspace) Remove(id platform.WindowID) bool {
	removed := w.tiled.Remove(id)
	if idx := slices.Index(w.floating, id); idx >= 0 {
		w.floating = slices.Delete(w.floating, idx, idx+1)
		removed = true
	}
	if !removed {
		return false
	}
	if w.floatFocus == id {
		w.floatFocus = 0
	}
	// The fallback focus is not a user choice, so history is left alone.
	w.history = slices.DeleteFunc(w.history, func(h platform.WindowID) bool { return h == id })
	w.gen++
	w.dirty = true
	return true
}

// RestorePriorFocus focuses the most recently focused client that is still
// a member. It reports false when there is none.
func (w *Workspace) RestorePriorFocus() bool {
	for _, id := range w.history {
		if w.Contains(id) {
			return w.Focus(id)
		}
	}
	return false
}

// Focus moves focus onto id.
func (w *Workspace) Focus(id platform.WindowID) bool {
	if cur, ok := w.Focused(); ok && cur == id {
		return true
	}
	switch {
	case w.tiled.Contains(id):
		w.tiled.SetFocus(id)
		w.floatFocus = 0
	case slices.Contains(w.floating, id):
		w.floatFocus = id
	default:
		return false
	}
	w.gen++
	w.noteFocus()
	return true
}

// CycleFocus moves focus delta steps through the tiled clients followed by
// the floating ones, wrapping around.
func (w *Workspace) CycleFocus(delta int) (platform.WindowID, bool) {
	order := w.Members()
	if len(order) == 0 {
		return 0, false
	}
	cur, ok := w.Focused()
	idx := 0
	if ok {
		idx = slices.Index(order, cur)
	}
	n := len(order)
	next := order[((idx+delta)%n+n)%n]
	w.Focus(next)
	return next, true
}

// Promote makes id the master, keeping the order of the rest.
func (w *Workspace) Promote(id platform.WindowID) bool {
	if !w.tiled.Promote(id) {
		return false
	}
	w.mutated()
	return true
}

// SetMode moves id between the tiled ring and the floating set. Toggling
// back with nothing else changed in between restores the ring position and
// focus exactly.
func (w *Workspace) SetMode(id platform.WindowID, mode client.Mode) bool {
	isTiled := w.tiled.Contains(id)
	floatIdx := slices.Index(w.floating, id)
	if !isTiled && floatIdx < 0 {
		return false
	}
	wantTiled := mode == client.Tiled
	if wantTiled == isTiled {
		return false
	}

	if u := w.undo; u != nil && u.id == id && u.gen == w.gen && u.toTiled != wantTiled {
		w.revert(u)
		w.undo = nil
		w.mutated()
		return true
	}

	ringFocus, _ := w.tiled.Focused()
	memo := &modeUndo{
		id:         id,
		toTiled:    wantTiled,
		ringIndex:  w.tiled.Index(id),
		floatIndex: floatIdx,
		ringFocus:  ringFocus,
		floatFocus: w.floatFocus,
	}

	focused, _ := w.Focused()
	if wantTiled {
		w.floating = slices.Delete(w.floating, floatIdx, floatIdx+1)
		w.tiled.InsertAfterFocus(id)
		if focused == id {
			w.floatFocus = 0
		} else if ringFocus != 0 {
			w.tiled.SetFocus(ringFocus)
		}
	} else {
		w.tiled.Remove(id)
		w.floating = append(w.floating, id)
		if focused == id {
			w.floatFocus = id
		}
	}

	w.mutated()
	memo.gen = w.gen
	w.undo = memo
	return true
}

func (w *Workspace) revert(u *modeUndo) {
	if u.toTiled {
		// Last toggle was floating -> tiled; put it back in the floating set.
		w.tiled.Remove(u.id)
		idx := min(max(u.floatIndex, 0), len(w.floating))
		w.floating = slices.Insert(w.floating, idx, u.id)
	} else {
		if idx := slices.Index(w.floating, u.id); idx >= 0 {
			w.floating = slices.Delete(w.floating, idx, idx+1)
		}
		w.tiled.InsertAt(u.ringIndex, u.id)
	}
	if u.ringFocus != 0 {
		w.tiled.SetFocus(u.ringFocus)
	}
	w.floatFocus = u.floatFocus
}

// Recompute returns target geometry for every member: layout placements for
// tiled clients, then floating clients at their stored geometry.
func (w *Workspace) Recompute(region platform.Rect, lookup GeometryLookup) []tiling.Placement {
	placements := w.layout.Arrange(region, w.tiled.Items(), w.params)
	for _, id := range w.floating {
		if lookup == nil {
			break
		}
		if g, ok := lookup.Geometry(id); ok {
			placements = append(placements, tiling.Placement{ID: id, Rect: g})
		}
	}
	w.dirty = false
	return placements
}

// Layout returns the active layout.
func (w *Workspace) Layout() tiling.Layout { return w.layout }

// SetLayout switches the active layout.
func (w *Workspace) SetLayout(l tiling.Layout) {
	if l == nil || (w.layout != nil && w.layout.Name() == l.Name()) {
		return
	}
	w.layout = l
	w.dirty = true
}

// Params returns the layout parameters.
func (w *Workspace) Params() tiling.Params { return w.params }

// SetParams assigns all parameters through the clamping setters and
// reports whether anything was clamped.
func (w *Workspace) SetParams(p tiling.Params) bool {
	clamped := w.params.SetRatio(p.Ratio)
	clamped = w.params.SetGap(p.Gap) || clamped
	clamped = w.params.SetBorderWidth(p.BorderWidth) || clamped
	w.dirty = true
	return clamped
}

// AdjustRatio changes the master ratio by delta and reports whether the
// result had to be clamped.
func (w *Workspace) AdjustRatio(delta float64) bool {
	clamped := w.params.SetRatio(w.params.Ratio + delta)
	w.dirty = true
	return clamped
}
