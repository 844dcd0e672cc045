// Package ring provides an ordered container with a movable focus cursor.
//
// The tiled clients of a workspace live in a Ring: the front element is the
// master, the cursor is the keyboard focus.
package ring

// Ring is an ordered sequence of distinct values with a focus cursor.
// The zero value is an empty ring with no focus.
type Ring[T comparable] struct {
	items []T
	focus int
	init  bool
}

// New returns a ring holding items in order, focused on the first one.
func New[T comparable](items ...T) *Ring[T] {
	r := &Ring[T]{}
	for _, v := range items {
		r.PushBack(v)
	}
	return r
}

func (r *Ring[T]) lazyInit() {
	if !r.init {
		r.focus = -1
		r.init = true
	}
}

// Len reports the number of elements.
func (r *Ring[T]) Len() int {
	return len(r.items)
}

// Items returns a copy of the elements in ring order.
func (r *Ring[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Index returns the position of v, or -1.
func (r *Ring[T]) Index(v T) int {
	for i, item := range r.items {
		if item == v {
			return i
		}
	}
	return -1
}

// Contains reports whether v is in the ring.
func (r *Ring[T]) Contains(v T) bool {
	return r.Index(v) >= 0
}

// Front returns the first element.
func (r *Ring[T]) Front() (T, bool) {
	var zero T
	if len(r.items) == 0 {
		return zero, false
	}
	return r.items[0], true
}

// Focused returns the element under the cursor.
func (r *Ring[T]) Focused() (T, bool) {
	r.lazyInit()
	var zero T
	if r.focus < 0 || r.focus >= len(r.items) {
		return zero, false
	}
	return r.items[r.focus], true
}

// FocusIndex returns the cursor position, or -1 when the ring is empty.
func (r *Ring[T]) FocusIndex() int {
	r.lazyInit()
	return r.focus
}

// SetFocus moves the cursor onto v. It reports false if v is absent.
func (r *Ring[T]) SetFocus(v T) bool {
	r.lazyInit()
	idx := r.Index(v)
	if idx < 0 {
		return false
	}
	r.focus = idx
	return true
}

// InsertAfterFocus inserts v right after the focused element and focuses it.
// Inserting into an empty ring makes v the sole element and the focus.
// Values already present are left where they are.
func (r *Ring[T]) InsertAfterFocus(v T) bool {
	r.lazyInit()
	if r.Contains(v) {
		return false
	}
	pos := r.focus + 1
	r.insert(pos, v)
	r.focus = pos
	return true
}

// InsertAt inserts v at position i (clamped to the ring bounds) without
// moving the cursor off the element it was on. An empty ring focuses v.
func (r *Ring[T]) InsertAt(i int, v T) bool {
	r.lazyInit()
	if r.Contains(v) {
		return false
	}
	if i < 0 {
		i = 0
	}
	if i > len(r.items) {
		i = len(r.items)
	}
	r.insert(i, v)
	switch {
	case r.focus < 0:
		r.focus = i
	case i <= r.focus:
		r.focus++
	}
	return true
}

// PushBack appends v. An empty ring focuses v.
func (r *Ring[T]) PushBack(v T) bool {
	return r.InsertAt(len(r.items), v)
}

func (r *Ring[T]) insert(i int, v T) {
	var zero T
	r.items = append(r.items, zero)
	copy(r.items[i+1:], r.items[i:])
	r.items[i] = v
}

// Remove deletes v. Removing the focused element moves focus to the next
// element, else the previous one, else leaves the ring without focus.
// Removing an absent value is a no-op.
func (r *Ring[T]) Remove(v T) bool {
	r.lazyInit()
	idx := r.Index(v)
	if idx < 0 {
		return false
	}
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	switch {
	case len(r.items) == 0:
		r.focus = -1
	case idx < r.focus:
		r.focus--
	case idx == r.focus && r.focus >= len(r.items):
		r.focus = len(r.items) - 1
	}
	return true
}

// RemoveFocused deletes the focused element and returns it.
func (r *Ring[T]) RemoveFocused() (T, bool) {
	v, ok := r.Focused()
	if !ok {
		return v, false
	}
	r.Remove(v)
	return v, true
}

// RotateFocus moves the cursor delta steps, wrapping at both ends.
func (r *Ring[T]) RotateFocus(delta int) {
	r.lazyInit()
	n := len(r.items)
	if n == 0 {
		return
	}
	r.focus = ((r.focus+delta)%n + n) % n
}

// Promote moves v to the front, keeping the relative order of the other
// elements. The cursor stays on the element it was on.
func (r *Ring[T]) Promote(v T) bool {
	r.lazyInit()
	idx := r.Index(v)
	if idx < 0 {
		return false
	}
	if idx == 0 {
		return true
	}
	focused, hasFocus := r.Focused()
	copy(r.items[1:idx+1], r.items[:idx])
	r.items[0] = v
	if hasFocus {
		r.focus = r.Index(focused)
	}
	return true
}
