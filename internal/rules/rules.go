// Package rules decides how a newly mapped window is handled: left alone,
// treated as a dock, tiled or floated.
package rules

import (
	"strings"
	"sync"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Decision is the outcome of classifying a window.
type Decision int

const (
	// Unmanaged windows are mapped on request but never tracked.
	Unmanaged Decision = iota
	// Dock windows are mapped and their struts reserve screen space.
	Dock
	Tile
	Float
)

func (d Decision) String() string {
	switch d {
	case Unmanaged:
		return "unmanaged"
	case Dock:
		return "dock"
	case Tile:
		return "tile"
	case Float:
		return "float"
	}
	return "unknown"
}

var unmanagedTypes = []string{
	platform.TypeDesktop,
	platform.TypeNotification,
}

var floatingTypes = []string{
	platform.TypeDialog,
	platform.TypeUtility,
	platform.TypeSplash,
	platform.TypeMenu,
	platform.TypeToolbar,
}

// Rules classifies windows by override-redirect, window type, transient
// parent and WM_CLASS.
type Rules struct {
	mu              sync.RWMutex
	floatClasses    map[string]bool
	floatTransients bool
}

// New creates rules that float the given classes (case-insensitive) and,
// when floatTransients is set, every window with a transient parent.
func New(floatClasses []string, floatTransients bool) *Rules {
	r := &Rules{}
	r.Update(floatClasses, floatTransients)
	return r
}

// Update replaces the rule set.
func (r *Rules) Update(floatClasses []string, floatTransients bool) {
	classMap := make(map[string]bool)
	for _, class := range floatClasses {
		classMap[strings.ToLower(strings.TrimSpace(class))] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.floatClasses = classMap
	r.floatTransients = floatTransients
}

// Classify decides how to handle a window from its properties.
func (r *Rules) Classify(p platform.WindowProperties) Decision {
	if p.OverrideRedirect {
		return Unmanaged
	}
	for _, t := range unmanagedTypes {
		if p.HasType(t) {
			return Unmanaged
		}
	}
	if p.IsDock() {
		return Dock
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p.TransientFor != 0 && r.floatTransients {
		return Float
	}
	for _, t := range floatingTypes {
		if p.HasType(t) {
			return Float
		}
	}
	if r.isFloatClass(p.Class) || r.isFloatClass(p.Instance) {
		return Float
	}
	return Tile
}

// isFloatClass checks WM_CLASS against the float list. Callers hold mu.
func (r *Rules) isFloatClass(class string) bool {
	if class == "" {
		return false
	}
	return r.floatClasses[strings.ToLower(class)]
}
