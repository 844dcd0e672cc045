package wm

import (
	"errors"
	"sync"
	"time"

	"github.com/1broseidon/tilewm/internal/platform"
)

var (
	// ErrConnection wraps failures of the window-system connection. It is
	// the only error that ends Run.
	ErrConnection = errors.New("connection error")
	// ErrUnknownWindow is returned for ids missing from the registry.
	ErrUnknownWindow = errors.New("unknown window")
	// ErrUnknownWorkspace is returned for workspace names not configured.
	ErrUnknownWorkspace = errors.New("unknown workspace")
	// ErrInvalidConfiguration marks a parameter that was clamped.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrGeometryOverflow marks a placement too small to honour gaps and
	// borders; the extent was raised to the minimum.
	ErrGeometryOverflow = errors.New("geometry overflow")
	// ErrNotRunning is returned by Do once the loop has stopped.
	ErrNotRunning = errors.New("window manager is not running")
	// ErrNoStore is returned by snapshot requests when persistence is off.
	ErrNoStore = errors.New("snapshot storage is not configured")
)

// Diagnostic is one recorded non-fatal condition.
type Diagnostic struct {
	Time    time.Time         `json:"time" yaml:"time"`
	Kind    string            `json:"kind" yaml:"kind"`
	Window  platform.WindowID `json:"window,omitempty" yaml:"window,omitempty"`
	Message string            `json:"message" yaml:"message"`
}

const defaultDiagnosticsLimit = 128

// diagnostics keeps the most recent entries, oldest first.
type diagnostics struct {
	mu      sync.Mutex
	limit   int
	entries []Diagnostic
}

func newDiagnostics(limit int) *diagnostics {
	if limit <= 0 {
		limit = defaultDiagnosticsLimit
	}
	return &diagnostics{limit: limit}
}

func (d *diagnostics) add(e Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.entries) == d.limit {
		copy(d.entries, d.entries[1:])
		d.entries = d.entries[:d.limit-1]
	}
	d.entries = append(d.entries, e)
}

func (d *diagnostics) list() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Diagnostic(nil), d.entries...)
}

// ErrorKind names the sentinel behind err. Diagnostics and the IPC
// protocol use it as a stable error code.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnknownWindow):
		return "unknown-window"
	case errors.Is(err, ErrUnknownWorkspace):
		return "unknown-workspace"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid-configuration"
	case errors.Is(err, ErrGeometryOverflow):
		return "geometry-overflow"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrNotRunning):
		return "not-running"
	case errors.Is(err, ErrNoStore):
		return "no-store"
	}
	return "error"
}

// ErrorForKind is the inverse of ErrorKind. It returns nil for kinds that
// have no sentinel.
func ErrorForKind(kind string) error {
	switch kind {
	case "unknown-window":
		return ErrUnknownWindow
	case "unknown-workspace":
		return ErrUnknownWorkspace
	case "invalid-configuration":
		return ErrInvalidConfiguration
	case "geometry-overflow":
		return ErrGeometryOverflow
	case "connection":
		return ErrConnection
	case "not-running":
		return ErrNotRunning
	case "no-store":
		return ErrNoStore
	}
	return nil
}
