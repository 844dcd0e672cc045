package wm

import (
	"time"

	"github.com/1broseidon/tilewm/internal/platform"
)

var now = time.Now

// Notification describes one handled event or request. Observers get them
// in order; a slow observer misses notifications instead of stalling the
// loop.
type Notification struct {
	Seq       uint64            `json:"seq"`
	Time      time.Time         `json:"time"`
	Kind      string            `json:"kind"`
	Window    platform.WindowID `json:"window,omitempty"`
	Workspace string            `json:"workspace,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Subscribe registers an observer with a buffer of the given size and
// returns its channel and a function that unregisters it. It is safe to
// call from any goroutine.
func (m *Manager) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Notification, buffer)

	m.obsMu.Lock()
	id := m.obsNext
	m.obsNext++
	m.observers[id] = ch
	m.obsMu.Unlock()

	return ch, func() {
		m.obsMu.Lock()
		defer m.obsMu.Unlock()
		if _, ok := m.observers[id]; ok {
			delete(m.observers, id)
			close(ch)
		}
	}
}

func (m *Manager) notify(kind string, win platform.WindowID, err error) {
	m.seq++
	n := Notification{Seq: m.seq, Time: now(), Kind: kind, Window: win}
	if ws := m.focusedWorkspace(); ws >= 0 {
		n.Workspace = m.workspaces[ws].Name
	}
	if err != nil {
		n.Error = err.Error()
	}

	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	for _, ch := range m.observers {
		select {
		case ch <- n:
		default:
		}
	}
}
