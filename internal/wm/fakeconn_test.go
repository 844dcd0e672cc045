package wm

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/platform"
)

const testRoot platform.WindowID = 1

var (
	fullHD   = platform.Rect{Width: 1920, Height: 1080}
	sideHead = platform.Rect{X: 1920, Width: 1280, Height: 1024}
)

// fakeConn records every command batch and serves window properties from
// a map. Events are fed through the events channel when the loop runs.
type fakeConn struct {
	mu       sync.Mutex
	displays []platform.Display
	props    map[platform.WindowID]platform.WindowProperties
	existing []platform.WindowID
	batches  [][]platform.Command
	applyErr error
	eventErr error
	events   chan platform.Event
}

func newFakeConn(bounds ...platform.Rect) *fakeConn {
	if len(bounds) == 0 {
		bounds = []platform.Rect{fullHD}
	}
	f := &fakeConn{
		props:  make(map[platform.WindowID]platform.WindowProperties),
		events: make(chan platform.Event, 16),
	}
	f.setDisplays(bounds...)
	return f
}

func (f *fakeConn) setDisplays(bounds ...platform.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displays = nil
	for i, b := range bounds {
		f.displays = append(f.displays, platform.Display{ID: i, Bounds: b, Usable: b})
	}
}

func (f *fakeConn) Root() platform.WindowID { return testRoot }

func (f *fakeConn) NextEvent(ctx context.Context) (platform.Event, error) {
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev := <-f.events:
		return ev, nil
	}
}

func (f *fakeConn) Displays() ([]platform.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Display(nil), f.displays...), nil
}

func (f *fakeConn) RootBounds() platform.Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out platform.Rect
	for _, d := range f.displays {
		out.Width = max(out.Width, d.Bounds.X+d.Bounds.Width)
		out.Height = max(out.Height, d.Bounds.Y+d.Bounds.Height)
	}
	return out
}

func (f *fakeConn) ExistingWindows() ([]platform.WindowID, error) {
	return append([]platform.WindowID(nil), f.existing...), nil
}

func (f *fakeConn) Properties(id platform.WindowID) (platform.WindowProperties, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.props[id]
	if !ok {
		return platform.WindowProperties{}, platform.ErrNoWindow
	}
	return p, nil
}

func (f *fakeConn) Pointer() (int, int, error) { return 0, 0, nil }

func (f *fakeConn) Apply(cmds []platform.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.batches = append(f.batches, append([]platform.Command(nil), cmds...))
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// commandsSince flattens the batches applied after the first n.
func (f *fakeConn) commandsSince(n int) []platform.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Command
	for _, b := range f.batches[n:] {
		out = append(out, b...)
	}
	return out
}

func (f *fakeConn) window(id platform.WindowID, class string) platform.WindowProperties {
	p := platform.WindowProperties{
		ID:       id,
		Geometry: platform.Rect{Width: 100, Height: 100},
		Class:    class,
		Instance: class,
	}
	f.mu.Lock()
	f.props[id] = p
	f.mu.Unlock()
	return p
}

func (f *fakeConn) setProps(p platform.WindowProperties) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[p.ID] = p
}

func hasCommand(cmds []platform.Command, want platform.Command) bool {
	for _, c := range cmds {
		if equalCommand(c, want) {
			return true
		}
	}
	return false
}

func equalCommand(a, b platform.Command) bool {
	switch av := a.(type) {
	case platform.GrabKeys, platform.GrabButtons, platform.SetDesktops, platform.SetClientList, platform.SetSupported:
		return a.CommandKind() == b.CommandKind()
	default:
		return av == b
	}
}

func countGeometry(cmds []platform.Command) int {
	n := 0
	for _, c := range cmds {
		if platform.IsGeometry(c) {
			n++
		}
	}
	return n
}

func lastConfigure(cmds []platform.Command, id platform.WindowID) (platform.Configure, bool) {
	var out platform.Configure
	found := false
	for _, c := range cmds {
		if cfg, ok := c.(platform.Configure); ok && cfg.Window == id {
			out, found = cfg, true
		}
	}
	return out, found
}

type spawnRecord struct {
	name string
	args []string
}

// newTestManager starts a manager on a fake connection with no gaps or
// borders so geometry is easy to check.
func newTestManager(t *testing.T, f *fakeConn, edit func(*config.Config), opts ...Option) (*Manager, *[]spawnRecord) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BorderWidth = 0
	cfg.GapSize = 0
	if edit != nil {
		edit(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	spawned := &[]spawnRecord{}
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSpawner(func(name string, args []string) error {
			*spawned = append(*spawned, spawnRecord{name: name, args: args})
			return nil
		}),
	}
	m, err := New(f, cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return m, spawned
}

func mapWindow(t *testing.T, m *Manager, f *fakeConn, p platform.WindowProperties) {
	t.Helper()
	f.setProps(p)
	if err := m.HandleEvent(platform.MapRequest{Window: p.ID}); err != nil {
		t.Fatalf("map 0x%x: %v", uint32(p.ID), err)
	}
}

func mapTiled(t *testing.T, m *Manager, f *fakeConn, ids ...platform.WindowID) {
	t.Helper()
	for _, id := range ids {
		mapWindow(t, m, f, f.window(id, "xterm"))
	}
}

func geometryOf(t *testing.T, m *Manager, id platform.WindowID) platform.Rect {
	t.Helper()
	c, ok := m.clients[id]
	if !ok {
		t.Fatalf("window 0x%x is not managed", uint32(id))
	}
	return c.Geometry
}

func mustInvariants(t *testing.T, m *Manager) {
	t.Helper()
	if err := m.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}
