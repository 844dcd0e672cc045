package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

type fakeManager struct {
	mu       sync.Mutex
	requests []wm.Request
	result   wm.Result
	err      error
}

func (f *fakeManager) Do(_ context.Context, req wm.Request) (wm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result, f.err
}

func (f *fakeManager) last(t *testing.T) wm.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("manager received no request")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeManager) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func startServer(t *testing.T, mgr Doer, reload Reloader) *Client {
	t.Helper()
	// Unix socket paths are short; t.TempDir can be too long on some hosts.
	dir, err := os.MkdirTemp("", "tilewm-ipc")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "s.sock")
	srv := NewServer(path, mgr, reload, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return NewClientAt(path)
}

func TestCommandsTranslateToManagerRequests(t *testing.T) {
	mgr := &fakeManager{}
	c := startServer(t, mgr, nil)

	tests := []struct {
		name string
		call func() error
		want wm.Request
	}{
		{"goto", func() error { return c.GotoWorkspace("3") }, wm.Request{Op: wm.OpGotoWorkspace, Workspace: "3"}},
		{"send", func() error { return c.SendToWorkspace("2", false) }, wm.Request{Op: wm.OpSendFocusedTo, Workspace: "2"}},
		{"send follow", func() error { return c.SendToWorkspace("2", true) }, wm.Request{Op: wm.OpSendAndFollow, Workspace: "2"}},
		{"float", func() error { return c.ToggleFloating(0x42) }, wm.Request{Op: wm.OpToggleFloating, Window: 0x42}},
		{"fullscreen focused", func() error { return c.ToggleFullscreen(0) }, wm.Request{Op: wm.OpToggleFullscreen}},
		{"warp", func() error { return c.WarpWindow(0, "left", 40) }, wm.Request{Op: wm.OpWarpWindow, Direction: hotkeys.Left, Distance: 40}},
		{"close", c.CloseFocused, wm.Request{Op: wm.OpCloseFocused}},
		{"run", func() error { return c.Run("xterm", "-e", "top") }, wm.Request{Op: wm.OpRunExternal, Command: "xterm", Args: []string{"-e", "top"}}},
		{"layout", func() error { return c.SetLayout("monocle") }, wm.Request{Op: wm.OpSetLayout, Layout: "monocle"}},
		{"cycle layout", func() error { return c.CycleLayout(-1) }, wm.Request{Op: wm.OpCycleLayout, Delta: -1}},
		{"cycle focus", func() error { return c.CycleFocus(1) }, wm.Request{Op: wm.OpCycleFocus, Delta: 1}},
		{"focus direction", func() error { return c.FocusDirection("down") }, wm.Request{Op: wm.OpFocusDirection, Direction: hotkeys.Down}},
		{"quit", c.Quit, wm.Request{Op: wm.OpQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("call: %v", err)
			}
			if got := mgr.last(t); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("request = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	mgr := &fakeManager{result: wm.Result{State: &wm.State{
		FocusedWorkspace: "2",
		FocusedClient:    0xc0,
		Workspaces:       []wm.WorkspaceState{{Name: "2", Tiled: []platform.WindowID{0xc0}}},
	}}}
	c := startServer(t, mgr, nil)

	st, err := c.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.FocusedWorkspace != "2" || st.FocusedClient != 0xc0 {
		t.Fatalf("state = %+v", st)
	}
	if got := st.Workspaces[0].Tiled; !reflect.DeepEqual(got, []platform.WindowID{0xc0}) {
		t.Fatalf("tiled = %v", got)
	}
	if mgr.last(t).Op != wm.OpDumpState {
		t.Fatalf("expected a dump request")
	}
}

func TestSaveSnapshotReturnsName(t *testing.T) {
	mgr := &fakeManager{result: wm.Result{Snapshot: "autosave"}}
	c := startServer(t, mgr, nil)

	name, err := c.SaveSnapshot("")
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if name != "autosave" {
		t.Fatalf("name = %q, want autosave", name)
	}
}

func TestManagerErrorsKeepTheirKind(t *testing.T) {
	mgr := &fakeManager{err: fmt.Errorf("%w: 0xdead", wm.ErrUnknownWindow)}
	c := startServer(t, mgr, nil)

	err := c.ToggleFloating(0xdead)
	if !errors.Is(err, wm.ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow across the socket, got %v", err)
	}
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Code != "unknown-window" {
		t.Fatalf("expected a RemoteError with code, got %#v", err)
	}
}

func TestBadRequests(t *testing.T) {
	mgr := &fakeManager{}
	c := startServer(t, mgr, nil)

	if err := c.WarpWindow(0, "sideways", 10); err == nil {
		t.Fatalf("expected an invalid direction to be rejected")
	}
	if err := c.Run(""); err == nil {
		t.Fatalf("expected an empty command to be rejected")
	}
	if err := c.call("NOPE", nil, nil); err == nil {
		t.Fatalf("expected an unknown command to be rejected")
	}
	if n := mgr.count(); n != 0 {
		t.Fatalf("%d bad requests reached the manager", n)
	}
}

func TestReload(t *testing.T) {
	mgr := &fakeManager{}
	cfg := config.DefaultConfig()
	c := startServer(t, mgr, func() (*config.Config, error) { return cfg, nil })

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := mgr.last(t); got.Op != wm.OpReload || got.Config != cfg {
		t.Fatalf("request = %+v", got)
	}

	broken := startServer(t, mgr, func() (*config.Config, error) { return nil, errors.New("bad yaml") })
	if err := broken.Reload(); !errors.Is(err, wm.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestPingAndNotRunning(t *testing.T) {
	c := startServer(t, &fakeManager{}, nil)
	if _, err := c.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	missing := NewClientAt(filepath.Join(t.TempDir(), "none.sock"))
	if _, err := missing.Ping(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestMalformedLineGetsErrorResponse(t *testing.T) {
	srv := NewServer("", &fakeManager{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client, server := net.Pipe()
	go srv.handleConnection(server)
	defer client.Close()

	if _, err := client.Write([]byte("{not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 512)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(buf[:n], &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusError || resp.Code != "bad-request" {
		t.Fatalf("response = %+v", resp)
	}
}
