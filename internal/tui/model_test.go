package tui

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

type fakeController struct {
	state *wm.State
	err   error
	calls []string
}

func (f *fakeController) State() (*wm.State, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func (f *fakeController) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) GotoWorkspace(name string) error      { return f.record("goto " + name) }
func (f *fakeController) ToggleFloating(window uint32) error   { return f.record("float") }
func (f *fakeController) ToggleFullscreen(window uint32) error { return f.record("fullscreen") }
func (f *fakeController) CloseFocused() error                  { return f.record("close") }
func (f *fakeController) CycleLayout(delta int) error          { return f.record("layout") }
func (f *fakeController) CycleFocus(delta int) error           { return f.record("focus") }

func sampleState() *wm.State {
	return &wm.State{
		FocusedWorkspace: "2",
		FocusedClient:    0xa0,
		Workspaces: []wm.WorkspaceState{
			{Name: "1", Layout: "master-stack", Screen: -1},
			{Name: "2", Layout: "monocle", Screen: 0, Tiled: []platform.WindowID{0xa0}, Floating: []platform.WindowID{0xb0}},
			{Name: "3", Layout: "grid", Screen: -1},
		},
		Clients: []wm.ClientState{
			{ID: 0xa0, Class: "xterm", Mode: client.Tiled, Workspace: "2", Geometry: platform.Rect{Width: 800, Height: 600}},
			{ID: 0xb0, Class: "pavucontrol", Mode: client.Floating, Workspace: "2"},
		},
	}
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a model that has received a window size and one state.
func loaded(t *testing.T, ctl *fakeController) model {
	t.Helper()
	m := newModel(ctl, time.Second)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	next, _ = next.Update(m.fetch())
	return next.(model)
}

func TestStateSelectsFocusedWorkspace(t *testing.T) {
	m := loaded(t, &fakeController{state: sampleState()})
	if m.selected != "2" {
		t.Fatalf("selected = %q, want 2", m.selected)
	}
	view := m.View()
	for _, want := range []string{"Workspaces", "master-stack", "xterm", "pavucontrol", "floating", "workspace:2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewEmptyBeforeSize(t *testing.T) {
	m := newModel(&fakeController{state: sampleState()}, time.Second)
	if got := m.View(); got != "" {
		t.Fatalf("View() = %q before the first size message", got)
	}
}

func TestMoveWrapsAround(t *testing.T) {
	m := loaded(t, &fakeController{state: sampleState()})
	steps := []struct {
		key  tea.KeyMsg
		want string
	}{
		{runeKey("j"), "3"},
		{runeKey("j"), "1"},
		{tea.KeyMsg{Type: tea.KeyUp}, "3"},
		{runeKey("k"), "2"},
	}
	for i, s := range steps {
		next, _ := m.Update(s.key)
		m = next.(model)
		if m.selected != s.want {
			t.Fatalf("step %d: selected = %q, want %q", i, m.selected, s.want)
		}
	}
}

func TestKeysCallController(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeyEnter}, "goto 2"},
		{runeKey("f"), "float"},
		{runeKey("F"), "fullscreen"},
		{runeKey("x"), "close"},
		{runeKey("l"), "layout"},
		{tea.KeyMsg{Type: tea.KeyTab}, "focus"},
	}
	for _, tt := range tests {
		ctl := &fakeController{state: sampleState()}
		m := loaded(t, ctl)
		_, cmd := m.Update(tt.key)
		if cmd == nil {
			t.Fatalf("%s: no command", tt.key)
		}
		msg := cmd()
		if _, ok := msg.(stateMsg); !ok {
			t.Fatalf("%s: command returned %T, want a state refresh", tt.key, msg)
		}
		if !reflect.DeepEqual(ctl.calls, []string{tt.want}) {
			t.Fatalf("%s: calls = %v, want [%s]", tt.key, ctl.calls, tt.want)
		}
	}
}

func TestGotoUsesSelection(t *testing.T) {
	ctl := &fakeController{state: sampleState()}
	m := loaded(t, ctl)
	next, _ := m.Update(runeKey("j"))
	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cmd()
	if !reflect.DeepEqual(ctl.calls, []string{"goto 3"}) {
		t.Fatalf("calls = %v", ctl.calls)
	}
}

func TestActionErrorShown(t *testing.T) {
	ctl := &fakeController{state: sampleState()}
	m := loaded(t, ctl)
	ctl.err = errors.New("unknown window")

	_, cmd := m.Update(runeKey("x"))
	next, _ := m.Update(cmd())
	view := next.View()
	if !strings.Contains(view, "error: unknown window") {
		t.Fatalf("view missing error:\n%s", view)
	}

	ctl.err = nil
	next, _ = next.Update(m.fetch())
	if strings.Contains(next.View(), "error:") {
		t.Fatal("error should clear after a successful refresh")
	}
}

func TestUnreachableManager(t *testing.T) {
	ctl := &fakeController{err: errors.New("connection refused")}
	m := newModel(ctl, time.Second)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	next, _ = next.Update(m.fetch())
	if !strings.Contains(next.View(), "not reachable") {
		t.Fatalf("view:\n%s", next.View())
	}

	// Actions need a state to act on.
	_, cmd := next.Update(runeKey("f"))
	if cmd != nil {
		t.Fatal("expected no command without a state")
	}
	if len(ctl.calls) != 0 {
		t.Fatalf("calls = %v", ctl.calls)
	}
}

func TestQuitKey(t *testing.T) {
	m := loaded(t, &fakeController{state: sampleState()})
	_, cmd := m.Update(runeKey("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestInvariantErrorsShown(t *testing.T) {
	st := sampleState()
	st.InvariantErrors = []string{"client 0xa0 on two workspaces"}
	m := loaded(t, &fakeController{state: st})
	if !strings.Contains(m.View(), "1 invariant violation(s)") {
		t.Fatalf("view:\n%s", m.View())
	}
}
