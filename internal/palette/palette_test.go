package palette

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

func fakeBackend(command string, out ...string) (*commandBackend, *[][]string) {
	b := newCommandBackend(command)
	var calls [][]string
	b.run = func(_ string, args []string, _ string) (string, error) {
		calls = append(calls, args)
		if len(out) == 0 {
			return "", ErrCancelled
		}
		next := out[0]
		out = out[1:]
		return next, nil
	}
	return b, &calls
}

func TestRofiRowUsesSingleNullSeparator(t *testing.T) {
	b := newCommandBackend("rofi")
	out := b.row(Item{Label: "Layouts", IsHeader: true, Icon: "view-grid"})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
	if !strings.HasPrefix(out, "<b>Layouts</b>\x00nonselectable\x1ftrue") {
		t.Fatalf("expected bold non-selectable header, got %q", out)
	}
	if !strings.Contains(out, "\x1ficon\x1fview-grid") {
		t.Fatalf("expected icon option, got %q", out)
	}
}

func TestRofiRowEscapesMarkup(t *testing.T) {
	b := newCommandBackend("rofi")
	if got := b.row(Item{Label: "a<b> & c\n"}); got != "a&lt;b&gt; &amp; c" {
		t.Fatalf("row = %q", got)
	}
}

func TestDmenuRowIsPlain(t *testing.T) {
	b := newCommandBackend("dmenu")
	if got := b.row(Item{Label: "Send to 2", Icon: "go-jump"}); got != "Send to 2" {
		t.Fatalf("row = %q", got)
	}
}

func TestRofiArgsMarkActiveRows(t *testing.T) {
	b := newCommandBackend("rofi")
	args := b.args("tilewm", []Item{
		{Label: "Workspaces", IsHeader: true, IsActive: true},
		{Label: "1"},
		{Label: "2", IsActive: true},
	})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-format i", "-no-custom", "-p tilewm", "-a 2", "-selected-row 2"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %v missing %q", args, want)
		}
	}
}

func TestShowParsesSelection(t *testing.T) {
	items := []Item{
		{Label: "Workspaces", IsHeader: true},
		{Label: "1", Action: "goto_workspace 1"},
		{Label: "2", Action: "goto_workspace 2"},
	}

	rofi, _ := fakeBackend("rofi", "2")
	got, err := rofi.Show("tilewm", items)
	if err != nil || got.Action != "goto_workspace 2" {
		t.Fatalf("rofi Show = %+v, %v", got, err)
	}

	dmenu, calls := fakeBackend("dmenu", "Workspaces", "1")
	got, err = dmenu.Show("tilewm", items)
	if err != nil || got.Action != "goto_workspace 1" {
		t.Fatalf("dmenu Show = %+v, %v", got, err)
	}
	if len(*calls) != 2 {
		t.Fatalf("expected the header pick to re-show the menu, %d calls", len(*calls))
	}

	if _, err := dmenu.Show("tilewm", items); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	bad, _ := fakeBackend("rofi", "9")
	if _, err := bad.Show("tilewm", items); err == nil {
		t.Fatalf("expected out of range index to fail")
	}
}

func TestBuildMenu(t *testing.T) {
	st := &wm.State{
		FocusedWorkspace: "1",
		FocusedClient:    0xa0,
		Workspaces: []wm.WorkspaceState{
			{Name: "1", Layout: "monocle", Tiled: []platform.WindowID{0xa0, 0xb0}},
			{Name: "2", Layout: "master-stack"},
		},
		Clients: []wm.ClientState{{ID: 0xa0, Class: "xterm"}},
	}
	items := BuildMenu(st, []string{"master-stack", "monocle"})

	var labels, actions []string
	for _, it := range items {
		labels = append(labels, it.Label)
		if it.Action != "" {
			actions = append(actions, it.Action)
		}
	}
	wantLabels := []string{
		"Workspaces", "1 (2)", "2",
		"Window: xterm", "Toggle floating", "Toggle fullscreen", "Close", "Send to 2",
		"Layouts", "master-stack", "monocle",
	}
	if !reflect.DeepEqual(labels, wantLabels) {
		t.Fatalf("labels = %q", labels)
	}
	for _, a := range actions {
		if _, err := hotkeys.ParseAction(a); err != nil {
			t.Fatalf("menu action %q does not parse: %v", a, err)
		}
	}
	if !items[1].IsActive || items[2].IsActive || !items[10].IsActive {
		t.Fatalf("expected the focused workspace and current layout to be active")
	}
}

func TestBuildMenuWithoutFocus(t *testing.T) {
	items := BuildMenu(&wm.State{Workspaces: []wm.WorkspaceState{{Name: "1"}}}, nil)
	for _, it := range items {
		if strings.HasPrefix(it.Label, "Window:") {
			t.Fatalf("client actions shown without a focused client")
		}
	}
}

func TestChoose(t *testing.T) {
	b, _ := fakeBackend("rofi", "0")
	a, err := Choose(b, "tilewm", []Item{{Label: "Warp", Action: "warp left 20"}})
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if a.Name != hotkeys.ActionWarp || !reflect.DeepEqual(a.Args, []string{"left", "20"}) {
		t.Fatalf("action = %+v", a)
	}
}
