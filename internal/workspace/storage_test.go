package workspace

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/platform"
)

func TestStore_WriteReadListDelete(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "snapshots"))

	names, err := store.List()
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty list from missing dir, got %v (err=%v)", names, err)
	}

	snap := &Snapshot{
		Name: "default",
		Workspaces: []SnapshotWorkspace{{
			Name:   "1",
			Layout: "master-stack",
			Ratio:  0.5,
			Clients: []SnapshotClient{
				{ID: 0xa, Class: "XTerm", Mode: client.Tiled},
				{ID: 0xb, Class: "Gimp", Mode: client.Floating, Geometry: &platform.Rect{X: 5, Y: 5, Width: 300, Height: 200}},
			},
		}},
	}
	if err := store.Write(snap); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	got, err := store.Read("default")
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if !reflect.DeepEqual(got.Workspaces, snap.Workspaces) {
		t.Fatalf("expected %+v, got %+v", snap.Workspaces, got.Workspaces)
	}

	names, err = store.List()
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if want := []string{"default"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}

	if err := store.Delete("default"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, err := store.Read("default"); err == nil {
		t.Fatalf("expected read of deleted snapshot to fail")
	}
}

func TestValidateSnapshotName_RejectsTraversal(t *testing.T) {
	for _, name := range []string{"", " ", "..", "a/b", "../x", "x..y"} {
		if err := ValidateSnapshotName(name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	if err := ValidateSnapshotName("work-day"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSnapshotLookup_PrefersIDThenClass(t *testing.T) {
	snap := &Snapshot{Workspaces: []SnapshotWorkspace{
		{Name: "1", Clients: []SnapshotClient{{ID: 1, Class: "XTerm", Mode: client.Tiled}}},
		{Name: "2", Clients: []SnapshotClient{{ID: 2, Class: "XTerm", Mode: client.Floating}}},
	}}
	claimed := map[string]bool{}

	ws, c, ok := snap.Lookup(2, "XTerm", claimed)
	if !ok || ws != "2" || c.Mode != client.Floating {
		t.Fatalf("expected id match on workspace 2, got %q %+v ok=%v", ws, c, ok)
	}

	// A new window id with the same class takes the remaining entry.
	ws, _, ok = snap.Lookup(99, "xterm", claimed)
	if !ok || ws != "1" {
		t.Fatalf("expected class match on workspace 1, got %q ok=%v", ws, ok)
	}

	if _, _, ok := snap.Lookup(100, "XTerm", claimed); ok {
		t.Fatalf("expected all entries to be claimed")
	}

	var nilSnap *Snapshot
	if _, _, ok := nilSnap.Lookup(1, "", claimed); ok {
		t.Fatalf("expected nil snapshot lookup to fail")
	}
}
