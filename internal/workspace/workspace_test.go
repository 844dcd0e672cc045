package workspace

import (
	"reflect"
	"testing"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/tiling"
)

const (
	winA platform.WindowID = 0xa
	winB platform.WindowID = 0xb
	winC platform.WindowID = 0xc
	winD platform.WindowID = 0xd
)

func newTestWorkspace() *Workspace {
	return New("1", tiling.NewLayout(tiling.LayoutMasterStack, tiling.MasterStackCells), tiling.DefaultParams())
}

func geometryFromPlacements(placements []tiling.Placement) map[platform.WindowID]platform.Rect {
	out := make(map[platform.WindowID]platform.Rect, len(placements))
	for _, p := range placements {
		out[p.ID] = p.Rect
	}
	return out
}

func focused(w *Workspace) platform.WindowID {
	id, _ := w.Focused()
	return id
}

func TestAdd_FirstTiledClientBecomesMasterAndFocused(t *testing.T) {
	w := newTestWorkspace()
	if !w.Add(winA, client.Tiled) {
		t.Fatalf("expected add to succeed")
	}
	if m, _ := w.Master(); m != winA {
		t.Fatalf("expected master %x, got %x", winA, m)
	}
	if got := focused(w); got != winA {
		t.Fatalf("expected focus %x, got %x", winA, got)
	}
	if !w.Dirty() {
		t.Fatalf("expected workspace to be dirty after add")
	}
	if w.Add(winA, client.Floating) {
		t.Fatalf("expected duplicate add to be ignored")
	}
}

func TestRecompute_ThreeTiledClientsOn1080p(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Add(winB, client.Tiled)
	w.Add(winC, client.Tiled)

	got := geometryFromPlacements(w.Recompute(platform.Rect{Width: 1920, Height: 1080}, nil))
	want := map[platform.WindowID]platform.Rect{
		winA: {X: 0, Y: 0, Width: 960, Height: 1080},
		winB: {X: 960, Y: 0, Width: 960, Height: 540},
		winC: {X: 960, Y: 540, Width: 960, Height: 540},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if w.Dirty() {
		t.Fatalf("expected recompute to clear the dirty flag")
	}
}

func TestRecompute_FloatingClientKeepsStoredGeometry(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Add(winB, client.Tiled)
	w.Add(winC, client.Tiled)

	stored := map[platform.WindowID]platform.Rect{winB: {X: 960, Y: 0, Width: 960, Height: 540}}
	w.SetMode(winB, client.Floating)

	got := geometryFromPlacements(w.Recompute(platform.Rect{Width: 1920, Height: 1080}, GeometryFunc(func(id platform.WindowID) (platform.Rect, bool) {
		r, ok := stored[id]
		return r, ok
	})))
	want := map[platform.WindowID]platform.Rect{
		winA: {X: 0, Y: 0, Width: 960, Height: 1080},
		winC: {X: 960, Y: 0, Width: 960, Height: 1080},
		winB: {X: 960, Y: 0, Width: 960, Height: 540},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRecompute_EmptyWorkspace(t *testing.T) {
	w := newTestWorkspace()
	if got := w.Recompute(platform.Rect{Width: 1920, Height: 1080}, nil); len(got) != 0 {
		t.Fatalf("expected no placements, got %d", len(got))
	}
}

func TestRemove_MasterPromotesNextElement(t *testing.T) {
	w := newTestWorkspace()
	for _, id := range []platform.WindowID{winA, winB, winC, winD} {
		w.Add(id, client.Tiled)
	}

	for w.Len() > 0 {
		master, _ := w.Master()
		w.Remove(master)
		if len(w.Tiled()) == 0 {
			break
		}
		next, ok := w.Master()
		if !ok {
			t.Fatalf("expected a master while %d tiled clients remain", len(w.Tiled()))
		}
		if next != w.Tiled()[0] {
			t.Fatalf("expected master to be ring front %x, got %x", w.Tiled()[0], next)
		}
	}
	if _, ok := w.Focused(); ok {
		t.Fatalf("expected no focus on an empty workspace")
	}
}

func TestRemove_UnknownIsIgnored(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	if w.Remove(winD) {
		t.Fatalf("expected removing an unknown id to report false")
	}
	if w.Len() != 1 {
		t.Fatalf("expected len 1, got %d", w.Len())
	}
	if w.SetMode(winD, client.Floating) || w.Focus(winD) || w.Promote(winD) {
		t.Fatalf("expected unknown ids to be ignored")
	}
}

func TestRemove_OnlyClientLeavesEmptyRing(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Remove(winA)
	if w.Len() != 0 || len(w.Tiled()) != 0 {
		t.Fatalf("expected empty workspace, got %d members", w.Len())
	}
	if _, ok := w.Focused(); ok {
		t.Fatalf("expected no focus")
	}
}

func TestSetMode_ToggleTwiceRestoresPositionAndFocus(t *testing.T) {
	tests := []struct {
		name  string
		focus platform.WindowID
		id    platform.WindowID
	}{
		{name: "focused middle", focus: winB, id: winB},
		{name: "focused master", focus: winA, id: winA},
		{name: "unfocused last", focus: winA, id: winC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorkspace()
			w.Add(winA, client.Tiled)
			w.Add(winB, client.Tiled)
			w.Add(winC, client.Tiled)
			w.Focus(tt.focus)

			before := w.Tiled()
			if !w.SetMode(tt.id, client.Floating) {
				t.Fatalf("expected tiled -> floating to succeed")
			}
			if w.IsTiled(tt.id) {
				t.Fatalf("expected %x to leave the ring", tt.id)
			}
			if !w.SetMode(tt.id, client.Tiled) {
				t.Fatalf("expected floating -> tiled to succeed")
			}

			if got := w.Tiled(); !reflect.DeepEqual(got, before) {
				t.Fatalf("expected ring %v, got %v", before, got)
			}
			if got := focused(w); got != tt.focus {
				t.Fatalf("expected focus %x, got %x", tt.focus, got)
			}
		})
	}
}

func TestSetMode_FloatingRoundTripRestoresFloatingFocus(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Add(winB, client.Tiled)
	w.Add(winC, client.Floating)

	w.SetMode(winC, client.Tiled)
	if !w.IsTiled(winC) || focused(w) != winC {
		t.Fatalf("expected C tiled and focused, got tiled=%v focus=%x", w.IsTiled(winC), focused(w))
	}
	w.SetMode(winC, client.Floating)

	if got, want := w.Tiled(), []platform.WindowID{winA, winB}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ring %v, got %v", want, got)
	}
	if got := focused(w); got != winC {
		t.Fatalf("expected focus back on floating C, got %x", got)
	}
}

func TestSetMode_InterveningMutationReinsertsAfterFocus(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Add(winB, client.Tiled)
	w.Add(winC, client.Tiled)
	w.Focus(winA)

	w.SetMode(winA, client.Floating)
	w.Add(winD, client.Tiled)
	w.Focus(winC)
	w.SetMode(winA, client.Floating)
	if w.IsTiled(winA) {
		t.Fatalf("expected no-op when mode already holds")
	}
	w.Focus(winA)
	w.SetMode(winA, client.Tiled)

	// The undo memo is stale, so A is reinserted after the ring focus (C).
	got := w.Tiled()
	idxC, idxA := -1, -1
	for i, id := range got {
		switch id {
		case winC:
			idxC = i
		case winA:
			idxA = i
		}
	}
	if idxA != idxC+1 {
		t.Fatalf("expected A right after C, got ring %v", got)
	}
}

func TestRestorePriorFocus_PicksMostRecentRemainingMember(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Add(winB, client.Tiled)
	w.Add(winC, client.Tiled)

	w.Focus(winC)
	w.Focus(winA)
	w.Focus(winB)
	w.Remove(winB)

	if got := focused(w); got != winC {
		t.Fatalf("expected ring's natural next (C), got %x", got)
	}
	if !w.RestorePriorFocus() {
		t.Fatalf("expected a prior focus to restore")
	}
	if got := focused(w); got != winA {
		t.Fatalf("expected restored focus A, got %x", got)
	}
}

func TestCycleFocus_WalksTiledThenFloating(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Add(winB, client.Tiled)
	w.Add(winC, client.Floating)
	w.Focus(winA)

	var seen []platform.WindowID
	for i := 0; i < 4; i++ {
		id, _ := w.CycleFocus(1)
		seen = append(seen, id)
	}
	if want := []platform.WindowID{winB, winC, winA, winB}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
}

func TestPromote_MovesToMaster(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Add(winB, client.Tiled)
	w.Add(winC, client.Tiled)

	w.Promote(winC)
	if got, want := w.Tiled(), []platform.WindowID{winC, winA, winB}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAdjustRatio_ClampsAtBounds(t *testing.T) {
	w := newTestWorkspace()
	if w.AdjustRatio(0.1) {
		t.Fatalf("expected 0.6 to be in range")
	}
	if !w.AdjustRatio(5) {
		t.Fatalf("expected large ratio to clamp")
	}
	if got := w.Params().Ratio; got != tiling.MaxRatio {
		t.Fatalf("expected %v, got %v", tiling.MaxRatio, got)
	}
}

func TestAppend_GoesToRingEndAndTakesFocus(t *testing.T) {
	w := newTestWorkspace()
	w.Add(winA, client.Tiled)
	w.Add(winB, client.Tiled)
	w.Focus(winA)

	if !w.Append(winC, client.Tiled) {
		t.Fatalf("expected append to succeed")
	}
	if got, want := w.Tiled(), []platform.WindowID{winA, winB, winC}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ring = %v, want %v", got, want)
	}
	if got := focused(w); got != winC {
		t.Fatalf("focused = %v, want %v", got, winC)
	}
	if w.Append(winC, client.Floating) {
		t.Fatalf("appending a member again should be refused")
	}
}
