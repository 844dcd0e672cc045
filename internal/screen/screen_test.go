package screen

import (
	"testing"

	"github.com/1broseidon/tilewm/internal/platform"
)

func TestActivate_ReturnsPreviousWorkspace(t *testing.T) {
	s := New(0, platform.Display{Bounds: platform.Rect{Width: 1920, Height: 1080}})
	if s.Workspace != None {
		t.Fatalf("expected new screen to show nothing, got %d", s.Workspace)
	}
	if prev := s.Activate(2); prev != None {
		t.Fatalf("expected previous None, got %d", prev)
	}
	if prev := s.Activate(0); prev != 2 {
		t.Fatalf("expected previous 2, got %d", prev)
	}
	if s.Usable != s.Geometry {
		t.Fatalf("expected usable to default to bounds, got %+v", s.Usable)
	}
}

func TestUsableArea_TopPanelOnlyAffectsItsMonitor(t *testing.T) {
	root := platform.Rect{Width: 3840, Height: 1080}
	left := platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := platform.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}

	// A 30px panel along the top of the left monitor only.
	panel := platform.Strut{Top: 30, TopStartX: 0, TopEndX: 1919}

	gotLeft := UsableArea(left, root, []platform.Strut{panel})
	if want := (platform.Rect{X: 0, Y: 30, Width: 1920, Height: 1050}); gotLeft != want {
		t.Fatalf("expected %+v, got %+v", want, gotLeft)
	}
	if gotRight := UsableArea(right, root, []platform.Strut{panel}); gotRight != right {
		t.Fatalf("expected right monitor untouched, got %+v", gotRight)
	}
}

func TestUsableArea_StrutWithoutRangesCoversWholeEdge(t *testing.T) {
	root := platform.Rect{Width: 1920, Height: 1080}
	mon := root

	got := UsableArea(mon, root, []platform.Strut{{Bottom: 24}, {Left: 48}, {Bottom: 20}})
	if want := (platform.Rect{X: 48, Y: 0, Width: 1872, Height: 1056}); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestContains(t *testing.T) {
	s := New(1, platform.Display{Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}})
	if !s.Contains(1920, 0) || s.Contains(1919, 0) || s.Contains(3200, 10) {
		t.Fatalf("unexpected containment for %+v", s.Geometry)
	}
	if x, y := s.Center(); x != 2560 || y != 512 {
		t.Fatalf("expected center (2560,512), got (%d,%d)", x, y)
	}
}
