package hotkeys

import "testing"

func TestParseAction(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{line: "goto_workspace 2", want: "goto_workspace 2"},
		{line: "  GOTO_WORKSPACE   web ", want: "goto_workspace web"},
		{line: "exec xterm -e htop", want: "exec xterm -e htop"},
		{line: "cycle_focus", want: "cycle_focus"},
		{line: "cycle_focus -1", want: "cycle_focus -1"},
		{line: "ratio +0.05", want: "ratio +0.05"},
		{line: "warp left 40", want: "warp left 40"},
		{line: "focus h", wantErr: true},
		{line: "focus right", want: "focus right"},
		{line: "", wantErr: true},
		{line: "explode", wantErr: true},
		{line: "goto_workspace", wantErr: true},
		{line: "toggle_floating now", wantErr: true},
		{line: "exec", wantErr: true},
		{line: "cycle_focus sideways", wantErr: true},
		{line: "ratio wide", wantErr: true},
		{line: "warp diagonal 10", wantErr: true},
		{line: "warp up far", wantErr: true},
		{line: "focus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			a, err := ParseAction(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.line, a)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, a.String())
			}
		})
	}
}

func TestActionArgs(t *testing.T) {
	a := Action{Name: ActionCycleFocus}
	n, err := a.IntArg(0, 1)
	if err != nil || n != 1 {
		t.Fatalf("expected default 1, got %d (%v)", n, err)
	}

	a = Action{Name: ActionRatio, Args: []string{"-0.1"}}
	f, err := a.FloatArg(0)
	if err != nil || f != -0.1 {
		t.Fatalf("expected -0.1, got %v (%v)", f, err)
	}
	if _, err := a.FloatArg(1); err == nil {
		t.Fatalf("expected error for missing argument")
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		in     string
		want   Direction
		dx, dy int
	}{
		{in: "up", want: Up, dx: 0, dy: -10},
		{in: "D", want: Down, dx: 0, dy: 10},
		{in: "west", want: Left, dx: -10, dy: 0},
		{in: "right", want: Right, dx: 10, dy: 0},
	}
	for _, tt := range tests {
		d, err := ParseDirection(tt.in)
		if err != nil {
			t.Fatalf("ParseDirection(%q): %v", tt.in, err)
		}
		if d != tt.want {
			t.Fatalf("ParseDirection(%q) = %s, want %s", tt.in, d, tt.want)
		}
		dx, dy := d.Delta(10)
		if dx != tt.dx || dy != tt.dy {
			t.Fatalf("%s.Delta(10) = (%d,%d), want (%d,%d)", d, dx, dy, tt.dx, tt.dy)
		}
	}

	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}
