package mcp

// GetStateInput is the input for the get_state tool.
type GetStateInput struct{}

// StateOutput is a flattened view of the manager's state.
type StateOutput struct {
	FocusedWorkspace string          `json:"focused_workspace"`
	FocusedClient    uint32          `json:"focused_client,omitempty"`
	Screens          []ScreenInfo    `json:"screens"`
	Workspaces       []WorkspaceInfo `json:"workspaces"`
	Clients          []ClientInfo    `json:"clients"`
	Diagnostics      []string        `json:"diagnostics,omitempty"`
	InvariantErrors  []string        `json:"invariant_errors,omitempty"`
}

type ScreenInfo struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Workspace string `json:"workspace,omitempty"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type WorkspaceInfo struct {
	Name     string   `json:"name"`
	Layout   string   `json:"layout"`
	Visible  bool     `json:"visible"`
	Focused  uint32   `json:"focused,omitempty"`
	Tiled    []uint32 `json:"tiled"`
	Floating []uint32 `json:"floating"`
}

type ClientInfo struct {
	ID        uint32 `json:"id"`
	Class     string `json:"class,omitempty"`
	Title     string `json:"title,omitempty"`
	Mode      string `json:"mode"`
	Workspace string `json:"workspace"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// WorkspaceInput is the input for goto_workspace.
type WorkspaceInput struct {
	Workspace string `json:"workspace" jsonschema:"Name of the workspace to show"`
}

// SendInput is the input for send_to_workspace.
type SendInput struct {
	Workspace string `json:"workspace" jsonschema:"Name of the target workspace"`
	Follow    bool   `json:"follow,omitempty" jsonschema:"Also switch to the target workspace"`
}

// WindowInput selects a client for toggle_floating and toggle_fullscreen.
type WindowInput struct {
	Window uint32 `json:"window,omitempty" jsonschema:"X window id from get_state; omit for the focused client"`
}

// WarpInput is the input for warp_window.
type WarpInput struct {
	Window    uint32 `json:"window,omitempty" jsonschema:"X window id; omit for the focused client"`
	Direction string `json:"direction" jsonschema:"One of up, down, left, right"`
	Distance  int    `json:"distance,omitempty" jsonschema:"Pixels to move (default: warp_step from config)"`
}

// RunInput is the input for run_program.
type RunInput struct {
	Command string   `json:"command" jsonschema:"Program to start"`
	Args    []string `json:"args,omitempty" jsonschema:"Program arguments"`
}

// LayoutInput is the input for set_layout.
type LayoutInput struct {
	Layout string `json:"layout" jsonschema:"Layout name, e.g. master-stack, monocle, grid"`
}

// CycleFocusInput is the input for cycle_focus.
type CycleFocusInput struct {
	Delta int `json:"delta,omitempty" jsonschema:"Steps to move focus; negative goes backwards (default: 1)"`
}

// CloseFocusedInput is the input for close_focused.
type CloseFocusedInput struct{}

// SnapshotInput is the input for save_snapshot.
type SnapshotInput struct {
	Name string `json:"name,omitempty" jsonschema:"Snapshot name (default: snapshot.name from config)"`
}

// SnapshotOutput is the output for save_snapshot.
type SnapshotOutput struct {
	Name string `json:"name"`
}

// OKOutput acknowledges a command that returns nothing else.
type OKOutput struct {
	OK bool `json:"ok"`
}
