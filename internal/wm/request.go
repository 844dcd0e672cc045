package wm

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Op names a manager operation a host can request.
type Op string

const (
	OpGotoWorkspace    Op = "goto_workspace"
	OpCycleWorkspace   Op = "cycle_workspace"
	OpSendFocusedTo    Op = "send_focused_to"
	OpSendAndFollow    Op = "send_and_follow"
	OpToggleFloating   Op = "toggle_floating"
	OpToggleFullscreen Op = "toggle_fullscreen"
	OpWarpWindow       Op = "warp_window"
	OpCloseFocused     Op = "close_focused"
	OpRunExternal      Op = "run_external"
	OpQuit             Op = "quit"
	OpDumpState        Op = "dump_state"
	OpCycleFocus       Op = "cycle_focus"
	OpFocusDirection   Op = "focus_direction"
	OpFocusClient      Op = "focus_client"
	OpPromoteFocused   Op = "promote_focused"
	OpSetLayout        Op = "set_layout"
	OpCycleLayout      Op = "cycle_layout"
	OpAdjustRatio      Op = "adjust_ratio"
	OpSaveSnapshot     Op = "save_snapshot"
	OpCheckInvariants  Op = "check_invariants"
	OpReload           Op = "reload"
)

// ReadOnly reports whether op only inspects the model. Observers are not
// notified of read-only operations.
func (op Op) ReadOnly() bool {
	switch op {
	case OpDumpState, OpCheckInvariants:
		return true
	}
	return false
}

// Request is one operation sent to the loop through Do. Only the fields
// the operation reads need to be set; Window 0 means the focused client.
type Request struct {
	Op        Op
	Workspace string
	Window    platform.WindowID
	Direction hotkeys.Direction
	Distance  int
	Delta     int
	Ratio     float64
	Layout    string
	Command   string
	Args      []string
	Snapshot  string
	Config    *config.Config
}

// Result carries what an operation returns besides its error.
type Result struct {
	State    *State
	Snapshot string
}

// RequestFromAction maps a parsed keybind command onto a Request.
func RequestFromAction(a hotkeys.Action) (Request, error) {
	switch a.Name {
	case hotkeys.ActionGoto:
		return Request{Op: OpGotoWorkspace, Workspace: a.Args[0]}, nil
	case hotkeys.ActionSendTo:
		return Request{Op: OpSendFocusedTo, Workspace: a.Args[0]}, nil
	case hotkeys.ActionSendFollow:
		return Request{Op: OpSendAndFollow, Workspace: a.Args[0]}, nil
	case hotkeys.ActionToggleFloating:
		return Request{Op: OpToggleFloating}, nil
	case hotkeys.ActionFullscreen:
		return Request{Op: OpToggleFullscreen}, nil
	case hotkeys.ActionWarp:
		dir, err := hotkeys.ParseDirection(a.Args[0])
		if err != nil {
			return Request{}, err
		}
		dist, err := a.IntArg(1, 0)
		if err != nil {
			return Request{}, err
		}
		return Request{Op: OpWarpWindow, Direction: dir, Distance: dist}, nil
	case hotkeys.ActionClose:
		return Request{Op: OpCloseFocused}, nil
	case hotkeys.ActionExec:
		return Request{Op: OpRunExternal, Command: a.Args[0], Args: a.Args[1:]}, nil
	case hotkeys.ActionQuit:
		return Request{Op: OpQuit}, nil
	case hotkeys.ActionCycleFocus:
		n, err := a.IntArg(0, 1)
		if err != nil {
			return Request{}, err
		}
		return Request{Op: OpCycleFocus, Delta: n}, nil
	case hotkeys.ActionFocusDir:
		dir, err := hotkeys.ParseDirection(a.Args[0])
		if err != nil {
			return Request{}, err
		}
		return Request{Op: OpFocusDirection, Direction: dir}, nil
	case hotkeys.ActionCycleWorkspace:
		n, err := a.IntArg(0, 1)
		if err != nil {
			return Request{}, err
		}
		return Request{Op: OpCycleWorkspace, Delta: n}, nil
	case hotkeys.ActionLayout:
		return Request{Op: OpSetLayout, Layout: a.Args[0]}, nil
	case hotkeys.ActionNextLayout:
		return Request{Op: OpCycleLayout, Delta: 1}, nil
	case hotkeys.ActionRatio:
		f, err := a.FloatArg(0)
		if err != nil {
			return Request{}, err
		}
		return Request{Op: OpAdjustRatio, Ratio: f}, nil
	case hotkeys.ActionPromote:
		return Request{Op: OpPromoteFocused}, nil
	case hotkeys.ActionDump:
		return Request{Op: OpDumpState}, nil
	}
	return Request{}, fmt.Errorf("no operation for command %q", a.Name)
}
