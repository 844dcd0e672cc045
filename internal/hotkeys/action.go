package hotkeys

import (
	"fmt"
	"strconv"
	"strings"
)

// Action names accepted in keybind command lines.
const (
	ActionGoto           = "goto_workspace"
	ActionSendTo         = "send_to"
	ActionSendFollow     = "send_follow"
	ActionToggleFloating = "toggle_floating"
	ActionFullscreen     = "toggle_fullscreen"
	ActionWarp           = "warp"
	ActionClose          = "close"
	ActionExec           = "exec"
	ActionQuit           = "quit"
	ActionCycleFocus     = "cycle_focus"
	ActionFocusDir       = "focus"
	ActionCycleWorkspace = "cycle_workspace"
	ActionLayout         = "layout"
	ActionNextLayout     = "next_layout"
	ActionRatio          = "ratio"
	ActionPromote        = "promote"
	ActionDump           = "dump"
)

type arity struct {
	min, max int // max < 0 means unbounded
}

var actions = map[string]arity{
	ActionGoto:           {1, 1},
	ActionSendTo:         {1, 1},
	ActionSendFollow:     {1, 1},
	ActionToggleFloating: {0, 0},
	ActionFullscreen:     {0, 0},
	ActionWarp:           {1, 2},
	ActionClose:          {0, 0},
	ActionExec:           {1, -1},
	ActionQuit:           {0, 0},
	ActionCycleFocus:     {0, 1},
	ActionFocusDir:       {1, 1},
	ActionCycleWorkspace: {0, 1},
	ActionLayout:         {1, 1},
	ActionNextLayout:     {0, 0},
	ActionRatio:          {1, 1},
	ActionPromote:        {0, 0},
	ActionDump:           {0, 0},
}

// Action is one parsed keybind command, e.g. "goto_workspace 2".
type Action struct {
	Name string
	Args []string
}

func (a Action) String() string {
	if len(a.Args) == 0 {
		return a.Name
	}
	return a.Name + " " + strings.Join(a.Args, " ")
}

// IntArg parses argument i as an int, returning def when it is absent.
func (a Action) IntArg(i, def int) (int, error) {
	if i >= len(a.Args) {
		return def, nil
	}
	n, err := strconv.Atoi(a.Args[i])
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d: %w", a.Name, i+1, err)
	}
	return n, nil
}

// FloatArg parses argument i as a float; a leading '+' is accepted.
func (a Action) FloatArg(i int) (float64, error) {
	if i >= len(a.Args) {
		return 0, fmt.Errorf("%s: missing argument %d", a.Name, i+1)
	}
	f, err := strconv.ParseFloat(strings.TrimPrefix(a.Args[i], "+"), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d: %w", a.Name, i+1, err)
	}
	return f, nil
}

// ParseAction parses a command line into an Action and checks its arity.
func ParseAction(line string) (Action, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Action{}, fmt.Errorf("empty command")
	}
	name := strings.ToLower(fields[0])
	ar, ok := actions[name]
	if !ok {
		return Action{}, fmt.Errorf("unknown command %q", fields[0])
	}
	args := fields[1:]
	if len(args) < ar.min || (ar.max >= 0 && len(args) > ar.max) {
		return Action{}, fmt.Errorf("%s: wrong number of arguments (%d)", name, len(args))
	}

	a := Action{Name: name, Args: args}
	switch name {
	case ActionCycleFocus, ActionCycleWorkspace:
		if _, err := a.IntArg(0, 1); err != nil {
			return Action{}, err
		}
	case ActionRatio:
		if _, err := a.FloatArg(0); err != nil {
			return Action{}, err
		}
	case ActionFocusDir:
		if _, err := ParseDirection(args[0]); err != nil {
			return Action{}, err
		}
	case ActionWarp:
		if _, err := ParseDirection(args[0]); err != nil {
			return Action{}, err
		}
		if _, err := a.IntArg(1, 0); err != nil {
			return Action{}, err
		}
	}
	return a, nil
}

// Direction is a cardinal direction for warp and directional focus.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Delta converts a distance along d into x/y offsets.
func (d Direction) Delta(dist int) (int, int) {
	switch d {
	case Up:
		return 0, -dist
	case Down:
		return 0, dist
	case Left:
		return -dist, 0
	case Right:
		return dist, 0
	}
	return 0, 0
}

// ParseDirection accepts up/down/left/right and their first letters.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u", "north":
		return Up, nil
	case "down", "d", "south":
		return Down, nil
	case "left", "l", "west":
		return Left, nil
	case "right", "r", "east":
		return Right, nil
	}
	return Up, fmt.Errorf("invalid direction %q", s)
}
