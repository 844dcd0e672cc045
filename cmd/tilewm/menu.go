package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/palette"
)

// actionClient is the part of the IPC client a menu choice can reach.
type actionClient interface {
	GotoWorkspace(name string) error
	SendToWorkspace(name string, follow bool) error
	ToggleFloating(window uint32) error
	ToggleFullscreen(window uint32) error
	WarpWindow(window uint32, direction string, distance int) error
	CloseFocused() error
	Run(command string, args ...string) error
	SetLayout(name string) error
	CycleLayout(delta int) error
	CycleFocus(delta int) error
	Quit() error
}

func runMenu(args []string) int {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	backendName := fs.String("backend", "auto", "Menu program: auto, rofi or dmenu")
	if code, ok := parseFlags(fs, args, "tilewm menu [--backend auto|rofi|dmenu]"); !ok {
		return code
	}

	backend, err := palette.NewBackend(*backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	c := ipc.NewClient()
	st, err := c.State()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	action, err := palette.Choose(backend, "tilewm", palette.BuildMenu(st, loadConfigOrDefault().Layouts))
	if errors.Is(err, palette.ErrCancelled) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return report(dispatch(c, action))
}

// dispatch runs a parsed command line through the IPC client.
func dispatch(c actionClient, a hotkeys.Action) error {
	switch a.Name {
	case hotkeys.ActionGoto:
		return c.GotoWorkspace(a.Args[0])
	case hotkeys.ActionSendTo:
		return c.SendToWorkspace(a.Args[0], false)
	case hotkeys.ActionSendFollow:
		return c.SendToWorkspace(a.Args[0], true)
	case hotkeys.ActionToggleFloating:
		return c.ToggleFloating(0)
	case hotkeys.ActionFullscreen:
		return c.ToggleFullscreen(0)
	case hotkeys.ActionWarp:
		dist, err := a.IntArg(1, 0)
		if err != nil {
			return err
		}
		return c.WarpWindow(0, a.Args[0], dist)
	case hotkeys.ActionClose:
		return c.CloseFocused()
	case hotkeys.ActionExec:
		return c.Run(a.Args[0], a.Args[1:]...)
	case hotkeys.ActionQuit:
		return c.Quit()
	case hotkeys.ActionCycleFocus:
		delta, err := a.IntArg(0, 1)
		if err != nil {
			return err
		}
		return c.CycleFocus(delta)
	case hotkeys.ActionLayout:
		return c.SetLayout(a.Args[0])
	case hotkeys.ActionNextLayout:
		return c.CycleLayout(1)
	}
	return fmt.Errorf("%s cannot be run from the menu", a.Name)
}
