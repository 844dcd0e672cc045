package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/wm"
)

// parseFlags parses args with a usage line and returns false plus the exit
// code when the command should stop.
func parseFlags(fs *flag.FlagSet, args []string, usage string) (int, bool) {
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: "+usage) }
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

// parseWindow reads a window id in decimal or 0x hex. An empty string
// selects the focused client.
func parseWindow(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(id), nil
}

func report(err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSimple(name string, args []string, fn func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "tilewm "+name); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		return 2
	}
	return report(fn(ipc.NewClient()))
}

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON even on a terminal")
	asYAML := fs.Bool("yaml", false, "Print YAML even when piped")
	if code, ok := parseFlags(fs, args, "tilewm state [--json|--yaml]"); !ok {
		return code
	}

	st, err := ipc.NewClient().State()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	useYAML := term.IsTerminal(int(os.Stdout.Fd()))
	if *asJSON {
		useYAML = false
	}
	if *asYAML {
		useYAML = true
	}
	return report(writeState(os.Stdout, st, useYAML))
}

func writeState(w io.Writer, st *wm.State, useYAML bool) error {
	if useYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func runGoto(args []string) int {
	fs := flag.NewFlagSet("goto", flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "tilewm goto <workspace>"); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	return report(ipc.NewClient().GotoWorkspace(fs.Arg(0)))
}

func runSend(args []string) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	follow := fs.Bool("follow", false, "Switch to the target workspace too")
	if code, ok := parseFlags(fs, args, "tilewm send [--follow] <workspace>"); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	return report(ipc.NewClient().SendToWorkspace(fs.Arg(0), *follow))
}

func runToggle(name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "tilewm "+name+" [window-id]"); !ok {
		return code
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 2
	}
	id, err := parseWindow(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	c := ipc.NewClient()
	if name == "fullscreen" {
		return report(c.ToggleFullscreen(id))
	}
	return report(c.ToggleFloating(id))
}

func runWarp(args []string) int {
	fs := flag.NewFlagSet("warp", flag.ContinueOnError)
	window := fs.String("window", "", "Window id (default: focused client)")
	if code, ok := parseFlags(fs, args, "tilewm warp [--window ID] <up|down|left|right> [pixels]"); !ok {
		return code
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 2
	}
	if _, err := hotkeys.ParseDirection(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	distance := 0
	if fs.NArg() == 2 {
		n, err := strconv.Atoi(fs.Arg(1))
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "invalid distance %q\n", fs.Arg(1))
			return 2
		}
		distance = n
	}
	id, err := parseWindow(*window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return report(ipc.NewClient().WarpWindow(id, fs.Arg(0), distance))
}

func runFocus(args []string) int {
	fs := flag.NewFlagSet("focus", flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "tilewm focus <up|down|left|right>"); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	if _, err := hotkeys.ParseDirection(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return report(ipc.NewClient().FocusDirection(fs.Arg(0)))
}

func runExec(args []string) int {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "tilewm exec <command> [args...]"); !ok {
		return code
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	return report(ipc.NewClient().Run(fs.Arg(0), fs.Args()[1:]...))
}

func runLayout(args []string) int {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "tilewm layout <name|next|prev>"); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	c := ipc.NewClient()
	switch fs.Arg(0) {
	case "next":
		return report(c.CycleLayout(1))
	case "prev":
		return report(c.CycleLayout(-1))
	default:
		return report(c.SetLayout(fs.Arg(0)))
	}
}
