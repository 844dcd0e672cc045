package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/tui"
)

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	refresh := fs.Duration("refresh", tui.DefaultRefresh, "State polling interval")
	if code, ok := parseFlags(fs, args, "tilewm tui [--refresh DURATION]"); !ok {
		return code
	}
	if err := tui.Run(ipc.NewClient(), *refresh); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
