package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/thejerf/suture/v4"

	"github.com/1broseidon/tilewm/internal/api"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/runtimepath"
	"github.com/1broseidon/tilewm/internal/wm"
	"github.com/1broseidon/tilewm/internal/workspace"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "run":
		os.Exit(runWM(args))
	case "state":
		os.Exit(runState(args))
	case "goto":
		os.Exit(runGoto(args))
	case "send":
		os.Exit(runSend(args))
	case "float":
		os.Exit(runToggle("float", args))
	case "fullscreen":
		os.Exit(runToggle("fullscreen", args))
	case "warp":
		os.Exit(runWarp(args))
	case "focus":
		os.Exit(runFocus(args))
	case "close":
		os.Exit(runSimple("close", args, func(c *ipc.Client) error { return c.CloseFocused() }))
	case "exec":
		os.Exit(runExec(args))
	case "layout":
		os.Exit(runLayout(args))
	case "reload":
		os.Exit(runSimple("reload", args, func(c *ipc.Client) error { return c.Reload() }))
	case "quit":
		os.Exit(runSimple("quit", args, func(c *ipc.Client) error { return c.Quit() }))
	case "config":
		os.Exit(runConfig(args))
	case "snapshot":
		os.Exit(runSnapshot(args))
	case "menu":
		os.Exit(runMenu(args))
	case "tui":
		os.Exit(runTUI(args))
	case "mcp":
		os.Exit(runMCP(args))
	case "version":
		fmt.Println("tilewm", version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tilewm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the window manager (foreground)")
	fmt.Fprintln(w, "  state               Print the manager state")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  goto <ws>           Show a workspace")
	fmt.Fprintln(w, "  send [--follow] <ws> Send the focused client to a workspace")
	fmt.Fprintln(w, "  float [id]          Toggle floating")
	fmt.Fprintln(w, "  fullscreen [id]     Toggle fullscreen")
	fmt.Fprintln(w, "  warp <dir> [px]     Move a client")
	fmt.Fprintln(w, "  focus <dir>         Focus the nearest client in a direction")
	fmt.Fprintln(w, "  close               Close the focused client")
	fmt.Fprintln(w, "  exec <cmd> [args]   Start a program")
	fmt.Fprintln(w, "  layout <name|next|prev>")
	fmt.Fprintln(w, "                      Change the focused workspace's layout")
	fmt.Fprintln(w, "  reload              Reload the configuration")
	fmt.Fprintln(w, "  quit                Stop the window manager")
	fmt.Fprintln(w, "  menu                Pick an action in rofi or dmenu")
	fmt.Fprintln(w, "  tui                 Inspect the manager in the terminal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config path         Print the configuration path")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  snapshot save       Save the current workspaces")
	fmt.Fprintln(w, "  snapshot list       List saved snapshots")
	fmt.Fprintln(w, "  snapshot delete     Delete a snapshot")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  version             Print the version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tilewm <command> --help' for command-specific options.")
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

// loadConfigOrDefault is for client commands, which must keep working
// with a broken config file.
func loadConfigOrDefault() *config.Config {
	res, err := loadConfig("")
	if err != nil {
		return config.DefaultConfig()
	}
	return res.Config
}

// managerOptions wires autostart commands, snapshot storage and
// restoration.
func managerOptions(cfg *config.Config, store *workspace.Store, logger *slog.Logger) []wm.Option {
	opts := []wm.Option{wm.WithLogger(logger)}
	if lines := cfg.Autostart; len(lines) > 0 {
		opts = append(opts, wm.WithStartupHooks(func(m *wm.Manager) {
			runAutostart(m.RunExternal, lines, logger)
		}))
	}
	if store == nil {
		return opts
	}
	opts = append(opts, wm.WithStore(store))
	if !cfg.Snapshot.RestoreOnStart {
		return opts
	}
	snap, err := store.Read(cfg.Snapshot.Name)
	switch {
	case err == nil:
		opts = append(opts, wm.WithRestore(snap))
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("no snapshot to restore", "name", cfg.Snapshot.Name)
	default:
		logger.Warn("snapshot not restored", "name", cfg.Snapshot.Name, "error", err)
	}
	return opts
}

// runAutostart starts each command line through run. A failing command is
// logged and does not stop the rest.
func runAutostart(run func(name string, args ...string) error, lines []string, logger *slog.Logger) {
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := run(fields[0], fields[1:]...); err != nil {
			logger.Warn("autostart command failed", "command", line, "error", err)
		}
	}
}

func runWM(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/tilewm/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm run [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Manage the X display in the foreground.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config
	logger := newLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings() {
		logger.Warn("config adjusted", "warning", w)
	}

	conn, err := platform.NewX11Conn(cfg.Display, logger)
	if err != nil {
		logger.Error("failed to connect to display", "display", cfg.Display, "error", err)
		return 1
	}
	defer conn.Close()

	var store *workspace.Store
	if cfg.Snapshot.Enabled {
		if store, err = workspace.DefaultStore(); err != nil {
			logger.Warn("snapshots disabled", "error", err)
			store = nil
		}
	}

	mgr, err := wm.New(conn, cfg, managerOptions(cfg, store, logger)...)
	if err != nil {
		logger.Error("failed to create manager", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := suture.New("tilewm", suture.Spec{
		EventHook: func(e suture.Event) {
			logger.Warn("supervisor event", "event", e.String())
		},
	})

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		logger.Warn("IPC disabled", "error", err)
	} else {
		reload := func() (*config.Config, error) {
			res, err := loadConfig(*path)
			if err != nil {
				return nil, err
			}
			return res.Config, nil
		}
		sup.Add(ipc.NewServer(socketPath, mgr, reload, logger))
	}
	if cfg.API.Listen != "" {
		sup.Add(api.NewServer(cfg.API.Listen, mgr, logger))
	}
	snapshotName := ""
	if store != nil {
		snapshotName = cfg.Snapshot.Name
	}
	sup.Add(daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.Snapshot.AutosaveInterval,
		Snapshot: snapshotName,
		Logger:   logger,
	}, mgr))

	supCtx, cancelSup := context.WithCancel(ctx)
	supDone := sup.ServeBackground(supCtx)

	logger.Info("tilewm started", "version", version, "workspaces", len(cfg.Workspaces))
	runErr := mgr.Run(ctx)

	cancelSup()
	<-supDone

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("window manager stopped", "error", runErr)
		return 1
	}
	logger.Info("tilewm stopped")
	return 0
}
