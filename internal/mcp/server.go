// Package mcp exposes the running window manager to MCP clients. Every
// tool forwards to the manager over the IPC socket.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/wm"
)

const (
	ServerName    = "tilewm"
	ServerVersion = "0.1.0"
)

// Controller is the part of the IPC client the tools use.
type Controller interface {
	State() (*wm.State, error)
	GotoWorkspace(name string) error
	SendToWorkspace(name string, follow bool) error
	ToggleFloating(window uint32) error
	ToggleFullscreen(window uint32) error
	WarpWindow(window uint32, direction string, distance int) error
	CloseFocused() error
	Run(command string, args ...string) error
	SetLayout(name string) error
	CycleFocus(delta int) error
	SaveSnapshot(name string) (string, error)
}

// Server is the MCP server for tilewm.
type Server struct {
	mcpServer *mcpsdk.Server
	ctl       Controller
	logger    *slog.Logger
}

// NewServer creates an MCP server that drives the manager through ctl.
func NewServer(ctl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{ctl: ctl, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_state",
		Description: "Return the window manager state: screens, workspaces with their tiled and floating clients, every managed client with its mode and geometry, and recent diagnostics.",
	}, s.handleGetState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "goto_workspace",
		Description: "Show a workspace. If it is already visible on another screen, focus moves there instead.",
	}, s.handleGotoWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "send_to_workspace",
		Description: "Move the focused client to the end of another workspace, optionally following it.",
	}, s.handleSendToWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_floating",
		Description: "Switch a client between tiled and floating. Toggling twice restores its tiling position.",
	}, s.handleToggleFloating)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_fullscreen",
		Description: "Make a client cover its whole screen, or restore it.",
	}, s.handleToggleFullscreen)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "warp_window",
		Description: "Move a client in a direction, kept inside its screen. Tiled clients are floated first.",
	}, s.handleWarpWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_focused",
		Description: "Ask the focused client to close; clients that do not support it are destroyed.",
	}, s.handleCloseFocused)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_program",
		Description: "Start a program in the window manager's session without waiting for it.",
	}, s.handleRun)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_layout",
		Description: "Change the layout of the focused workspace.",
	}, s.handleSetLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cycle_focus",
		Description: "Move focus through the clients of the focused workspace.",
	}, s.handleCycleFocus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_snapshot",
		Description: "Persist the current workspaces so they can be restored on the next start.",
	}, s.handleSaveSnapshot)
}
