package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/wm"
)

func (s *Server) handleGetState(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStateInput) (*mcpsdk.CallToolResult, StateOutput, error) {
	st, err := s.ctl.State()
	if err != nil {
		return nil, StateOutput{}, err
	}
	return nil, stateOutput(st), nil
}

// stateOutput flattens a state dump into plain JSON types.
func stateOutput(st *wm.State) StateOutput {
	out := StateOutput{
		FocusedWorkspace: st.FocusedWorkspace,
		FocusedClient:    uint32(st.FocusedClient),
		Screens:          make([]ScreenInfo, 0, len(st.Screens)),
		Workspaces:       make([]WorkspaceInfo, 0, len(st.Workspaces)),
		Clients:          make([]ClientInfo, 0, len(st.Clients)),
		InvariantErrors:  st.InvariantErrors,
	}
	for _, sc := range st.Screens {
		out.Screens = append(out.Screens, ScreenInfo{
			Index:     sc.Index,
			Name:      sc.Name,
			Workspace: sc.Workspace,
			X:         sc.Geometry.X,
			Y:         sc.Geometry.Y,
			Width:     sc.Geometry.Width,
			Height:    sc.Geometry.Height,
		})
	}
	for _, ws := range st.Workspaces {
		info := WorkspaceInfo{
			Name:     ws.Name,
			Layout:   ws.Layout,
			Visible:  ws.Screen >= 0,
			Focused:  uint32(ws.Focused),
			Tiled:    make([]uint32, 0, len(ws.Tiled)),
			Floating: make([]uint32, 0, len(ws.Floating)),
		}
		for _, id := range ws.Tiled {
			info.Tiled = append(info.Tiled, uint32(id))
		}
		for _, id := range ws.Floating {
			info.Floating = append(info.Floating, uint32(id))
		}
		out.Workspaces = append(out.Workspaces, info)
	}
	for _, c := range st.Clients {
		out.Clients = append(out.Clients, ClientInfo{
			ID:        uint32(c.ID),
			Class:     c.Class,
			Title:     c.Title,
			Mode:      c.Mode.String(),
			Workspace: c.Workspace,
			X:         c.Geometry.X,
			Y:         c.Geometry.Y,
			Width:     c.Geometry.Width,
			Height:    c.Geometry.Height,
		})
	}
	for _, d := range st.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("%s: %s", d.Kind, d.Message))
	}
	return out
}

func (s *Server) handleGotoWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args WorkspaceInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if strings.TrimSpace(args.Workspace) == "" {
		return nil, OKOutput{}, fmt.Errorf("workspace is required")
	}
	return s.done("goto_workspace", s.ctl.GotoWorkspace(args.Workspace))
}

func (s *Server) handleSendToWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args SendInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if strings.TrimSpace(args.Workspace) == "" {
		return nil, OKOutput{}, fmt.Errorf("workspace is required")
	}
	return s.done("send_to_workspace", s.ctl.SendToWorkspace(args.Workspace, args.Follow))
}

func (s *Server) handleToggleFloating(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	return s.done("toggle_floating", s.ctl.ToggleFloating(args.Window))
}

func (s *Server) handleToggleFullscreen(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	return s.done("toggle_fullscreen", s.ctl.ToggleFullscreen(args.Window))
}

func (s *Server) handleWarpWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WarpInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	switch strings.ToLower(args.Direction) {
	case "up", "down", "left", "right":
	default:
		return nil, OKOutput{}, fmt.Errorf("direction must be one of up, down, left, right; got %q", args.Direction)
	}
	if args.Distance < 0 {
		return nil, OKOutput{}, fmt.Errorf("distance must be >= 0")
	}
	return s.done("warp_window", s.ctl.WarpWindow(args.Window, strings.ToLower(args.Direction), args.Distance))
}

func (s *Server) handleCloseFocused(_ context.Context, _ *mcpsdk.CallToolRequest, _ CloseFocusedInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	return s.done("close_focused", s.ctl.CloseFocused())
}

func (s *Server) handleRun(_ context.Context, _ *mcpsdk.CallToolRequest, args RunInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if strings.TrimSpace(args.Command) == "" {
		return nil, OKOutput{}, fmt.Errorf("command is required")
	}
	return s.done("run_program", s.ctl.Run(args.Command, args.Args...))
}

func (s *Server) handleSetLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args LayoutInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if strings.TrimSpace(args.Layout) == "" {
		return nil, OKOutput{}, fmt.Errorf("layout is required")
	}
	return s.done("set_layout", s.ctl.SetLayout(args.Layout))
}

func (s *Server) handleCycleFocus(_ context.Context, _ *mcpsdk.CallToolRequest, args CycleFocusInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	delta := args.Delta
	if delta == 0 {
		delta = 1
	}
	return s.done("cycle_focus", s.ctl.CycleFocus(delta))
}

func (s *Server) handleSaveSnapshot(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapshotInput) (*mcpsdk.CallToolResult, SnapshotOutput, error) {
	name, err := s.ctl.SaveSnapshot(args.Name)
	if err != nil {
		s.logger.Warn("mcp tool failed", "tool", "save_snapshot", "error", err)
		return nil, SnapshotOutput{}, err
	}
	return nil, SnapshotOutput{Name: name}, nil
}

func (s *Server) done(tool string, err error) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err != nil {
		s.logger.Warn("mcp tool failed", "tool", tool, "error", err)
		return nil, OKOutput{}, err
	}
	s.logger.Debug("mcp tool", "tool", tool)
	return nil, OKOutput{OK: true}, nil
}
