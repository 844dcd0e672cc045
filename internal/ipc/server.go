package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

// Doer runs a request on the manager loop. *wm.Manager implements it.
type Doer interface {
	Do(ctx context.Context, req wm.Request) (wm.Result, error)
}

// Reloader loads a fresh configuration for RELOAD.
type Reloader func() (*config.Config, error)

const requestTimeout = 5 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	manager    Doer
	reload     Reloader
	logger     *slog.Logger
	startTime  time.Time

	mu           sync.Mutex
	listener     net.Listener
	shuttingDown bool
	conns        sync.WaitGroup
}

// NewServer creates a server for socketPath that forwards commands to
// manager. reload may be nil, in which case RELOAD fails.
func NewServer(socketPath string, manager Doer, reload Reloader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		manager:    manager,
		reload:     reload,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a previous run.
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.shuttingDown = false
	s.mu.Unlock()

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	go s.acceptLoop(listener)
	return nil
}

// Serve runs the server until ctx is cancelled. It implements
// suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

func (s *Server) String() string { return "ipc" }

func (s *Server) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			stopping := s.shuttingDown
			s.mu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection reads one JSON line and writes one JSON line back.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * requestTimeout))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "error", err)
		return
	}

	var resp *Response
	if req, err := ParseRequest(data); err != nil {
		resp = NewErrorResponse("bad-request", fmt.Sprintf("Invalid request: %v", err))
	} else {
		resp = s.handleCommand(req)
	}

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal IPC response", "error", err)
		return
	}
	if _, err := conn.Write(append(respData, '\n')); err != nil {
		s.logger.Debug("failed to send IPC response", "error", err)
	}
}

// handleCommand turns an IPC command into a manager request.
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandPing:
		return ok(PingData{UptimeSeconds: int64(time.Since(s.startTime).Seconds())})
	case CommandGetState:
		res, err := s.do(wm.Request{Op: wm.OpDumpState})
		if err != nil {
			return errorResponse(err)
		}
		return ok(res.State)
	case CommandSaveSnapshot:
		var p SnapshotPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return badRequest(err)
		}
		res, err := s.do(wm.Request{Op: wm.OpSaveSnapshot, Snapshot: p.Name})
		if err != nil {
			return errorResponse(err)
		}
		return ok(SnapshotData{Name: res.Snapshot})
	case CommandReload:
		return s.handleReload()
	}

	wreq, err := translate(req)
	if err != nil {
		return badRequest(err)
	}
	if _, err := s.do(wreq); err != nil {
		return errorResponse(err)
	}
	return ok(nil)
}

// translate maps the commands that carry no result data.
func translate(req *Request) (wm.Request, error) {
	switch req.Command {
	case CommandGotoWorkspace:
		var p WorkspacePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return wm.Request{}, err
		}
		return wm.Request{Op: wm.OpGotoWorkspace, Workspace: p.Workspace}, nil
	case CommandSendToWorkspace:
		var p WorkspacePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return wm.Request{}, err
		}
		op := wm.OpSendFocusedTo
		if p.Follow {
			op = wm.OpSendAndFollow
		}
		return wm.Request{Op: op, Workspace: p.Workspace}, nil
	case CommandToggleFloating, CommandToggleFullscreen:
		var p WindowPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return wm.Request{}, err
		}
		op := wm.OpToggleFloating
		if req.Command == CommandToggleFullscreen {
			op = wm.OpToggleFullscreen
		}
		return wm.Request{Op: op, Window: platform.WindowID(p.Window)}, nil
	case CommandWarpWindow:
		var p WarpPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return wm.Request{}, err
		}
		dir, err := hotkeys.ParseDirection(p.Direction)
		if err != nil {
			return wm.Request{}, err
		}
		return wm.Request{Op: wm.OpWarpWindow, Window: platform.WindowID(p.Window), Direction: dir, Distance: p.Distance}, nil
	case CommandFocusDirection:
		var p DirectionPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return wm.Request{}, err
		}
		dir, err := hotkeys.ParseDirection(p.Direction)
		if err != nil {
			return wm.Request{}, err
		}
		return wm.Request{Op: wm.OpFocusDirection, Direction: dir}, nil
	case CommandCloseFocused:
		return wm.Request{Op: wm.OpCloseFocused}, nil
	case CommandRun:
		var p RunPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return wm.Request{}, err
		}
		if p.Command == "" {
			return wm.Request{}, fmt.Errorf("command is required")
		}
		return wm.Request{Op: wm.OpRunExternal, Command: p.Command, Args: p.Args}, nil
	case CommandSetLayout:
		var p LayoutPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return wm.Request{}, err
		}
		if p.Layout == "" {
			return wm.Request{}, fmt.Errorf("layout is required")
		}
		return wm.Request{Op: wm.OpSetLayout, Layout: p.Layout}, nil
	case CommandCycleLayout, CommandCycleFocus:
		p := DeltaPayload{Delta: 1}
		if err := decodePayload(req.Payload, &p); err != nil {
			return wm.Request{}, err
		}
		op := wm.OpCycleFocus
		if req.Command == CommandCycleLayout {
			op = wm.OpCycleLayout
		}
		return wm.Request{Op: op, Delta: p.Delta}, nil
	case CommandQuit:
		return wm.Request{Op: wm.OpQuit}, nil
	}
	return wm.Request{}, fmt.Errorf("unknown command: %s", req.Command)
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("error", "reload is not available")
	}
	cfg, err := s.reload()
	if err != nil {
		return NewErrorResponse(wm.ErrorKind(wm.ErrInvalidConfiguration), fmt.Sprintf("Failed to reload config: %v", err))
	}
	if _, err := s.do(wm.Request{Op: wm.OpReload, Config: cfg}); err != nil {
		return errorResponse(err)
	}
	s.logger.Info("configuration reloaded over IPC")
	return ok(nil)
}

func (s *Server) do(req wm.Request) (wm.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return s.manager.Do(ctx, req)
}

// Stop closes the listener, waits for in-flight connections and removes
// the socket.
func (s *Server) Stop() {
	s.mu.Lock()
	s.shuttingDown = true
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	s.conns.Wait()
	_ = os.Remove(s.socketPath)
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse("error", err.Error())
	}
	return resp
}

func badRequest(err error) *Response {
	return NewErrorResponse("bad-request", err.Error())
}

func errorResponse(err error) *Response {
	return NewErrorResponse(wm.ErrorKind(err), err.Error())
}
