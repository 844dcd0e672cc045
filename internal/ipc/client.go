package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tilewm/internal/runtimepath"
	"github.com/1broseidon/tilewm/internal/wm"
)

// ErrNotConnected is returned when no manager is listening on the socket.
var ErrNotConnected = errors.New("window manager is not running")

// RemoteError is an ERROR response. It unwraps to the manager sentinel
// matching its code, so errors.Is works across the socket.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return "daemon error: " + e.Message
}

func (e *RemoteError) Unwrap() error {
	return wm.ErrorForKind(e.Code)
}

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the socket at path.
func NewClientAt(path string) *Client {
	return &Client{
		socketPath: path,
		timeout:    2 * requestTimeout,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(reqData, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, &RemoteError{Code: resp.Code, Message: resp.Error}
	}
	return &resp, nil
}

// call sends cmd with payload and decodes the response data into out when
// out is not nil.
func (c *Client) call(cmd CommandType, payload, out any) error {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return err
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// State retrieves a dump of the manager's model.
func (c *Client) State() (*wm.State, error) {
	var st wm.State
	if err := c.call(CommandGetState, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) GotoWorkspace(name string) error {
	return c.call(CommandGotoWorkspace, WorkspacePayload{Workspace: name}, nil)
}

// SendToWorkspace moves the focused client, optionally following it.
func (c *Client) SendToWorkspace(name string, follow bool) error {
	return c.call(CommandSendToWorkspace, WorkspacePayload{Workspace: name, Follow: follow}, nil)
}

func (c *Client) ToggleFloating(window uint32) error {
	return c.call(CommandToggleFloating, WindowPayload{Window: window}, nil)
}

func (c *Client) ToggleFullscreen(window uint32) error {
	return c.call(CommandToggleFullscreen, WindowPayload{Window: window}, nil)
}

// WarpWindow moves a client; direction is up, down, left or right.
func (c *Client) WarpWindow(window uint32, direction string, distance int) error {
	return c.call(CommandWarpWindow, WarpPayload{Window: window, Direction: direction, Distance: distance}, nil)
}

func (c *Client) CloseFocused() error {
	return c.call(CommandCloseFocused, nil, nil)
}

// Run starts a program from the manager's environment.
func (c *Client) Run(command string, args ...string) error {
	return c.call(CommandRun, RunPayload{Command: command, Args: args}, nil)
}

func (c *Client) SetLayout(name string) error {
	return c.call(CommandSetLayout, LayoutPayload{Layout: name}, nil)
}

func (c *Client) CycleLayout(delta int) error {
	return c.call(CommandCycleLayout, DeltaPayload{Delta: delta}, nil)
}

func (c *Client) CycleFocus(delta int) error {
	return c.call(CommandCycleFocus, DeltaPayload{Delta: delta}, nil)
}

// FocusDirection focuses the nearest client in direction.
func (c *Client) FocusDirection(direction string) error {
	return c.call(CommandFocusDirection, DirectionPayload{Direction: direction}, nil)
}

func (c *Client) Quit() error {
	return c.call(CommandQuit, nil, nil)
}

// SaveSnapshot asks the manager to persist its workspaces and returns the
// snapshot name it used.
func (c *Client) SaveSnapshot(name string) (string, error) {
	var data SnapshotData
	if err := c.call(CommandSaveSnapshot, SnapshotPayload{Name: name}, &data); err != nil {
		return "", err
	}
	return data.Name, nil
}

// Reload makes the manager re-read its configuration file.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() (*PingData, error) {
	var data PingData
	if err := c.call(CommandPing, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
