package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetState         CommandType = "GET_STATE"
	CommandGotoWorkspace    CommandType = "GOTO_WORKSPACE"
	CommandSendToWorkspace  CommandType = "SEND_TO_WORKSPACE"
	CommandToggleFloating   CommandType = "TOGGLE_FLOATING"
	CommandToggleFullscreen CommandType = "TOGGLE_FULLSCREEN"
	CommandWarpWindow       CommandType = "WARP_WINDOW"
	CommandCloseFocused     CommandType = "CLOSE_FOCUSED"
	CommandRun              CommandType = "RUN"
	CommandSetLayout        CommandType = "SET_LAYOUT"
	CommandCycleLayout      CommandType = "CYCLE_LAYOUT"
	CommandCycleFocus       CommandType = "CYCLE_FOCUS"
	CommandFocusDirection   CommandType = "FOCUS_DIRECTION"
	CommandQuit             CommandType = "QUIT"
	CommandSaveSnapshot     CommandType = "SAVE_SNAPSHOT"
	CommandReload           CommandType = "RELOAD"
	CommandPing             CommandType = "PING"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client. Code is the
// manager's error kind, e.g. "unknown-window".
type Response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

type WorkspacePayload struct {
	Workspace string `json:"workspace"`
	Follow    bool   `json:"follow,omitempty"`
}

// WindowPayload selects a client; 0 means the focused one.
type WindowPayload struct {
	Window uint32 `json:"window,omitempty"`
}

type WarpPayload struct {
	Window    uint32 `json:"window,omitempty"`
	Direction string `json:"direction"`
	Distance  int    `json:"distance,omitempty"`
}

type DirectionPayload struct {
	Direction string `json:"direction"`
}

type RunPayload struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type LayoutPayload struct {
	Layout string `json:"layout"`
}

type DeltaPayload struct {
	Delta int `json:"delta"`
}

type SnapshotPayload struct {
	Name string `json:"name,omitempty"`
}

type SnapshotData struct {
	Name string `json:"name"`
}

type PingData struct {
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// NewRequest builds a request, marshalling payload when it is not nil.
func NewRequest(cmd CommandType, payload any) (*Request, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	return req, nil
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(code, errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
		Code:   code,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
