// Package api serves the manager's state and a few control endpoints over
// HTTP, plus a websocket stream of manager notifications.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

// Manager is what the API needs from *wm.Manager.
type Manager interface {
	Do(ctx context.Context, req wm.Request) (wm.Result, error)
	Subscribe(buffer int) (<-chan wm.Notification, func())
}

const eventBuffer = 64

// Server is the HTTP API.
type Server struct {
	addr    string
	manager Manager
	logger  *slog.Logger
	router  *mux.Router
}

// NewServer builds the router for addr. Nothing listens until Serve.
func NewServer(addr string, manager Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{addr: addr, manager: manager, logger: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/state", s.handleState).Methods("GET")
	r.HandleFunc("/workspaces/", s.handleWorkspaces).Methods("GET")
	r.HandleFunc("/workspaces/{name}/goto", s.handleGoto).Methods("POST")
	r.HandleFunc("/workspaces/{name}/send", s.handleSend).Methods("POST")
	r.HandleFunc("/clients/focused", s.handleClose).Methods("DELETE")
	r.HandleFunc("/clients/{id}/float", s.clientOp(wm.OpToggleFloating)).Methods("POST")
	r.HandleFunc("/clients/{id}/fullscreen", s.clientOp(wm.OpToggleFullscreen)).Methods("POST")
	r.HandleFunc("/clients/{id}/warp", s.handleWarp).Methods("POST")
	r.HandleFunc("/events", s.handleEvents).Methods("GET")
	r.PathPrefix("/").Handler(http.NotFoundHandler())
}

// Serve listens until ctx is cancelled. It is a suture service.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("api listen %s: %w", s.addr, err)
	}
	srv := &http.Server{
		Handler:        s.router,
		ReadTimeout:    5 * time.Second,
		MaxHeaderBytes: 1 << 16,
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}
	s.logger.Info("HTTP API listening", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

func (s *Server) String() string { return "api" }

func (s *Server) jsonResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	s.logger.Debug("api request", "method", r.Method, "path", r.URL.Path, "status", status)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, wm.ErrUnknownWindow), errors.Is(err, wm.ErrUnknownWorkspace):
		status = http.StatusNotFound
	case errors.Is(err, wm.ErrInvalidConfiguration):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, wm.ErrNotRunning):
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, r, status, map[string]string{
		"error": err.Error(),
		"code":  wm.ErrorKind(err),
	})
}

func (s *Server) do(w http.ResponseWriter, r *http.Request, req wm.Request) (wm.Result, bool) {
	res, err := s.manager.Do(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return res, false
	}
	return res, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	res, ok := s.do(w, r, wm.Request{Op: wm.OpDumpState})
	if !ok {
		return
	}
	s.jsonResponse(w, r, http.StatusOK, res.State)
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	res, ok := s.do(w, r, wm.Request{Op: wm.OpDumpState})
	if !ok {
		return
	}
	s.jsonResponse(w, r, http.StatusOK, map[string]any{"items": res.State.Workspaces})
}

func (s *Server) handleGoto(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := s.do(w, r, wm.Request{Op: wm.OpGotoWorkspace, Workspace: name}); ok {
		s.jsonResponse(w, r, http.StatusOK, map[string]string{"workspace": name})
	}
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	op := wm.OpSendFocusedTo
	if follow, _ := strconv.ParseBool(r.URL.Query().Get("follow")); follow {
		op = wm.OpSendAndFollow
	}
	if _, ok := s.do(w, r, wm.Request{Op: op, Workspace: name}); ok {
		s.jsonResponse(w, r, http.StatusOK, map[string]string{"workspace": name})
	}
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.do(w, r, wm.Request{Op: wm.OpCloseFocused}); ok {
		s.jsonResponse(w, r, http.StatusOK, nil)
	}
}

// parseWindow accepts decimal or 0x-prefixed ids; "focused" means the
// focused client.
func parseWindow(s string) (platform.WindowID, error) {
	if s == "focused" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad window id %q", s)
	}
	return platform.WindowID(id), nil
}

func (s *Server) clientOp(op wm.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseWindow(mux.Vars(r)["id"])
		if err != nil {
			s.jsonResponse(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if _, ok := s.do(w, r, wm.Request{Op: op, Window: id}); ok {
			s.jsonResponse(w, r, http.StatusOK, nil)
		}
	}
}

type warpBody struct {
	Direction string `json:"direction"`
	Distance  int    `json:"distance"`
}

func (s *Server) handleWarp(w http.ResponseWriter, r *http.Request) {
	id, err := parseWindow(mux.Vars(r)["id"])
	if err != nil {
		s.jsonResponse(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var body warpBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, r, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	dir, err := hotkeys.ParseDirection(body.Direction)
	if err != nil {
		s.jsonResponse(w, r, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	req := wm.Request{Op: wm.OpWarpWindow, Window: id, Direction: dir, Distance: body.Distance}
	if _, ok := s.do(w, r, req); ok {
		s.jsonResponse(w, r, http.StatusOK, nil)
	}
}

// handleEvents streams notifications as JSON text messages until the peer
// goes away. Anything the peer sends is discarded.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")
	s.logger.Debug("events connected", "remote", r.RemoteAddr)

	events, unsubscribe := s.manager.Subscribe(eventBuffer)
	defer unsubscribe()

	ctx := c.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				c.Close(websocket.StatusNormalClosure, "manager stopped")
				return
			}
			if err := wsjson.Write(ctx, c, n); err != nil {
				s.logger.Debug("events disconnected", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}
