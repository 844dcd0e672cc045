// Package wm is the window manager core. One loop goroutine owns the client
// registry, the workspaces and the screens; it turns window-system events
// and host requests into command batches for a platform.Conn.
package wm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/rules"
	"github.com/1broseidon/tilewm/internal/screen"
	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/1broseidon/tilewm/internal/workspace"
)

// supportedAtoms is what the manager advertises in _NET_SUPPORTED.
var supportedAtoms = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_DESKTOP_NAMES",
	"_NET_CURRENT_DESKTOP",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_STRUT",
	"_NET_WM_STRUT_PARTIAL",
}

// Spawner starts an external program without waiting for it.
type Spawner func(name string, args []string) error

// Option configures a Manager.
type Option func(*Manager)

// StartupHook runs once Start has adopted the existing windows, on the
// goroutine that owns the model, so it may call operations directly.
type StartupHook func(*Manager)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSpawner replaces how run_external starts programs.
func WithSpawner(s Spawner) Option {
	return func(m *Manager) {
		if s != nil {
			m.spawn = s
		}
	}
}

// WithLayouts supplies a layout registry holding user-defined strategies.
func WithLayouts(r *tiling.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.layouts = r
		}
	}
}

// WithStartupHooks adds hooks that Start runs in order. A panicking hook
// is recorded as a diagnostic and the rest still run.
func WithStartupHooks(hooks ...StartupHook) Option {
	return func(m *Manager) {
		for _, h := range hooks {
			if h != nil {
				m.hooks = append(m.hooks, h)
			}
		}
	}
}

// WithStore enables snapshot saving to store.
func WithStore(store *workspace.Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithRestore places adopted windows where snap recorded them.
func WithRestore(snap *workspace.Snapshot) Option {
	return func(m *Manager) { m.restore = snap }
}

type call struct {
	req   Request
	reply chan reply
}

type reply struct {
	res Result
	err error
}

// Manager is the window manager. All methods except Do, Subscribe and
// Diagnostics must be called from the goroutine running Run, or before
// Run starts.
type Manager struct {
	conn    platform.Conn
	cfg     *config.Config
	logger  *slog.Logger
	rules   *rules.Rules
	layouts *tiling.Registry
	actions map[string]hotkeys.Action
	spawn   Spawner
	store   *workspace.Store
	restore *workspace.Snapshot
	hooks   []StartupHook

	root       platform.WindowID
	rootBounds platform.Rect
	clients    map[platform.WindowID]*client.Client
	order      []platform.WindowID
	workspaces []*workspace.Workspace
	screens    []*screen.Screen
	focusedScr int
	docks      map[platform.WindowID]platform.Strut

	// pendingUnmaps counts unmaps the manager issued whose notifications
	// have not arrived yet.
	pendingUnmaps map[platform.WindowID]int
	drag          *drag

	batch         []platform.Command
	active        platform.WindowID
	activeSet     bool
	desktop       int
	clientsDirty  bool
	started       bool
	quitRequested bool

	diags *diagnostics

	obsMu     sync.Mutex
	observers map[int]chan Notification
	obsNext   int
	seq       uint64

	calls  chan call
	done   chan struct{}
	cancel context.CancelFunc
}

// New creates a manager for conn using cfg, which must already be
// validated. A nil cfg means the defaults.
func New(conn platform.Conn, cfg *config.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	actions, err := cfg.Actions()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		conn:          conn,
		cfg:           cfg,
		logger:        slog.Default(),
		layouts:       tiling.NewRegistry(),
		actions:       actions,
		rules:         rules.New(cfg.FloatClasses, cfg.FloatTransients),
		clients:       make(map[platform.WindowID]*client.Client),
		docks:         make(map[platform.WindowID]platform.Strut),
		pendingUnmaps: make(map[platform.WindowID]int),
		desktop:       -1,
		diags:         newDiagnostics(defaultDiagnosticsLimit),
		observers:     make(map[int]chan Notification),
		calls:         make(chan call),
		done:          make(chan struct{}),
	}
	m.spawn = execSpawner(cfg.Display)
	for _, opt := range opts {
		opt(m)
	}

	layout, err := m.checkLayouts(cfg)
	if err != nil {
		return nil, err
	}
	for _, name := range cfg.Workspaces {
		m.workspaces = append(m.workspaces, workspace.New(name, layout, cfg.TilingParams()))
	}
	return m, nil
}

func (m *Manager) layoutByName(name string) (tiling.Layout, error) {
	l, ok := m.layouts.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown layout %q (known: %s)", ErrInvalidConfiguration, name, strings.Join(m.layouts.Names(), ", "))
	}
	return l, nil
}

// checkLayouts resolves every layout cfg enables against the registry and
// returns the one new workspaces start with.
func (m *Manager) checkLayouts(cfg *config.Config) (tiling.Layout, error) {
	for _, name := range cfg.Layouts {
		if _, err := m.layoutByName(name); err != nil {
			return nil, err
		}
	}
	return m.layoutByName(cfg.Layout)
}

// Run starts the manager and processes events and requests until ctx is
// cancelled, Quit is requested or the connection fails. Only connection
// failures are returned as errors.
func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	defer cancel()
	defer close(m.done)

	if err := m.Start(); err != nil {
		return err
	}

	events := make(chan platform.Event, 64)
	errc := make(chan error, 1)
	go m.pump(ctx, events, errc)

	m.logger.Info("window manager started",
		"screens", len(m.screens),
		"workspaces", len(m.workspaces),
		"clients", len(m.clients))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("window manager stopped")
			return nil
		case err := <-errc:
			return fmt.Errorf("%w: %w", ErrConnection, err)
		case ev := <-events:
			if err := m.HandleEvent(ev); errors.Is(err, ErrConnection) {
				return err
			}
		case c := <-m.calls:
			res, err := m.Execute(c.req)
			c.reply <- reply{res: res, err: err}
			if errors.Is(err, ErrConnection) {
				return err
			}
		}
		if m.quitRequested {
			m.logger.Info("quit requested")
			return nil
		}
	}
}

func (m *Manager) pump(ctx context.Context, out chan<- platform.Event, errc chan<- error) {
	for {
		ev, err := m.conn.NextEvent(ctx)
		if err != nil {
			if ctx.Err() == nil {
				errc <- err
			}
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Do hands req to the running loop and waits for its result.
func (m *Manager) Do(ctx context.Context, req Request) (Result, error) {
	c := call{req: req, reply: make(chan reply, 1)}
	select {
	case m.calls <- c:
	case <-m.done:
		return Result{}, ErrNotRunning
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case r := <-c.reply:
		return r.res, r.err
	case <-m.done:
		// Quit replies before the loop exits.
		select {
		case r := <-c.reply:
			return r.res, r.err
		default:
		}
		return Result{}, ErrNotRunning
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Start claims the root window, discovers screens, publishes desktop
// state, grabs bindings, adopts the windows that already exist and then
// runs the startup hooks. Run calls it; tests call it directly.
func (m *Manager) Start() error {
	if m.started {
		return nil
	}
	m.root = m.conn.Root()

	m.emit(platform.Manage{Window: m.root})
	if err := m.flush(); err != nil {
		return err
	}

	m.rootBounds = m.conn.RootBounds()
	if err := m.discoverScreens(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	m.emit(
		platform.SetSupported{Atoms: supportedAtoms},
		platform.SetDesktops{Names: slices.Clone(m.cfg.Workspaces)},
		platform.GrabKeys{Combos: m.cfg.KeyCombos()},
		platform.GrabButtons{Combos: m.cfg.ButtonCombos()},
	)
	for _, s := range m.screens {
		if s.Workspace != screen.None {
			m.workspaces[s.Workspace].MarkDirty()
		}
	}

	if err := m.adoptExisting(); err != nil {
		return err
	}
	m.started = true

	m.settle()
	if err := m.flush(); err != nil {
		return err
	}
	for _, hook := range m.hooks {
		err := m.protect("startup_hook", func() error { hook(m); return nil })
		if err != nil {
			m.record(0, err)
		}
	}
	return nil
}

// Execute runs one request as a single handler: it settles layout and
// focus afterwards and flushes one command batch.
func (m *Manager) Execute(req Request) (Result, error) {
	var res Result
	err := m.handle(string(req.Op), req.Window, func() error {
		var err error
		res, err = m.perform(req)
		return err
	})
	return res, err
}

// handle runs fn, recovers from panics, settles derived state and flushes
// the batch. Non-fatal errors are recorded as diagnostics and returned.
func (m *Manager) handle(kind string, win platform.WindowID, fn func() error) error {
	err := m.protect(kind, fn)
	if serr := m.protect(kind, func() error { m.settle(); return nil }); err == nil {
		err = serr
	}

	if err != nil {
		m.record(win, err)
	}
	if ferr := m.flush(); ferr != nil {
		return ferr
	}
	if !Op(kind).ReadOnly() {
		m.notify(kind, win, err)
	}
	return err
}

func (m *Manager) protect(kind string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: recovered from panic: %v", kind, r)
			m.logger.Error("handler panic recovered", "handler", kind, "error", r)
		}
	}()
	return fn()
}

func (m *Manager) record(win platform.WindowID, err error) {
	kind := ErrorKind(err)
	m.diags.add(Diagnostic{Time: now(), Kind: kind, Window: win, Message: err.Error()})
	if errors.Is(err, ErrUnknownWindow) {
		m.logger.Debug("ignoring request for unknown window", "window", win, "error", err)
		return
	}
	m.logger.Warn("handler error", "kind", kind, "window", win, "error", err)
}

// Diagnostics returns the recorded non-fatal conditions, oldest first.
// It is safe to call from any goroutine.
func (m *Manager) Diagnostics() []Diagnostic {
	return m.diags.list()
}

func (m *Manager) emit(cmds ...platform.Command) {
	m.batch = append(m.batch, cmds...)
}

func (m *Manager) flush() error {
	if len(m.batch) == 0 {
		return nil
	}
	batch := m.batch
	m.batch = nil
	if err := m.conn.Apply(batch); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

// settle brings derived state in line with the model: dirty displayed
// workspaces are arranged, input focus follows the focused screen's
// workspace, and root properties are republished when they changed.
func (m *Manager) settle() {
	for i := range m.screens {
		ws := m.screens[i].Workspace
		if ws != screen.None && m.workspaces[ws].Dirty() {
			m.arrange(i)
		}
	}

	target, _ := m.focusedClientID()
	if !m.activeSet || target != m.active {
		m.emit(platform.Focus{Window: target}, platform.SetActiveWindow{Window: target})
		if c, ok := m.clients[target]; ok && !c.IsTiled() {
			m.emit(platform.Raise{Window: target})
		}
		if _, ok := m.clients[m.active]; ok && m.active != target {
			m.paintBorder(m.active, false)
		}
		if _, ok := m.clients[target]; ok {
			m.paintBorder(target, true)
		}
		m.active = target
		m.activeSet = true
	}

	if ws := m.focusedWorkspace(); ws != screen.None && ws != m.desktop {
		m.emit(platform.SetCurrentDesktop{Index: ws})
		m.desktop = ws
	}

	if m.clientsDirty {
		m.emit(platform.SetClientList{Windows: slices.Clone(m.order)})
		m.clientsDirty = false
	}
}

// paintBorder sets a client's border to the focused or unfocused colour.
func (m *Manager) paintBorder(id platform.WindowID, focused bool) {
	on, off := m.cfg.BorderColors()
	color := off
	if focused {
		color = on
	}
	m.emit(platform.SetBorderColor{Window: id, Color: color})
}

// repaintBorders paints every client, after the colours changed.
func (m *Manager) repaintBorders() {
	for _, id := range m.order {
		m.paintBorder(id, m.activeSet && id == m.active)
	}
}

// arrange recomputes the workspace shown on screen index si and configures
// its tiled clients.
func (m *Manager) arrange(si int) {
	s := m.screens[si]
	ws := m.workspaces[s.Workspace]
	border := ws.Params().BorderWidth
	for _, p := range ws.Recompute(s.Usable, m.geometryLookup()) {
		c, ok := m.clients[p.ID]
		if !ok || !c.IsTiled() {
			continue
		}
		if p.Clamped {
			m.record(p.ID, fmt.Errorf("%w: %s on %q", ErrGeometryOverflow, c, ws.Name))
		}
		c.Geometry = p.Rect
		c.BorderWidth = border
		m.emit(platform.Configure{Window: p.ID, Geometry: p.Rect, BorderWidth: border})
	}
}

func (m *Manager) geometryLookup() workspace.GeometryLookup {
	return workspace.GeometryFunc(func(id platform.WindowID) (platform.Rect, bool) {
		c, ok := m.clients[id]
		if !ok {
			return platform.Rect{}, false
		}
		return c.Geometry, true
	})
}

// discoverScreens builds the screen list and assigns workspaces, from
// screen_workspaces first and then in order.
func (m *Manager) discoverScreens() error {
	displays, err := m.conn.Displays()
	if err != nil {
		return err
	}
	if len(displays) == 0 {
		displays = []platform.Display{{Name: "root", Bounds: m.rootBounds, Usable: m.rootBounds}}
	}

	used := make(map[int]bool)
	m.screens = m.screens[:0]
	for i, d := range displays {
		s := screen.New(i, d)
		if i < len(m.cfg.ScreenWorkspaces) {
			if idx, ok := m.cfg.WorkspaceIndex(m.cfg.ScreenWorkspaces[i]); ok && !used[idx] {
				s.Activate(idx)
				used[idx] = true
			}
		}
		m.screens = append(m.screens, s)
	}
	for _, s := range m.screens {
		if s.Workspace == screen.None {
			if idx := m.firstHidden(used); idx != screen.None {
				s.Activate(idx)
				used[idx] = true
			}
		}
	}
	m.applyStruts()
	return nil
}

func (m *Manager) firstHidden(used map[int]bool) int {
	for i := range m.workspaces {
		if !used[i] {
			return i
		}
	}
	return screen.None
}

// applyStruts recomputes every screen's usable area from the dock struts
// and marks the workspaces whose region changed.
func (m *Manager) applyStruts() {
	ids := make([]platform.WindowID, 0, len(m.docks))
	for id := range m.docks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	struts := make([]platform.Strut, 0, len(ids))
	for _, id := range ids {
		struts = append(struts, m.docks[id])
	}

	for _, s := range m.screens {
		before := s.Usable
		s.ApplyStruts(m.rootBounds, struts)
		if s.Usable != before && s.Workspace != screen.None {
			m.workspaces[s.Workspace].MarkDirty()
		}
	}
}

func (m *Manager) focusedWorkspace() int {
	if m.focusedScr < 0 || m.focusedScr >= len(m.screens) {
		return screen.None
	}
	return m.screens[m.focusedScr].Workspace
}

func (m *Manager) focusedClientID() (platform.WindowID, bool) {
	ws := m.focusedWorkspace()
	if ws == screen.None {
		return 0, false
	}
	return m.workspaces[ws].Focused()
}

// screenOf returns the screen displaying workspace ws, or screen.None.
func (m *Manager) screenOf(ws int) int {
	for i, s := range m.screens {
		if s.Workspace == ws {
			return i
		}
	}
	return screen.None
}

// screenFor returns the screen a workspace's clients are placed against:
// the one displaying it, else the focused screen.
func (m *Manager) screenFor(ws int) *screen.Screen {
	if si := m.screenOf(ws); si != screen.None {
		return m.screens[si]
	}
	return m.screens[m.focusedScr]
}

func (m *Manager) screenAt(x, y int) int {
	for i, s := range m.screens {
		if s.Contains(x, y) {
			return i
		}
	}
	return screen.None
}

// lookup resolves id, with 0 meaning the focused client.
func (m *Manager) lookup(id platform.WindowID) (*client.Client, error) {
	if id == 0 {
		focused, ok := m.focusedClientID()
		if !ok {
			return nil, fmt.Errorf("%w: nothing focused", ErrUnknownWindow)
		}
		id = focused
	}
	c, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnknownWindow, uint32(id))
	}
	return c, nil
}

func (m *Manager) workspaceIndex(name string) (int, error) {
	for i, ws := range m.workspaces {
		if ws.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWorkspace, name)
}

// hide unmaps every member of workspace ws. Each unmap is counted so its
// notification is not taken for the client withdrawing.
func (m *Manager) hide(ws int) {
	if ws == screen.None {
		return
	}
	for _, id := range m.workspaces[ws].Members() {
		m.unmapClient(id)
	}
}

func (m *Manager) unmapClient(id platform.WindowID) {
	m.pendingUnmaps[id]++
	m.emit(platform.Unmap{Window: id}, platform.SetWindowState{Window: id, State: platform.StateIconic})
}

// show lays out workspace ws on screen si and maps its members.
func (m *Manager) show(ws, si int) {
	m.arrange(si)
	for _, id := range m.workspaces[ws].Members() {
		c := m.clients[id]
		switch {
		case c == nil:
		case c.Mode == client.Fullscreen:
			c.Geometry = m.screens[si].Geometry
			m.emit(platform.Configure{Window: id, Geometry: c.Geometry})
		case c.Mode == client.Floating:
			m.emit(platform.Configure{Window: id, Geometry: c.Geometry, BorderWidth: c.BorderWidth})
		}
		m.emit(platform.Map{Window: id}, platform.SetWindowState{Window: id, State: platform.StateNormal})
	}
}

func execSpawner(display string) Spawner {
	return func(name string, args []string) error {
		cmd := exec.Command(name, args...)
		cmd.Env = os.Environ()
		if display != "" {
			cmd.Env = append(cmd.Env, "DISPLAY="+display)
		}
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to start %q: %w", name, err)
		}
		go func() { _ = cmd.Wait() }()
		return nil
	}
}
