package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/1broseidon/tilewm/internal/workspace"
)

// Focus policies applied after the focused client is sent away.
const (
	SendFocusNext    = "next"
	SendFocusRestore = "restore"
)

type Mousebinds struct {
	Move   string `yaml:"move"`
	Resize string `yaml:"resize"`
}

type SnapshotConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Name             string        `yaml:"name"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	RestoreOnStart   bool          `yaml:"restore_on_start"`
}

type APIConfig struct {
	// Listen is a host:port for the HTTP API. Empty disables it.
	Listen string `yaml:"listen,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name onto a slog level.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type Config struct {
	Display             string            `yaml:"display,omitempty"`
	XAuthority          string            `yaml:"xauthority,omitempty"`
	Workspaces          []string          `yaml:"workspaces"`
	ScreenWorkspaces    []string          `yaml:"screen_workspaces,omitempty"`
	Layout              string            `yaml:"layout"`
	Layouts             []string          `yaml:"layouts"`
	MasterRatio         float64           `yaml:"master_ratio"`
	GapSize             int               `yaml:"gap_size"`
	BorderWidth         int               `yaml:"border_width"`
	BorderFocused       string            `yaml:"border_focused"`
	BorderUnfocused     string            `yaml:"border_unfocused"`
	FocusFollowsPointer bool              `yaml:"focus_follows_pointer"`
	FloatTransients     bool              `yaml:"float_transients"`
	FloatClasses        []string          `yaml:"float_classes"`
	SendFocusPolicy     string            `yaml:"send_focus_policy"`
	WarpStep            int               `yaml:"warp_step"`
	Autostart           []string          `yaml:"autostart,omitempty"`
	Keybinds            map[string]string `yaml:"keybinds"`
	Mousebinds          Mousebinds        `yaml:"mousebinds"`
	Snapshot            SnapshotConfig    `yaml:"snapshot"`
	API                 APIConfig         `yaml:"api"`
	Logging             LoggingConfig     `yaml:"logging"`

	warnings []string
}

func DefaultConfig() *Config {
	return &Config{
		Workspaces:          []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"},
		Layout:              tiling.LayoutMasterStack,
		Layouts:             []string{tiling.LayoutMasterStack, tiling.LayoutMasterStackHorizontal, tiling.LayoutMonocle, tiling.LayoutGrid},
		MasterRatio:         tiling.DefaultRatio,
		GapSize:             0,
		BorderWidth:         1,
		BorderFocused:       "#dddddd",
		BorderUnfocused:     "#555555",
		FocusFollowsPointer: true,
		FloatTransients:     true,
		FloatClasses:        []string{},
		SendFocusPolicy:     SendFocusNext,
		WarpStep:            20,
		Keybinds:            defaultKeybinds(),
		Mousebinds: Mousebinds{
			Move:   "Mod4-1",
			Resize: "Mod4-3",
		},
		Snapshot: SnapshotConfig{
			Name:             "autosave",
			AutosaveInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultKeybinds() map[string]string {
	binds := map[string]string{
		"Mod4-Return":        "exec xterm",
		"Shift-Mod4-Return":  "promote",
		"Mod4-space":         "toggle_floating",
		"Mod4-f":             "toggle_fullscreen",
		"Shift-Mod4-c":       "close",
		"Shift-Mod4-q":       "quit",
		"Mod4-j":             "cycle_focus 1",
		"Mod4-k":             "cycle_focus -1",
		"Mod4-Tab":           "next_layout",
		"Mod4-h":             "ratio -0.05",
		"Mod4-l":             "ratio +0.05",
		"Mod4-Right":         "cycle_workspace 1",
		"Mod4-Left":          "cycle_workspace -1",
		"Control-Mod4-Up":    "warp up",
		"Control-Mod4-Down":  "warp down",
		"Control-Mod4-Left":  "warp left",
		"Control-Mod4-Right": "warp right",
		"Shift-Mod4-Up":      "focus up",
		"Shift-Mod4-Down":    "focus down",
		"Shift-Mod4-Left":    "focus left",
		"Shift-Mod4-Right":   "focus right",
	}
	for i := 1; i <= 9; i++ {
		binds[fmt.Sprintf("Mod4-%d", i)] = fmt.Sprintf("goto_workspace %d", i)
		binds[fmt.Sprintf("Shift-Mod4-%d", i)] = fmt.Sprintf("send_to %d", i)
	}
	return binds
}

// Warnings lists the values Validate clamped or ignored.
func (c *Config) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

func (c *Config) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// TilingParams returns the layout parameters new workspaces start with.
func (c *Config) TilingParams() tiling.Params {
	p, _ := tiling.NewParams(c.MasterRatio, c.GapSize, c.BorderWidth)
	return p
}

// BorderColors returns the focused and unfocused border pixels. Invalid
// values, which Validate rejects, come back as 0.
func (c *Config) BorderColors() (focused, unfocused uint32) {
	focused, _ = ParseColor(c.BorderFocused)
	unfocused, _ = ParseColor(c.BorderUnfocused)
	return focused, unfocused
}

// ParseColor parses a "#rrggbb" colour into a 24-bit pixel value.
func ParseColor(s string) (uint32, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || len(hex) != 6 {
		return 0, fmt.Errorf("colour %q must look like #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("colour %q must look like #rrggbb", s)
	}
	return uint32(v), nil
}

// Actions parses every keybind into an action keyed by normalized combo.
func (c *Config) Actions() (map[string]hotkeys.Action, error) {
	out := make(map[string]hotkeys.Action, len(c.Keybinds))
	for combo, line := range c.Keybinds {
		a, err := hotkeys.ParseAction(line)
		if err != nil {
			return nil, &ValidationError{Path: "keybinds." + combo, Err: err}
		}
		out[combo] = a
	}
	return out, nil
}

// KeyCombos returns the bound key combos in sorted order.
func (c *Config) KeyCombos() []string {
	combos := make([]string, 0, len(c.Keybinds))
	for combo := range c.Keybinds {
		combos = append(combos, combo)
	}
	sort.Strings(combos)
	return combos
}

// ButtonCombos returns the non-empty mouse bindings.
func (c *Config) ButtonCombos() []string {
	var combos []string
	for _, b := range []string{c.Mousebinds.Move, c.Mousebinds.Resize} {
		if b != "" {
			combos = append(combos, b)
		}
	}
	return combos
}

// WorkspaceIndex returns the position of the named workspace.
func (c *Config) WorkspaceIndex(name string) (int, bool) {
	for i, ws := range c.Workspaces {
		if ws == name {
			return i, true
		}
	}
	return 0, false
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects structural errors and clamps numeric layout values,
// recording a warning for each clamp.
func (c *Config) Validate() error {
	c.warnings = nil

	if len(c.Workspaces) == 0 {
		return &ValidationError{Path: "workspaces", Err: fmt.Errorf("at least one workspace is required")}
	}
	seen := make(map[string]bool, len(c.Workspaces))
	for i, name := range c.Workspaces {
		name = strings.TrimSpace(name)
		if name == "" {
			return &ValidationError{Path: fmt.Sprintf("workspaces.%d", i), Err: fmt.Errorf("workspace name must not be empty")}
		}
		if seen[name] {
			return &ValidationError{Path: "workspaces", Err: fmt.Errorf("duplicate workspace %q", name)}
		}
		seen[name] = true
		c.Workspaces[i] = name
	}

	shown := make(map[string]bool)
	for i, name := range c.ScreenWorkspaces {
		if !seen[name] {
			return &ValidationError{Path: fmt.Sprintf("screen_workspaces.%d", i), Err: fmt.Errorf("unknown workspace %q", name)}
		}
		if shown[name] {
			return &ValidationError{Path: "screen_workspaces", Err: fmt.Errorf("workspace %q is assigned to more than one screen", name)}
		}
		shown[name] = true
	}

	// Layout names are resolved by the manager, which may carry strategies
	// registered at startup.
	if len(c.Layouts) == 0 {
		return &ValidationError{Path: "layouts", Err: fmt.Errorf("layouts must not be empty")}
	}
	enabled := make(map[string]bool, len(c.Layouts))
	for i, name := range c.Layouts {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: fmt.Sprintf("layouts.%d", i), Err: fmt.Errorf("layout name must not be empty")}
		}
		if enabled[name] {
			return &ValidationError{Path: "layouts", Err: fmt.Errorf("duplicate layout %q", name)}
		}
		enabled[name] = true
	}
	if c.Layout == "" {
		return &ValidationError{Path: "layout", Err: fmt.Errorf("layout is required")}
	}
	if !containsString(c.Layouts, c.Layout) {
		return &ValidationError{Path: "layout", Err: fmt.Errorf("layout %q not found in layouts", c.Layout)}
	}

	p := tiling.DefaultParams()
	if p.SetRatio(c.MasterRatio) {
		c.warnf("master_ratio %v clamped to %v", c.MasterRatio, p.Ratio)
		c.MasterRatio = p.Ratio
	}
	if p.SetGap(c.GapSize) {
		c.warnf("gap_size %d clamped to %d", c.GapSize, p.Gap)
		c.GapSize = p.Gap
	}
	if p.SetBorderWidth(c.BorderWidth) {
		c.warnf("border_width %d clamped to %d", c.BorderWidth, p.BorderWidth)
		c.BorderWidth = p.BorderWidth
	}
	if _, err := ParseColor(c.BorderFocused); err != nil {
		return &ValidationError{Path: "border_focused", Err: err}
	}
	if _, err := ParseColor(c.BorderUnfocused); err != nil {
		return &ValidationError{Path: "border_unfocused", Err: err}
	}
	if c.WarpStep <= 0 {
		return &ValidationError{Path: "warp_step", Err: fmt.Errorf("warp_step must be > 0")}
	}

	switch c.SendFocusPolicy {
	case SendFocusNext, SendFocusRestore:
	default:
		return &ValidationError{Path: "send_focus_policy", Err: fmt.Errorf("send_focus_policy must be one of: next, restore")}
	}

	for i, line := range c.Autostart {
		if strings.TrimSpace(line) == "" {
			return &ValidationError{Path: fmt.Sprintf("autostart.%d", i), Err: fmt.Errorf("autostart command must not be empty")}
		}
	}

	for _, class := range c.FloatClasses {
		if strings.TrimSpace(class) == "" {
			return &ValidationError{Path: "float_classes", Err: fmt.Errorf("float_classes contains an empty class name")}
		}
	}

	if c.Keybinds == nil {
		return &ValidationError{Path: "keybinds", Err: fmt.Errorf("keybinds must not be null")}
	}
	for combo, line := range c.Keybinds {
		a, err := hotkeys.ParseAction(line)
		if err != nil {
			return &ValidationError{Path: "keybinds." + combo, Err: err}
		}
		if a.Name == hotkeys.ActionLayout && !containsString(c.Layouts, a.Args[0]) {
			return &ValidationError{Path: "keybinds." + combo, Err: fmt.Errorf("layout %q not found in layouts", a.Args[0])}
		}
		if (a.Name == hotkeys.ActionGoto || a.Name == hotkeys.ActionSendTo || a.Name == hotkeys.ActionSendFollow) && !seen[a.Args[0]] {
			c.warnf("keybinds.%s: workspace %q does not exist; the binding will do nothing", combo, a.Args[0])
		}
	}
	if c.Mousebinds.Move != "" && c.Mousebinds.Move == c.Mousebinds.Resize {
		return &ValidationError{Path: "mousebinds", Err: fmt.Errorf("move and resize must use different buttons")}
	}

	if c.Snapshot.Enabled || c.Snapshot.RestoreOnStart {
		if err := workspace.ValidateSnapshotName(c.Snapshot.Name); err != nil {
			return &ValidationError{Path: "snapshot.name", Err: err}
		}
	}
	if c.Snapshot.AutosaveInterval < 0 {
		return &ValidationError{Path: "snapshot.autosave_interval", Err: fmt.Errorf("autosave_interval must be >= 0")}
	}

	if c.API.Listen != "" {
		if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
			return &ValidationError{Path: "api.listen", Err: fmt.Errorf("listen must be host:port: %w", err)}
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ValidationError{Path: "logging.format", Err: fmt.Errorf("format must be one of: text, json")}
	}

	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
