package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/tiling"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if len(cfg.Warnings()) != 0 {
		t.Fatalf("expected no warnings for defaults, got %v", cfg.Warnings())
	}
	if _, err := cfg.Actions(); err != nil {
		t.Fatalf("expected default keybinds to parse, got %v", err)
	}
	if !cfg.FloatTransients {
		t.Fatalf("expected transients to float by default")
	}
	if cfg.SendFocusPolicy != SendFocusNext {
		t.Fatalf("expected send_focus_policy %q, got %q", SendFocusNext, cfg.SendFocusPolicy)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Layout != tiling.LayoutMasterStack {
		t.Fatalf("expected layout %q, got %q", tiling.LayoutMasterStack, res.Config.Layout)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Workspaces) != 9 {
		t.Fatalf("expected 9 default workspaces, got %v", res.Config.Workspaces)
	}
}

func TestLoadFromPath_Overrides(t *testing.T) {
	data := strings.Join([]string{
		"workspaces: [web, code, chat]",
		"screen_workspaces: [code]",
		"layout: monocle",
		"gap_size: 8",
		"border_width: 2",
		"focus_follows_pointer: false",
		"float_transients: false",
		"float_classes: [Gimp]",
		"send_focus_policy: restore",
		"snapshot:",
		"  enabled: true",
		"  autosave_interval: 2m",
		"logging:",
		"  format: json",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if strings.Join(cfg.Workspaces, ",") != "web,code,chat" {
		t.Fatalf("unexpected workspaces %v", cfg.Workspaces)
	}
	if cfg.Layout != tiling.LayoutMonocle {
		t.Fatalf("expected monocle, got %q", cfg.Layout)
	}
	if p := cfg.TilingParams(); p.Gap != 8 || p.BorderWidth != 2 || p.Ratio != tiling.DefaultRatio {
		t.Fatalf("unexpected params %+v", p)
	}
	if cfg.FocusFollowsPointer || cfg.FloatTransients {
		t.Fatalf("expected booleans to be overridden to false")
	}
	if cfg.SendFocusPolicy != SendFocusRestore {
		t.Fatalf("expected restore policy, got %q", cfg.SendFocusPolicy)
	}
	if !cfg.Snapshot.Enabled || cfg.Snapshot.AutosaveInterval != 2*time.Minute {
		t.Fatalf("unexpected snapshot config %+v", cfg.Snapshot)
	}
	if cfg.Snapshot.Name != "autosave" {
		t.Fatalf("expected default snapshot name to survive, got %q", cfg.Snapshot.Name)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
	if i, ok := cfg.WorkspaceIndex("chat"); !ok || i != 2 {
		t.Fatalf("expected chat at index 2, got %d %v", i, ok)
	}
}

func TestLoadFromPath_BorderColors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "border_width: 2\nborder_focused: \"#FF8800\"\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	focused, unfocused := res.Config.BorderColors()
	if focused != 0xff8800 || unfocused != 0x555555 {
		t.Fatalf("expected 0xff8800 and 0x555555, got %#x %#x", focused, unfocused)
	}
	val, src, err := Explain(res, "border_focused")
	if err != nil {
		t.Fatalf("explain border_focused: %v", err)
	}
	if val != "#ff8800" || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("expected #ff8800 from line 2, got %#v %#v", val, src)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{in: "#000000", want: 0, ok: true},
		{in: "#dddddd", want: 0xdddddd, ok: true},
		{in: " #A0b1C2 ", want: 0xa0b1c2, ok: true},
		{in: "dddddd"},
		{in: "#ddd"},
		{in: "#gggggg"},
		{in: ""},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseColor(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
		}
		if got != tt.want {
			t.Fatalf("ParseColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestValidate_AcceptsUnregisteredLayoutNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layouts = append(cfg.Layouts, "columns")
	cfg.Layout = "columns"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected layouts resolved later to validate, got %v", err)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_KeybindsMergeAndNormalize(t *testing.T) {
	data := strings.Join([]string{
		"keybinds:",
		"  super+Return: exec alacritty",
		"  Mod4-Tab: \"\"",
		"  ctrl+alt+Delete: quit",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	binds := res.Config.Keybinds
	if binds["Mod4-Return"] != "exec alacritty" {
		t.Fatalf("expected normalized override, got %q", binds["Mod4-Return"])
	}
	if _, ok := binds["Mod4-Tab"]; ok {
		t.Fatalf("expected empty command to remove the default binding")
	}
	if binds["Control-Mod1-Delete"] != "quit" {
		t.Fatalf("expected new binding, got %v", binds)
	}
	if binds["Mod4-1"] != "goto_workspace 1" {
		t.Fatalf("expected untouched defaults to remain")
	}

	actions, err := res.Config.Actions()
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	if a := actions["Control-Mod1-Delete"]; a.Name != hotkeys.ActionQuit {
		t.Fatalf("expected quit action, got %v", a)
	}
}

func TestLoadFromPath_InvalidKeybindHasSourceContext(t *testing.T) {
	data := "keybinds:\n  Mod4-x: explode now\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Path != "keybinds.Mod4-x" {
		t.Fatalf("expected keybinds.Mod4-x path, got %q", verr.Path)
	}
	if !strings.Contains(err.Error(), path+":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestValidate_ClampsWithWarnings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MasterRatio = 1.5
	cfg.GapSize = -4
	cfg.BorderWidth = -1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.MasterRatio != tiling.MaxRatio {
		t.Fatalf("expected ratio clamped to %v, got %v", tiling.MaxRatio, cfg.MasterRatio)
	}
	if cfg.GapSize != 0 || cfg.BorderWidth != 0 {
		t.Fatalf("expected gap and border clamped to 0, got %d %d", cfg.GapSize, cfg.BorderWidth)
	}
	if got := len(cfg.Warnings()); got != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", got, cfg.Warnings())
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{name: "no workspaces", mutate: func(c *Config) { c.Workspaces = nil }, path: "workspaces"},
		{name: "empty workspace name", mutate: func(c *Config) { c.Workspaces = []string{"a", " "} }, path: "workspaces.1"},
		{name: "duplicate workspace", mutate: func(c *Config) { c.Workspaces = []string{"a", "a"} }, path: "workspaces"},
		{name: "unknown screen workspace", mutate: func(c *Config) { c.ScreenWorkspaces = []string{"zzz"} }, path: "screen_workspaces.0"},
		{name: "screen workspace twice", mutate: func(c *Config) { c.ScreenWorkspaces = []string{"1", "1"} }, path: "screen_workspaces"},
		{name: "empty layout name", mutate: func(c *Config) { c.Layouts = []string{tiling.LayoutMasterStack, ""} }, path: "layouts.1"},
		{name: "duplicate layout", mutate: func(c *Config) { c.Layouts = []string{tiling.LayoutMasterStack, tiling.LayoutMasterStack} }, path: "layouts"},
		{name: "bad focused colour", mutate: func(c *Config) { c.BorderFocused = "red" }, path: "border_focused"},
		{name: "short unfocused colour", mutate: func(c *Config) { c.BorderUnfocused = "#555" }, path: "border_unfocused"},
		{name: "layout not enabled", mutate: func(c *Config) { c.Layouts = []string{tiling.LayoutGrid} }, path: "layout"},
		{name: "bad focus policy", mutate: func(c *Config) { c.SendFocusPolicy = "random" }, path: "send_focus_policy"},
		{name: "bad warp step", mutate: func(c *Config) { c.WarpStep = 0 }, path: "warp_step"},
		{name: "layout keybind unknown", mutate: func(c *Config) { c.Keybinds["Mod4-m"] = "layout spiral" }, path: "keybinds.Mod4-m"},
		{name: "same mouse buttons", mutate: func(c *Config) { c.Mousebinds.Resize = c.Mousebinds.Move }, path: "mousebinds"},
		{name: "bad snapshot name", mutate: func(c *Config) { c.Snapshot.Enabled = true; c.Snapshot.Name = "../x" }, path: "snapshot.name"},
		{name: "bad listen", mutate: func(c *Config) { c.API.Listen = "nope" }, path: "api.listen"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, path: "logging.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, path: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q (%v)", tt.path, verr.Path, err)
			}
		})
	}
}

func TestValidate_WarnsOnMissingWorkspaceBinding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspaces = []string{"1", "2"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	// goto/send for 3..9 point at missing workspaces.
	if got := len(cfg.Warnings()); got != 14 {
		t.Fatalf("expected 14 warnings, got %d", got)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, configD, "10-base.yaml", "gap_size: 5\nborder_width: 3\n")
	writeConfig(t, configD, "20-override.yaml", "gap_size: 6\n")

	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"gap_size: 7",
		"",
	}, "\n")
	path := writeConfig(t, dir, "config.yaml", main)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.GapSize != 7 {
		t.Fatalf("expected gap_size to be 7, got %d", res.Config.GapSize)
	}
	if res.Config.BorderWidth != 3 {
		t.Fatalf("expected border_width from include, got %d", res.Config.BorderWidth)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "gap_size: 4\nlogging:\n  level: debug\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "gap_size")
	if err != nil {
		t.Fatalf("explain gap_size: %v", err)
	}
	if val != 4 {
		t.Fatalf("expected 4, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("expected file source on line 1, got %#v", src)
	}

	val, src, err = Explain(res, "logging.level")
	if err != nil {
		t.Fatalf("explain logging.level: %v", err)
	}
	if val != "debug" || src.Line != 3 {
		t.Fatalf("expected debug from line 3, got %#v %#v", val, src)
	}

	val, src, err = Explain(res, "workspaces.2")
	if err != nil {
		t.Fatalf("explain workspaces.2: %v", err)
	}
	if val != "3" || src.Kind != SourceDefault {
		t.Fatalf("expected default workspace 3, got %#v %#v", val, src)
	}

	if _, _, err := Explain(res, "nope.nothing"); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Layout = tiling.LayoutGrid
	cfg.Snapshot.AutosaveInterval = 45 * time.Second
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Layout != tiling.LayoutGrid {
		t.Fatalf("expected grid, got %q", res.Config.Layout)
	}
	if res.Config.Snapshot.AutosaveInterval != 45*time.Second {
		t.Fatalf("expected 45s, got %v", res.Config.Snapshot.AutosaveInterval)
	}
	if len(res.Config.Keybinds) != len(cfg.Keybinds) {
		t.Fatalf("expected %d keybinds, got %d", len(cfg.Keybinds), len(res.Config.Keybinds))
	}
}
