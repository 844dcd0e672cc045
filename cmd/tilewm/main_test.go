package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
	"github.com/1broseidon/tilewm/internal/workspace"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"", 0, false},
		{"42", 42, false},
		{"0x1a00003", 0x1a00003, false},
		{"window", 0, true},
		{"0x1ffffffff", 0, true},
	}
	for _, tt := range tests {
		got, err := parseWindow(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseWindow(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseWindow(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func testState() *wm.State {
	return &wm.State{
		FocusedWorkspace: "1",
		FocusedClient:    0xa0,
		Clients: []wm.ClientState{
			{ID: 0xa0, Class: "xterm", Mode: client.Floating, Workspace: "1", Geometry: platform.Rect{X: 10, Y: 20, Width: 300, Height: 200}},
		},
	}
}

func TestWriteStateJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeState(&buf, testState(), false); err != nil {
		t.Fatalf("writeState: %v", err)
	}
	var back wm.State
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if back.FocusedClient != 0xa0 || back.Clients[0].Mode != client.Floating {
		t.Fatalf("decoded = %+v", back)
	}
}

func TestWriteStateYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeState(&buf, testState(), true); err != nil {
		t.Fatalf("writeState: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "mode: floating") {
		t.Fatalf("expected the mode by name in YAML output:\n%s", out)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &generic); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record, got %q", buf.String())
	}
	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Fatalf("record = %v", rec)
	}

	buf.Reset()
	newLogger(config.LoggingConfig{Level: "warn"}, &buf).Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestManagerOptionsRestore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := workspace.NewStore(t.TempDir())
	cfg := config.DefaultConfig()
	cfg.Snapshot.RestoreOnStart = true

	if got := len(managerOptions(cfg, nil, logger)); got != 1 {
		t.Fatalf("no store: %d options, want 1", got)
	}
	if got := len(managerOptions(cfg, store, logger)); got != 2 {
		t.Fatalf("missing snapshot: %d options, want 2", got)
	}

	if err := store.Write(&workspace.Snapshot{Name: cfg.Snapshot.Name}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := len(managerOptions(cfg, store, logger)); got != 3 {
		t.Fatalf("stored snapshot: %d options, want 3", got)
	}
}

func TestManagerOptionsAutostart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DefaultConfig()
	cfg.Autostart = []string{"xsetroot -solid black"}

	if got := len(managerOptions(cfg, nil, logger)); got != 2 {
		t.Fatalf("autostart: %d options, want 2", got)
	}
}

func TestRunAutostart(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	var started []string
	run := func(name string, args ...string) error {
		started = append(started, strings.Join(append([]string{name}, args...), " "))
		if name == "missing" {
			return errors.New("not found")
		}
		return nil
	}

	runAutostart(run, []string{"missing --flag", "  ", "picom  -b"}, logger)

	want := []string{"missing --flag", "picom -b"}
	if strings.Join(started, "|") != strings.Join(want, "|") {
		t.Fatalf("started %q, want %q", started, want)
	}
	if !strings.Contains(buf.String(), "autostart command failed") {
		t.Fatalf("expected the failure to be logged, got %q", buf.String())
	}
}

func TestLoadConfigFromPath(t *testing.T) {
	path := t.TempDir() + "/config.yaml"
	if err := os.WriteFile(path, []byte("gap_size: 12\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	res, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if res.Config.GapSize != 12 {
		t.Fatalf("gap = %d, want 12", res.Config.GapSize)
	}
}
