// Package palette shows window manager actions in an external menu program
// (rofi or dmenu) and returns the command line the user picked.
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the menu without choosing.
var ErrCancelled = errors.New("palette cancelled")

// Item is one row of a menu.
type Item struct {
	Label    string
	Action   string // keybind command line, e.g. "goto_workspace 2"
	Icon     string
	IsHeader bool // not selectable
	IsActive bool
}

// Backend shows items and returns the chosen one.
type Backend interface {
	Show(prompt string, items []Item) (Item, error)
}

var backendOrder = []string{"rofi", "dmenu"}

// DetectBackend returns the first menu program found in PATH.
func DetectBackend() (string, error) {
	for _, name := range backendOrder {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no menu program found in PATH (looked for: %s)", strings.Join(backendOrder, ", "))
}

// NewBackend creates a backend by name: auto, rofi or dmenu.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	switch name {
	case "rofi", "dmenu":
		if _, err := exec.LookPath(name); err != nil {
			return nil, fmt.Errorf("menu program %q not found in PATH", name)
		}
		return newCommandBackend(name), nil
	}
	return nil, fmt.Errorf("unknown menu program %q (expected: auto, rofi, dmenu)", name)
}
