// Package runtimepath resolves the per-user directories tilewm reads and
// writes, following the XDG base directory conventions.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// SocketName is the file name of the manager's IPC socket.
	SocketName = "tilewm.sock"

	// SocketEnv overrides the socket path for both ends of the IPC link.
	SocketEnv = "TILEWM_SOCKET"

	appName = "tilewm"
)

// Dir returns the runtime directory holding the IPC socket: XDG_RUNTIME_DIR,
// then /run/user/<uid>, then a private directory under /tmp.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}
	dir := fmt.Sprintf("/tmp/%s-runtime-%d", appName, uid)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the IPC socket path.
func SocketPath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SocketName), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/tilewm, defaulting to ~/.config/tilewm.
// The directory is not created.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
