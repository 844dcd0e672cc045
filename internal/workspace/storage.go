package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/tilewm/internal/client"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/runtimepath"
)

// Snapshot is a serialized view of every workspace: name, layout and the
// ordered client list with modes. Window ids survive a manager restart
// but not an X server restart, so classes are kept as a fallback key.
type Snapshot struct {
	Name       string              `json:"name"`
	SavedAt    time.Time           `json:"saved_at"`
	Workspaces []SnapshotWorkspace `json:"workspaces"`
}

// SnapshotWorkspace is one workspace inside a Snapshot.
type SnapshotWorkspace struct {
	Name    string           `json:"name"`
	Layout  string           `json:"layout"`
	Ratio   float64          `json:"ratio"`
	Clients []SnapshotClient `json:"clients"`
}

// SnapshotClient records one client's position in its workspace.
type SnapshotClient struct {
	ID       uint32         `json:"id"`
	Class    string         `json:"class,omitempty"`
	Mode     client.Mode    `json:"mode"`
	Geometry *platform.Rect `json:"geometry,omitempty"`
}

// Lookup finds where a window was when the snapshot was taken. It matches
// on id first and falls back to the first unclaimed client with the same
// class. claimed tracks entries already handed out.
func (s *Snapshot) Lookup(id platform.WindowID, class string, claimed map[string]bool) (string, SnapshotClient, bool) {
	if s == nil {
		return "", SnapshotClient{}, false
	}
	key := func(ws, i int) string { return fmt.Sprintf("%d/%d", ws, i) }

	for wi, ws := range s.Workspaces {
		for ci, c := range ws.Clients {
			if platform.WindowID(c.ID) == id && !claimed[key(wi, ci)] {
				claimed[key(wi, ci)] = true
				return ws.Name, c, true
			}
		}
	}
	if class == "" {
		return "", SnapshotClient{}, false
	}
	for wi, ws := range s.Workspaces {
		for ci, c := range ws.Clients {
			if strings.EqualFold(c.Class, class) && !claimed[key(wi, ci)] {
				claimed[key(wi, ci)] = true
				return ws.Name, c, true
			}
		}
	}
	return "", SnapshotClient{}, false
}

// Store reads and writes snapshots as JSON files in one directory.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultStore returns the store in the snapshots directory next to the
// config file.
func DefaultStore() (*Store, error) {
	dir, err := runtimepath.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, "snapshots")), nil
}

// ValidateSnapshotName rejects names that would escape the store directory.
func ValidateSnapshotName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("snapshot name is required")
	}
	if strings.Contains(name, string(os.PathSeparator)) || name != filepath.Base(name) {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}

// Path returns the file a snapshot is stored in.
func (s *Store) Path(name string) (string, error) {
	if err := ValidateSnapshotName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, name+".json"), nil
}

// Write stores snap under snap.Name, replacing any previous file.
func (s *Store) Write(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	path, err := s.Path(snap.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", snap.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", snap.Name, err)
	}
	return nil
}

// Read loads a snapshot by name.
func (s *Store) Read(name string) (*Snapshot, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", name, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %q: %w", name, err)
	}
	if snap.Name == "" {
		snap.Name = name
	}
	return &snap, nil
}

// Delete removes a snapshot file.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", name, err)
	}
	return nil
}

// List returns stored snapshot names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(out)
	return out, nil
}
