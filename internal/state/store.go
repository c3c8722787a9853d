// Package state persists per-agent message cursors between runs.
package state

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// Store reads and writes the polling cursor file: a flat JSON object
// mapping agent ID to the last processed message ID. The file is a plain
// overwrite with no locking; the poller is assumed to run one instance at a
// time.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns the stored cursor map. A missing or unreadable file yields
// an empty map; Load never fails, so a lost state file only means a full
// replay on the next fetch.
func (s *Store) Load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("State file not found, starting with empty state", "path", s.path)
		} else {
			slog.Warn("Error reading state file, starting with empty state", "path", s.path, "error", err)
		}
		return map[string]string{}
	}
	cursors := map[string]string{}
	if err := json.Unmarshal(data, &cursors); err != nil {
		slog.Warn("Invalid state file, starting with empty state", "path", s.path, "error", err)
		return map[string]string{}
	}
	return cursors
}

// Save overwrites the cursor file, creating the parent directory if needed.
// Failures are logged and swallowed: the run already happened, a lost
// cursor update only causes a replay next time.
func (s *Store) Save(cursors map[string]string) {
	data, err := json.MarshalIndent(cursors, "", "    ")
	if err != nil {
		slog.Error("Error encoding polling state", "error", err)
		return
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Error creating state directory", "path", dir, "error", err)
			return
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		slog.Error("Error saving polling state", "path", s.path, "error", err)
		return
	}
	slog.Info("Updated polling state saved", "path", s.path, "agents", len(cursors))
}
