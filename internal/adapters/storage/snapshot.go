package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"papertrader/internal/domain"
)

// JSONSnapshot writes the latest cycle to a JSON file for external readers
// (dashboards tail the file instead of sharing process state with the loop).
// The write is atomic: temp file + rename, so a reader never sees a torn
// snapshot.
type JSONSnapshot struct {
	path string
}

// NewJSONSnapshot creates a snapshot writer targeting the given path.
func NewJSONSnapshot(path string) *JSONSnapshot {
	return &JSONSnapshot{path: path}
}

// WriteSnapshot serializes the snapshot and atomically replaces the file.
func (j *JSONSnapshot) WriteSnapshot(snap domain.CycleSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.WriteSnapshot: marshal: %w", err)
	}

	dir := filepath.Dir(j.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("storage.WriteSnapshot: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage.WriteSnapshot: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage.WriteSnapshot: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("storage.WriteSnapshot: rename: %w", err)
	}
	return nil
}
