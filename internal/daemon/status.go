package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const statusFile = "daemon.json"

// Status describes a running daemon. It is written to daemon.json in
// the data directory so other drowse processes can find the daemon.
type Status struct {
	PID       int       `json:"pid"`
	Version   string    `json:"version"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
}

// WriteStatus records the daemon status in the data directory.
func WriteStatus(dataDir string, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	path := filepath.Join(dataDir, statusFile)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

// ReadStatus loads the daemon status, or nil if no daemon has recorded
// one.
func ReadStatus(dataDir string) (*Status, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, statusFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse status file: %w", err)
	}
	return &st, nil
}

// RemoveStatus deletes the status file. Missing files are fine.
func RemoveStatus(dataDir string) error {
	err := os.Remove(filepath.Join(dataDir, statusFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove status file: %w", err)
	}
	return nil
}
