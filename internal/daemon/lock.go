package daemon

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lock is an exclusive file lock that keeps a data directory to one
// daemon at a time.
type Lock struct {
	file *os.File
}

// AcquireLock takes the daemon lock for dataDir. It fails immediately
// when another process holds it.
func AcquireLock(dataDir string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, "daemon.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := flock(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("another drowse daemon is running (lock %s): %w", path, err)
	}

	return &Lock{file: f}, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := funlock(l.file); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("failed to unlock: %w", err)
	}
	return l.file.Close()
}
