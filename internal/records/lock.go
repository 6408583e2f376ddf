package records

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const staleLockAge = 10 * time.Minute

// Lock acquires a file lock on the records document to prevent
// concurrent runs from interleaving writes.
func (m *Manager) Lock() error {
	lockPath := m.lockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if info, err := os.Stat(lockPath); err == nil {
		if time.Since(info.ModTime()) > staleLockAge {
			os.Remove(lockPath)
		} else {
			return fmt.Errorf("records are locked by another run (lock file: %s). "+
				"If this is an error, remove the lock file manually", lockPath)
		}
	}

	content := fmt.Sprintf("id=%s\npid=%d\ntime=%s\n",
		uuid.NewString(), os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(lockPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	return nil
}

// Unlock releases the records lock.
func (m *Manager) Unlock() error {
	if err := os.Remove(m.lockPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func (m *Manager) lockPath() string {
	return m.path + ".lock"
}
