// Package lock enforces single-instance execution via an exclusive
// file lock in the system temp directory.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
)

// Instance holds an acquired single-instance lock.
type Instance struct {
	path string
	file *os.File
}

// Acquire tries to take an exclusive lock on a file named name under
// the OS temp directory. It returns an error if another instance
// already holds the lock.
func Acquire(name string) (*Instance, error) {
	path := filepath.Join(os.TempDir(), name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := tryLock(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("another instance is already running (lock: %s): %w", path, err)
	}

	_ = f.Truncate(0)
	fmt.Fprintf(f, "%d", os.Getpid())
	f.Sync()

	return &Instance{path: path, file: f}, nil
}

// Release unlocks and removes the lock file.
func (i *Instance) Release() error {
	if i.file == nil {
		return nil
	}
	unlock(i.file)
	i.file.Close()
	i.file = nil
	return os.Remove(i.path)
}
