//go:build !unix

package lock

import (
	"errors"
	"fmt"
	"os"
)

// Without flock the lock is the existence of the file, created exclusively.
func tryLockFile(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to create lock file: %w", err)
	}
	return f, true, nil
}

func unlockFile(f *os.File, path string) error {
	closeErr := f.Close()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return closeErr
}
