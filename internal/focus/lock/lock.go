// Package lock provides the advisory lock that serializes synchronization
// runs against one session store.
//
// The lock file sits next to the store: its path is the store path plus
// Suffix. Acquisition never waits; a caller that loses simply gets false.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Suffix is appended to the store path to form the lock file path.
const Suffix = ".lock"

// ErrLocked is returned by Acquire when another holder has the lock.
var ErrLocked = errors.New("another synchronization is already in progress")

// Lock is a non-blocking advisory file lock. A Lock is not reentrant: a
// second TryLock on the same value while held returns false.
type Lock struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// New returns the lock guarding the store at storePath.
func New(storePath string) *Lock {
	return &Lock{path: storePath + Suffix}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// TryLock attempts to take the lock without blocking. It returns false, nil
// when another process or Lock value holds it.
func (l *Lock) TryLock() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, ok, err := tryLockFile(l.path)
	if err != nil || !ok {
		return false, err
	}
	l.file = f
	return true, nil
}

// Acquire is TryLock returning ErrLocked on contention.
func (l *Lock) Acquire() error {
	ok, err := l.TryLock()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Unlock releases the lock. Unlocking a lock that is not held is a no-op.
func (l *Lock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := unlockFile(l.file, l.path)
	l.file = nil
	return err
}

// Held reports whether this Lock value currently holds the lock.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}
