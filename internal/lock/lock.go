// Package lock guards a destination tree against concurrent runs.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"transfercode/internal/domain"
)

// LockFileName is the advisory lock file kept at the destination root
const LockFileName = ".transfercode.lock"

// RunLock holds an exclusive advisory lock on a destination tree
type RunLock struct {
	fl   *flock.Flock
	path string
}

// Acquire takes the destination lock, creating the destination root if
// necessary. It fails with domain.ErrLockHeld when another run holds
// the lock.
func Acquire(destRoot string) (*RunLock, error) {
	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return nil, fmt.Errorf("create destination root: %w", err)
	}

	path := filepath.Join(destRoot, LockFileName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire destination lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLockHeld, path)
	}
	return &RunLock{fl: fl, path: path}, nil
}

// Release drops the lock and removes the lock file, best effort
func (l *RunLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	os.Remove(l.path)
	l.fl = nil
	return err
}

// Path returns the lock file location
func (l *RunLock) Path() string { return l.path }
