// Package locking provides an advisory cross-process file lock used to
// serialize writers of the ledger file. The in-process snapshot mutex cannot
// see other processes; this can.
package locking

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrTimeout is returned when the lock cannot be acquired within the
// configured bound. Callers should treat it as retryable.
var ErrTimeout = errors.New("lock acquisition timed out")

// FileLock is an advisory exclusive lock on a sidecar "<target>.lock" file.
// It is not a data file; its presence alone carries no meaning, only the
// OS-level lock held on it does.
type FileLock struct {
	lockPath     string
	timeout      time.Duration
	pollInterval time.Duration
	handle       *os.File
}

// New creates a lock guarding targetPath with the given acquisition timeout.
func New(targetPath string, timeout time.Duration) *FileLock {
	return &FileLock{
		lockPath:     targetPath + ".lock",
		timeout:      timeout,
		pollInterval: 100 * time.Millisecond,
	}
}

// Acquire takes the lock, polling until it succeeds or the timeout elapses.
func (l *FileLock) Acquire() error {
	deadline := time.Now().Add(l.timeout)
	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0o755); err != nil {
		return fmt.Errorf("preparing lock directory: %w", err)
	}

	for {
		handle, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return fmt.Errorf("opening lock file %s: %w", l.lockPath, err)
		}
		locked, err := tryLock(handle)
		if err != nil {
			handle.Close()
			return fmt.Errorf("locking %s: %w", l.lockPath, err)
		}
		if locked {
			l.handle = handle
			return nil
		}
		handle.Close()

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s after %s", ErrTimeout, l.lockPath, l.timeout)
		}
		time.Sleep(l.pollInterval)
	}
}

// Release drops the lock and removes the sidecar file. Releasing an
// unacquired lock is a no-op.
func (l *FileLock) Release() {
	if l.handle == nil {
		return
	}
	unlock(l.handle)
	l.handle.Close()
	l.handle = nil
	os.Remove(l.lockPath)
}
