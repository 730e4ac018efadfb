//go:build windows

package locking

import (
	"os"

	"golang.org/x/sys/windows"
)

// tryLock attempts a non-blocking exclusive LockFileEx on the first byte of
// the lock file. It reports false when another holder has the lock.
func tryLock(handle *os.File) (bool, error) {
	var overlapped windows.Overlapped
	err := windows.LockFileEx(
		windows.Handle(handle.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, &overlapped,
	)
	if err == windows.ERROR_LOCK_VIOLATION {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func unlock(handle *os.File) {
	var overlapped windows.Overlapped
	windows.UnlockFileEx(windows.Handle(handle.Fd()), 0, 1, 0, &overlapped)
}
