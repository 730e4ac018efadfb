//go:build unix

package locking

import (
	"os"

	"golang.org/x/sys/unix"
)

// tryLock attempts a non-blocking exclusive flock. It reports false when
// another holder has the lock, without error.
func tryLock(handle *os.File) (bool, error) {
	err := unix.Flock(int(handle.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func unlock(handle *os.File) {
	unix.Flock(int(handle.Fd()), unix.LOCK_UN)
}
