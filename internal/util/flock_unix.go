//go:build unix

package util

import (
	"os"

	"golang.org/x/sys/unix"
)

// LockFile takes an exclusive advisory lock on f, blocking until it is
// available. The returned func releases it.
func LockFile(f *os.File) (func(), error) {
	fd := int(f.Fd())
	for {
		err := unix.Flock(fd, unix.LOCK_EX)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	return func() {
		_ = unix.Flock(fd, unix.LOCK_UN)
	}, nil
}
