//go:build !unix

package util

import "os"

// LockFile is a no-op where flock is unavailable. Appends still rely on
// O_APPEND.
func LockFile(f *os.File) (func(), error) {
	return func() {}, nil
}
