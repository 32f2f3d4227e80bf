//go:build !unix && !windows

package storage

// FileLocker falls back to an in-process lock where the platform has no
// advisory file locking.
type FileLocker struct{}

var processLocks = NewMemLocker()

func (FileLocker) Lock(path string) (Lock, error) {
	return processLocks.Lock(path)
}
