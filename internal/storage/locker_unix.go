//go:build unix

package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"golang.org/x/sys/unix"
)

// FileLocker locks containers with flock(2) on their sidecar lock file.
// The lock goes away with the process, so a crash never leaves a
// container busy.
type FileLocker struct{}

func (FileLocker) Lock(path string) (Lock, error) {
	f, err := os.OpenFile(LockPath(path), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open lock file: %w", common.ErrIO, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", path, common.ErrContainerBusy)
		}
		return nil, fmt.Errorf("%w: flock: %w", common.ErrIO, err)
	}
	return &fileLock{f: f}, nil
}

type fileLock struct {
	f *os.File
}

func (l *fileLock) Unlock() error {
	if l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
