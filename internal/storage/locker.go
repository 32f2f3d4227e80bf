package storage

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
)

// Lock is a held exclusive lock on a container path.
type Lock interface {
	Unlock() error
}

// Locker takes exclusive, non-blocking locks on container paths. A path
// that is already locked yields ErrContainerBusy.
type Locker interface {
	Lock(path string) (Lock, error)
}

// LockPath is the sidecar file that carries the lock of a container.
// Saves replace the container file itself, so the lock cannot live on it.
func LockPath(path string) string {
	return path + ".lock"
}

// MemLocker is an in-process Locker.
type MemLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemLocker() *MemLocker {
	return &MemLocker{held: make(map[string]bool)}
}

func (m *MemLocker) Lock(path string) (Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[path] {
		return nil, fmt.Errorf("%s: %w", path, common.ErrContainerBusy)
	}
	m.held[path] = true
	return &memLock{m: m, path: path}, nil
}

// Held reports whether path is currently locked.
func (m *MemLocker) Held(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[path]
}

type memLock struct {
	m    *MemLocker
	path string
	once sync.Once
}

func (l *memLock) Unlock() error {
	l.once.Do(func() {
		l.m.mu.Lock()
		delete(l.m.held, l.path)
		l.m.mu.Unlock()
	})
	return nil
}
