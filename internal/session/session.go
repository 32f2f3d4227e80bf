package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/container"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
	"github.com/dmitrijs2005/clogkeeper/internal/logging"
	"github.com/dmitrijs2005/clogkeeper/internal/storage"
	"github.com/dmitrijs2005/clogkeeper/internal/vfs"
)

// Session is one unlocked container. Changes stay in memory until Save.
// All methods are safe to call from several goroutines; they run one at a
// time.
type Session struct {
	mu    sync.Mutex
	m     *Manager
	path  string
	lock  storage.Lock
	state State
	log   logging.Logger

	engine cryptox.Engine
	key    []byte
	header *container.Header
	meta   container.Metadata
	tree   *vfs.Tree
	dirty  bool
}

func (s *Session) unlock(password []byte) error {
	data, err := s.m.store.ReadFile(s.path)
	if err != nil {
		return err
	}
	f, err := container.Parse(data)
	if err != nil {
		return err
	}
	engine, key, err := container.Unlock(f, password)
	if err != nil {
		return err
	}
	s.engine, s.key = engine, key
	meta, tree, err := container.OpenMetadata(engine, key, f, vfs.WithClock(s.m.now))
	if err != nil {
		return err
	}
	s.header = f.Header
	s.meta = *meta
	s.tree = tree
	return nil
}

func (s *Session) setState(ctx context.Context, st State) {
	if s.state != st {
		s.log.Debug(ctx, "state change", "from", s.state, "to", st)
	}
	s.state = st
}

func (s *Session) wipe() {
	common.WipeByteArray(s.key)
	s.key = nil
	s.tree = nil
	s.header = nil
	s.engine = nil
	s.dirty = false
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ContainerPath returns the container path on disk.
func (s *Session) ContainerPath() string { return s.path }

// Owner returns the username recorded in the container.
func (s *Session) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.Owner
}

// CreatedAt returns when the container was registered.
func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.header == nil {
		return time.Time{}
	}
	return s.header.CreatedAt
}

// Dirty reports whether there are changes that have not been saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Save writes the current tree to disk atomically. On failure the file on
// disk is untouched and the in-memory changes are kept.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnlocked {
		return common.ErrLocked
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.save(ctx)
}

func (s *Session) save(ctx context.Context) error {
	return s.saveAs(ctx, s.header, s.key)
}

func (s *Session) saveAs(ctx context.Context, header *container.Header, key []byte) error {
	s.setState(ctx, StateSaving)
	defer s.setState(ctx, StateUnlocked)

	meta := s.meta
	meta.SavedAt = s.m.now()
	f, err := container.Assemble(s.engine, key, header, meta, s.tree)
	if err != nil {
		s.log.Error(ctx, "assemble failed", "error", err)
		return err
	}
	data := f.Marshal()
	if err := s.m.store.WriteAtomic(s.path, data); err != nil {
		s.log.Error(ctx, "save failed", "path", s.path, "error", err)
		return err
	}
	s.meta = meta
	s.dirty = false
	s.log.Info(ctx, "container saved", "path", s.path, "bytes", len(data), "sections", len(f.Sections))
	return nil
}

// Discard drops the in-memory tree without saving, wipes the master key and
// releases the container lock. Discarding a locked session does nothing.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discard(context.Background())
}

func (s *Session) discard(ctx context.Context) error {
	if s.state == StateLocked {
		return nil
	}
	if s.dirty {
		s.log.Warn(ctx, "discarding unsaved changes", "path", s.path)
	}
	s.wipe()
	s.setState(ctx, StateLocked)
	return s.lock.Unlock()
}

// Close saves and then discards. If the save fails the session stays
// unlocked so the caller can retry or discard explicitly.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLocked {
		return nil
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	return s.discard(ctx)
}

// ChangePassword re-keys the container. The old password must match. The
// tree and file contents are kept; only the header and the metadata are
// sealed again. The change is saved immediately.
func (s *Session) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnlocked {
		return common.ErrLocked
	}

	_, check, err := container.Unlock(&container.File{Header: s.header}, oldPassword)
	if err != nil {
		return err
	}
	same := subtle.ConstantTimeCompare(check, s.key) == 1
	common.WipeByteArray(check)
	if !same {
		return common.ErrAuthentication
	}

	header, key, err := container.Reseal(s.engine, s.header, newPassword, s.m.kdf)
	if err != nil {
		return fmt.Errorf("reseal: %w", err)
	}
	if err := s.saveAs(ctx, header, key); err != nil {
		common.WipeByteArray(key)
		return err
	}
	common.WipeByteArray(s.key)
	s.key = key
	s.header = header
	s.log.Info(ctx, "password changed", "path", s.path)
	return nil
}
