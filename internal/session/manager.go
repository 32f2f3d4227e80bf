// Package session owns the lifecycle of an open container: unlock, in
// memory mutation of the tree, atomic save and explicit discard.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/container"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
	"github.com/dmitrijs2005/clogkeeper/internal/logging"
	"github.com/dmitrijs2005/clogkeeper/internal/storage"
	"github.com/dmitrijs2005/clogkeeper/internal/vfs"
)

// Manager opens sessions. It carries everything a session needs from the
// outside world.
type Manager struct {
	store  *storage.Store
	locker storage.Locker
	suite  cryptox.CipherSuite
	kdf    cryptox.KDFParams
	log    logging.Logger
	now    func() time.Time
}

type Option func(*Manager)

func WithLocker(l storage.Locker) Option { return func(m *Manager) { m.locker = l } }

// WithCipher selects the cipher suite of new containers.
func WithCipher(c cryptox.CipherSuite) Option { return func(m *Manager) { m.suite = c } }

// WithKDFParams sets the derivation costs for new containers and password
// changes. Existing containers keep the params stored in their header.
func WithKDFParams(p cryptox.KDFParams) Option { return func(m *Manager) { m.kdf = p } }

func WithLogger(l logging.Logger) Option { return func(m *Manager) { m.log = l } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// NewManager returns a Manager writing through store.
func NewManager(store *storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locker: storage.FileLocker{},
		suite:  cryptox.CipherAES256GCM,
		kdf:    cryptox.DefaultKDFParams(),
		log:    logging.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates a new container at path holding an empty root folder and
// returns it as an unlocked session.
func (m *Manager) Register(ctx context.Context, path, username string, password []byte) (*Session, error) {
	if err := vfs.ValidateName(username); err != nil {
		return nil, fmt.Errorf("username: %w", err)
	}
	lock, err := m.locker.Lock(path)
	if err != nil {
		return nil, err
	}
	s, err := m.register(ctx, lock, path, username, password)
	if err != nil {
		_ = lock.Unlock()
		m.log.Warn(ctx, "register failed", "path", path, "error", err)
		return nil, err
	}
	m.log.Info(ctx, "container registered", "path", path)
	return s, nil
}

func (m *Manager) register(ctx context.Context, lock storage.Lock, path, username string, password []byte) (*Session, error) {
	exists, err := m.store.Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", path, common.ErrContainerExists)
	}

	engine, err := cryptox.NewEngine(m.suite)
	if err != nil {
		return nil, err
	}
	salt, err := cryptox.NewSalt(m.kdf)
	if err != nil {
		return nil, err
	}
	key, err := cryptox.DeriveMasterKey(password, salt, m.kdf)
	if err != nil {
		return nil, err
	}
	header, err := container.NewHeader(engine, key, m.kdf, salt, m.now())
	if err != nil {
		common.WipeByteArray(key)
		return nil, err
	}

	s := m.newSession(path, lock)
	s.engine = engine
	s.key = key
	s.header = header
	s.meta = container.Metadata{Owner: username}
	s.tree = vfs.New(engine, vfs.WithClock(m.now))
	s.state = StateUnlocked

	if err := s.save(ctx); err != nil {
		s.wipe()
		return nil, err
	}
	return s, nil
}

// Unlock opens the container at path with password. On any failure the
// lock is released and no tree is returned.
func (m *Manager) Unlock(ctx context.Context, path string, password []byte) (*Session, error) {
	lock, err := m.locker.Lock(path)
	if err != nil {
		return nil, err
	}
	s := m.newSession(path, lock)
	s.setState(ctx, StateUnlocking)

	if err := s.unlock(password); err != nil {
		s.wipe()
		_ = lock.Unlock()
		s.setState(ctx, StateLocked)
		if errors.Is(err, common.ErrAuthentication) {
			m.log.Warn(ctx, "unlock rejected", "path", path)
		} else {
			m.log.Error(ctx, "unlock failed", "path", path, "error", err)
		}
		return nil, err
	}
	s.setState(ctx, StateUnlocked)
	return s, nil
}

// ListUsers returns the users that have a container in dir.
func (m *Manager) ListUsers(dir string) ([]string, error) {
	return m.store.ListContainers(dir)
}

func (m *Manager) newSession(path string, lock storage.Lock) *Session {
	return &Session{
		m:    m,
		path: path,
		lock: lock,
		log:  m.log.With("component", "session"),
	}
}
