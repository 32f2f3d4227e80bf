package session

import (
	"strings"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/vfs"
)

// EditFunc receives the current plaintext of a file and returns the
// replacement. changed=false leaves the file as it is.
type EditFunc func(plaintext []byte) (replacement []byte, changed bool, err error)

// with runs fn on the live tree while holding the session mutex.
func (s *Session) with(fn func(t *vfs.Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnlocked {
		return common.ErrLocked
	}
	return fn(s.tree)
}

// mutate is with for operations that change the tree.
func (s *Session) mutate(fn func(t *vfs.Tree) error) error {
	return s.with(func(t *vfs.Tree) error {
		if err := fn(t); err != nil {
			return err
		}
		s.dirty = true
		return nil
	})
}

func (s *Session) CreateFolder(parent vfs.NodeID, name string) (id vfs.NodeID, err error) {
	err = s.mutate(func(t *vfs.Tree) error {
		id, err = t.CreateFolder(parent, name)
		return err
	})
	return id, err
}

func (s *Session) CreateFile(parent vfs.NodeID, name string) (id vfs.NodeID, err error) {
	err = s.mutate(func(t *vfs.Tree) error {
		id, err = t.CreateFile(parent, name)
		return err
	})
	return id, err
}

func (s *Session) Rename(id vfs.NodeID, newName string) error {
	return s.mutate(func(t *vfs.Tree) error { return t.Rename(id, newName) })
}

func (s *Session) Move(id, newParent vfs.NodeID) error {
	return s.mutate(func(t *vfs.Tree) error { return t.Move(id, newParent) })
}

func (s *Session) Delete(id vfs.NodeID) error {
	return s.mutate(func(t *vfs.Tree) error { return t.Delete(id) })
}

func (s *Session) WriteFile(id vfs.NodeID, plaintext []byte) error {
	return s.mutate(func(t *vfs.Tree) error { return t.WriteFile(id, plaintext) })
}

// ReadFile returns the decrypted content of a file. The caller owns the
// returned slice and should wipe it when done.
func (s *Session) ReadFile(id vfs.NodeID) (data []byte, err error) {
	err = s.with(func(t *vfs.Tree) error {
		data, err = t.ReadFile(id)
		return err
	})
	return data, err
}

// Edit hands the plaintext of a file to fn and writes back what fn returns
// if it reports a change. The plaintext is wiped afterwards.
func (s *Session) Edit(id vfs.NodeID, fn EditFunc) error {
	return s.with(func(t *vfs.Tree) error {
		current, err := t.ReadFile(id)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(current)

		replacement, changed, err := fn(current)
		if err != nil || !changed {
			return err
		}
		if err := t.WriteFile(id, replacement); err != nil {
			return err
		}
		s.dirty = true
		return nil
	})
}

func (s *Session) Stat(id vfs.NodeID) (n vfs.Node, err error) {
	err = s.with(func(t *vfs.Tree) error {
		n, err = t.Stat(id)
		return err
	})
	return n, err
}

// List returns the children of a folder sorted by name.
func (s *Session) List(id vfs.NodeID) (nodes []vfs.Node, err error) {
	err = s.with(func(t *vfs.Tree) error {
		nodes, err = t.Children(id)
		return err
	})
	return nodes, err
}

func (s *Session) Lookup(p string) (id vfs.NodeID, err error) {
	return s.Resolve(vfs.RootID, p)
}

// Resolve resolves p relative to the folder from.
func (s *Session) Resolve(from vfs.NodeID, p string) (id vfs.NodeID, err error) {
	err = s.with(func(t *vfs.Tree) error {
		id, err = t.Resolve(from, p)
		return err
	})
	return id, err
}

func (s *Session) Path(id vfs.NodeID) (p string, err error) {
	err = s.with(func(t *vfs.Tree) error {
		p, err = t.Path(id)
		return err
	})
	return p, err
}

// Walk visits every node depth-first in name order. fn must not call back
// into the session.
func (s *Session) Walk(fn vfs.WalkFunc) error {
	return s.with(func(t *vfs.Tree) error { return t.Walk(fn) })
}

// MkdirAll resolves p relative to from, creating missing folders on the
// way, and returns the last one. Either the whole path exists afterwards or
// nothing was created.
func (s *Session) MkdirAll(from vfs.NodeID, p string) (id vfs.NodeID, err error) {
	segs := strings.Split(p, "/")
	for _, seg := range segs {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		if err := vfs.ValidateName(seg); err != nil {
			return 0, err
		}
	}

	err = s.with(func(t *vfs.Tree) error {
		var created []vfs.NodeID
		undo := func() {
			for i := len(created) - 1; i >= 0; i-- {
				_ = t.Delete(created[i])
			}
		}

		cur := from
		if strings.HasPrefix(p, "/") {
			cur = vfs.RootID
		}
		for _, seg := range segs {
			if seg == "" || seg == "." {
				continue
			}
			next, err := t.Resolve(cur, seg)
			if err == nil {
				st, _ := t.Stat(next)
				if !st.IsFolder() {
					undo()
					return common.ErrNotAFolder
				}
				cur = next
				continue
			}
			next, err = t.CreateFolder(cur, seg)
			if err != nil {
				undo()
				return err
			}
			created = append(created, next)
			cur = next
		}
		if len(created) > 0 {
			s.dirty = true
		}
		id = cur
		return nil
	})
	return id, err
}
