package vfs

import (
	"fmt"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
)

func (t *Tree) checkNewChild(parent NodeID, name string) (*node, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	p, err := t.folder(parent)
	if err != nil {
		return nil, err
	}
	if _, exists := p.children[name]; exists {
		return nil, fmt.Errorf("%q: %w", name, common.ErrNameConflict)
	}
	return p, nil
}

func (t *Tree) attach(p *node, n *node) {
	t.nodes[n.id] = n
	p.children[n.name] = n.id
	p.modifiedAt = n.createdAt
}

func (t *Tree) allocID() NodeID {
	id := t.nextID
	t.nextID++
	return id
}

// CreateFolder adds an empty folder under parent.
func (t *Tree) CreateFolder(parent NodeID, name string) (NodeID, error) {
	p, err := t.checkNewChild(parent, name)
	if err != nil {
		return 0, err
	}
	ts := t.now()
	n := &node{
		id:         t.allocID(),
		kind:       KindFolder,
		name:       name,
		parent:     parent,
		createdAt:  ts,
		modifiedAt: ts,
		children:   make(map[string]NodeID),
	}
	t.attach(p, n)
	return n.id, nil
}

// CreateFile adds an empty file under parent. The empty content is sealed
// under its own fresh key so the file has a valid slot from the start.
func (t *Tree) CreateFile(parent NodeID, name string) (NodeID, error) {
	p, err := t.checkNewChild(parent, name)
	if err != nil {
		return 0, err
	}
	info, err := t.seal(nil)
	if err != nil {
		return 0, err
	}
	ts := t.now()
	n := &node{
		id:         t.allocID(),
		kind:       KindFile,
		name:       name,
		parent:     parent,
		createdAt:  ts,
		modifiedAt: ts,
		file:       info,
	}
	t.attach(p, n)
	return n.id, nil
}

// Rename changes the name of a node within its current folder.
func (t *Tree) Rename(id NodeID, newName string) error {
	if id == RootID {
		return fmt.Errorf("rename root: %w", common.ErrInvalidMove)
	}
	n, err := t.get(id)
	if err != nil {
		return err
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	if n.name == newName {
		return nil
	}
	p := t.nodes[n.parent]
	if _, exists := p.children[newName]; exists {
		return fmt.Errorf("%q: %w", newName, common.ErrNameConflict)
	}
	delete(p.children, n.name)
	p.children[newName] = id
	n.name = newName
	ts := t.now()
	n.modifiedAt = ts
	p.modifiedAt = ts
	return nil
}

// Move re-parents a node, keeping its name. Moving a folder into itself or
// into one of its descendants is rejected with ErrInvalidMove.
func (t *Tree) Move(id, newParent NodeID) error {
	if id == RootID {
		return fmt.Errorf("move root: %w", common.ErrInvalidMove)
	}
	n, err := t.get(id)
	if err != nil {
		return err
	}
	target, err := t.folder(newParent)
	if err != nil {
		return err
	}
	if t.isAncestor(id, newParent) {
		return fmt.Errorf("move %q into itself: %w", n.name, common.ErrInvalidMove)
	}
	if n.parent == newParent {
		return nil
	}
	if _, exists := target.children[n.name]; exists {
		return fmt.Errorf("%q: %w", n.name, common.ErrNameConflict)
	}
	old := t.nodes[n.parent]
	delete(old.children, n.name)
	target.children[n.name] = id
	n.parent = newParent
	ts := t.now()
	old.modifiedAt = ts
	target.modifiedAt = ts
	return nil
}

// Delete removes the subtree rooted at id. Content slots of removed files
// are released and their keys wiped.
func (t *Tree) Delete(id NodeID) error {
	if id == RootID {
		return fmt.Errorf("delete root: %w", common.ErrInvalidMove)
	}
	n, err := t.get(id)
	if err != nil {
		return err
	}
	p := t.nodes[n.parent]
	delete(p.children, n.name)
	p.modifiedAt = t.now()

	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		for _, cid := range cur.children {
			stack = append(stack, cid)
		}
		if cur.file != nil {
			t.release(cur.file)
		}
		delete(t.nodes, cur.id)
	}
	return nil
}
