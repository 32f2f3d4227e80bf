package vfs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
)

// Tree is the arena of nodes of one unlocked container.
type Tree struct {
	engine cryptox.Engine
	nodes  map[NodeID]*node
	nextID NodeID
	slots  *Slots
	now    func() time.Time
}

// Option configures a Tree.
type Option func(*Tree)

// WithClock replaces time.Now for node timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tree) { t.now = now }
}

// New returns a tree holding only an empty root folder.
func New(engine cryptox.Engine, opts ...Option) *Tree {
	t := newTree(engine, NewSlots(), opts...)
	ts := t.now()
	t.nodes[RootID] = &node{
		id:         RootID,
		kind:       KindFolder,
		createdAt:  ts,
		modifiedAt: ts,
		children:   make(map[string]NodeID),
	}
	t.nextID = RootID + 1
	return t
}

func newTree(engine cryptox.Engine, slots *Slots, opts ...Option) *Tree {
	t := &Tree{
		engine: engine,
		nodes:  make(map[NodeID]*node),
		slots:  slots,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Slots exposes the sealed content sections referenced by file nodes.
func (t *Tree) Slots() *Slots { return t.slots }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) get(id NodeID) (*node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, common.ErrNotFound)
	}
	return n, nil
}

func (t *Tree) folder(id NodeID) (*node, error) {
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n.kind != KindFolder {
		return nil, fmt.Errorf("%q: %w", n.name, common.ErrNotAFolder)
	}
	return n, nil
}

func (t *Tree) file(id NodeID) (*node, error) {
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n.kind != KindFile {
		return nil, fmt.Errorf("%q: %w", n.name, common.ErrNotAFile)
	}
	return n, nil
}

// Stat returns a view of the node.
func (t *Tree) Stat(id NodeID) (Node, error) {
	n, err := t.get(id)
	if err != nil {
		return Node{}, err
	}
	return n.view(), nil
}

// Children lists the direct children of a folder sorted by name.
func (t *Tree) Children(id NodeID) ([]Node, error) {
	f, err := t.folder(id)
	if err != nil {
		return nil, err
	}
	res := make([]Node, 0, len(f.children))
	for _, cid := range f.children {
		res = append(res, t.nodes[cid].view())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

// Lookup resolves an absolute path such as /a/b/c.
func (t *Tree) Lookup(p string) (NodeID, error) {
	return t.Resolve(RootID, p)
}

// Resolve resolves p relative to the folder from. A leading slash makes p
// absolute. Empty segments and "." are skipped, ".." climbs to the parent
// and stops at the root.
func (t *Tree) Resolve(from NodeID, p string) (NodeID, error) {
	cur := from
	if strings.HasPrefix(p, "/") {
		cur = RootID
	}
	if _, err := t.get(cur); err != nil {
		return 0, err
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if cur != RootID {
				cur = t.nodes[cur].parent
			}
			continue
		}
		f, err := t.folder(cur)
		if err != nil {
			return 0, err
		}
		next, ok := f.children[seg]
		if !ok {
			return 0, fmt.Errorf("%q: %w", seg, common.ErrNotFound)
		}
		cur = next
	}
	return cur, nil
}

// Path returns the absolute path of a node. The root is "/".
func (t *Tree) Path(id NodeID) (string, error) {
	n, err := t.get(id)
	if err != nil {
		return "", err
	}
	var parts []string
	for n.id != RootID {
		parts = append(parts, n.name)
		n = t.nodes[n.parent]
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/"), nil
}

// WalkFunc is called for every node visited by Walk. Returning an error
// stops the walk.
type WalkFunc func(path string, n Node) error

// Walk visits the whole tree depth-first, children in name order, starting
// with the root.
func (t *Tree) Walk(fn WalkFunc) error {
	return t.walk("/", t.nodes[RootID], fn)
}

func (t *Tree) walk(p string, n *node, fn WalkFunc) error {
	if err := fn(p, n.view()); err != nil {
		return err
	}
	if n.kind != KindFolder {
		return nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := t.nodes[n.children[name]]
		cp := p + name
		if p != "/" {
			cp = p + "/" + name
		}
		if err := t.walk(cp, child, fn); err != nil {
			return err
		}
	}
	return nil
}

// isAncestor reports whether a is id itself or one of its ancestors.
func (t *Tree) isAncestor(a, id NodeID) bool {
	for cur := id; ; {
		if cur == a {
			return true
		}
		if cur == RootID {
			return false
		}
		cur = t.nodes[cur].parent
	}
}
