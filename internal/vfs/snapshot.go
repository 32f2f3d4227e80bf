package vfs

import (
	"bytes"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
)

// Snapshot is the serializable form of a tree. File keys only ever appear
// in it wrapped.
type Snapshot struct {
	NextID NodeID         `json:"next_id"`
	Nodes  []SnapshotNode `json:"nodes"`
}

type SnapshotNode struct {
	ID         NodeID        `json:"id"`
	Parent     NodeID        `json:"parent,omitempty"`
	Kind       Kind          `json:"kind"`
	Name       string        `json:"name,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	ModifiedAt time.Time     `json:"modified_at"`
	File       *SnapshotFile `json:"file,omitempty"`
}

type SnapshotFile struct {
	ContentID  string         `json:"content_id"`
	WrappedKey cryptox.Sealed `json:"wrapped_key"`
	Nonce      []byte         `json:"nonce"`
	Size       int64          `json:"size"`
	Hash       []byte         `json:"hash"`
}

// KeyWrapFunc seals a file key for storage. contentID identifies the
// section the key belongs to.
type KeyWrapFunc func(contentID string, key []byte) (cryptox.Sealed, error)

// KeyUnwrapFunc reverses KeyWrapFunc.
type KeyUnwrapFunc func(contentID string, wrapped cryptox.Sealed) ([]byte, error)

// Snapshot captures the tree in depth-first name order.
func (t *Tree) Snapshot(wrap KeyWrapFunc) (*Snapshot, error) {
	s := &Snapshot{NextID: t.nextID, Nodes: make([]SnapshotNode, 0, len(t.nodes))}
	err := t.Walk(func(_ string, v Node) error {
		n := t.nodes[v.ID]
		sn := SnapshotNode{
			ID:         n.id,
			Parent:     n.parent,
			Kind:       n.kind,
			Name:       n.name,
			CreatedAt:  n.createdAt,
			ModifiedAt: n.modifiedAt,
		}
		if n.file != nil {
			wrapped, err := wrap(n.file.contentID, n.file.key)
			if err != nil {
				return err
			}
			sn.File = &SnapshotFile{
				ContentID:  n.file.contentID,
				WrappedKey: wrapped,
				Nonce:      n.file.nonce,
				Size:       n.file.size,
				Hash:       n.file.hash,
			}
		}
		s.Nodes = append(s.Nodes, sn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Restore rebuilds a tree from a snapshot and the sealed sections that were
// stored next to it. Any violation of the tree invariants is reported as
// common.ErrAuthentication, the same as a failed tag. Sections that no file
// refers to are dropped.
func Restore(engine cryptox.Engine, s *Snapshot, slots *Slots, unwrap KeyUnwrapFunc, opts ...Option) (*Tree, error) {
	if s == nil || len(s.Nodes) == 0 {
		return nil, common.ErrAuthentication
	}
	t := newTree(engine, slots, opts...)
	fail := func() (*Tree, error) {
		for _, n := range t.nodes {
			if n.file != nil {
				common.WipeByteArray(n.file.key)
			}
		}
		return nil, common.ErrAuthentication
	}

	var maxID NodeID
	referenced := make(map[string]bool)
	for _, sn := range s.Nodes {
		if sn.ID == 0 {
			return fail()
		}
		if _, dup := t.nodes[sn.ID]; dup {
			return fail()
		}
		n := &node{
			id:         sn.ID,
			kind:       sn.Kind,
			name:       sn.Name,
			parent:     sn.Parent,
			createdAt:  sn.CreatedAt,
			modifiedAt: sn.ModifiedAt,
		}
		switch sn.Kind {
		case KindFolder:
			if sn.File != nil {
				return fail()
			}
			n.children = make(map[string]NodeID)
		case KindFile:
			f := sn.File
			if f == nil || referenced[f.ContentID] {
				return fail()
			}
			slot, ok := slots.Get(f.ContentID)
			if !ok || !bytes.Equal(slot.Nonce, f.Nonce) {
				return fail()
			}
			key, err := unwrap(f.ContentID, f.WrappedKey)
			if err != nil {
				return fail()
			}
			referenced[f.ContentID] = true
			n.file = &fileInfo{contentID: f.ContentID, key: key, nonce: f.Nonce, size: f.Size, hash: f.Hash}
		default:
			return fail()
		}
		if sn.ID == RootID {
			if sn.Kind != KindFolder || sn.Parent != 0 || sn.Name != "" {
				return fail()
			}
		} else if ValidateName(sn.Name) != nil {
			return fail()
		}
		t.nodes[sn.ID] = n
		if sn.ID > maxID {
			maxID = sn.ID
		}
	}
	if _, ok := t.nodes[RootID]; !ok {
		return fail()
	}

	for _, n := range t.nodes {
		if n.id == RootID {
			continue
		}
		p, ok := t.nodes[n.parent]
		if !ok || p.kind != KindFolder {
			return fail()
		}
		if _, dup := p.children[n.name]; dup {
			return fail()
		}
		p.children[n.name] = n.id
	}

	// Every node must reach the root within len(nodes) steps.
	for _, n := range t.nodes {
		cur, steps := n, 0
		for cur.id != RootID {
			cur = t.nodes[cur.parent]
			steps++
			if steps > len(t.nodes) {
				return fail()
			}
		}
	}

	for _, id := range slots.IDs() {
		if !referenced[id] {
			slots.Release(id)
		}
	}
	t.nextID = s.NextID
	if t.nextID <= maxID {
		t.nextID = maxID + 1
	}
	return t, nil
}
