package vfs

import "time"

// NodeID is a stable handle of a node inside one Tree.
type NodeID uint64

// RootID is the handle of the root folder of every tree.
const RootID NodeID = 1

// Kind tags a node as a folder or a file.
type Kind uint8

const (
	KindFolder Kind = iota + 1
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// fileInfo is the key material and content locator of a file.
type fileInfo struct {
	contentID string
	key       []byte
	nonce     []byte
	size      int64
	hash      []byte
}

type node struct {
	id         NodeID
	kind       Kind
	name       string
	parent     NodeID
	createdAt  time.Time
	modifiedAt time.Time

	children map[string]NodeID // folders only
	file     *fileInfo         // files only
}

// Node is a read-only view of a tree node.
type Node struct {
	ID         NodeID
	Kind       Kind
	Name       string
	Parent     NodeID
	CreatedAt  time.Time
	ModifiedAt time.Time

	// Size is the plaintext length for files and the number of children
	// for folders.
	Size int64
}

func (n Node) IsFolder() bool { return n.Kind == KindFolder }
func (n Node) IsFile() bool   { return n.Kind == KindFile }

func (n *node) view() Node {
	v := Node{
		ID:         n.id,
		Kind:       n.kind,
		Name:       n.name,
		Parent:     n.parent,
		CreatedAt:  n.createdAt,
		ModifiedAt: n.modifiedAt,
	}
	if n.kind == KindFile {
		v.Size = n.file.size
	} else {
		v.Size = int64(len(n.children))
	}
	return v
}
