// Package vfs implements the in-memory metadata tree of a container: an
// arena of folders and files addressed by stable NodeID handles.
//
// Every folder keeps its children indexed by name, every non-root node keeps
// the ID of its parent. Mutations validate first and apply second, so a
// rejected operation leaves the tree exactly as it was.
//
// File contents live in Slots as sealed sections and are decrypted only
// when ReadFile asks for them. Each WriteFile seals under a freshly generated
// key and nonce and stores the result under a new content ID.
//
// A Tree is not safe for concurrent use.
package vfs
