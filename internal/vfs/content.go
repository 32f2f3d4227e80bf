package vfs

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
	"github.com/google/uuid"
)

// seal encrypts plaintext under a new key and nonce into a new slot.
func (t *Tree) seal(plaintext []byte) (*fileInfo, error) {
	contentID := uuid.NewString()
	key, sealed, err := t.engine.SealFresh(plaintext, []byte(contentID))
	if err != nil {
		return nil, fmt.Errorf("seal content: %w", err)
	}
	sum := sha256.Sum256(plaintext)
	t.slots.Put(contentID, sealed)
	return &fileInfo{
		contentID: contentID,
		key:       key,
		nonce:     sealed.Nonce,
		size:      int64(len(plaintext)),
		hash:      sum[:],
	}, nil
}

func (t *Tree) release(info *fileInfo) {
	t.slots.Release(info.contentID)
	common.WipeByteArray(info.key)
}

// ReadFile decrypts the content of a file. Besides the AEAD tag, the
// plaintext length and SHA-256 hash recorded in the tree must match.
func (t *Tree) ReadFile(id NodeID) ([]byte, error) {
	n, err := t.file(id)
	if err != nil {
		return nil, err
	}
	info := n.file
	slot, ok := t.slots.Get(info.contentID)
	if !ok || !bytes.Equal(slot.Nonce, info.nonce) {
		return nil, common.ErrAuthentication
	}
	sealed := cryptox.Sealed{Nonce: info.nonce, Ciphertext: slot.Ciphertext}
	plaintext, err := t.engine.Open(info.key, sealed, []byte(info.contentID))
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(plaintext)
	if int64(len(plaintext)) != info.size || subtle.ConstantTimeCompare(sum[:], info.hash) != 1 {
		common.WipeByteArray(plaintext)
		return nil, common.ErrAuthentication
	}
	return plaintext, nil
}

// WriteFile replaces the content of a file. The new content always gets a
// new key, nonce and content ID; the previous slot is released.
func (t *Tree) WriteFile(id NodeID, plaintext []byte) error {
	n, err := t.file(id)
	if err != nil {
		return err
	}
	info, err := t.seal(plaintext)
	if err != nil {
		return err
	}
	t.release(n.file)
	n.file = info
	n.modifiedAt = t.now()
	return nil
}
