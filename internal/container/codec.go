package container

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
	"github.com/dmitrijs2005/clogkeeper/internal/vfs"
)

// Metadata is what the sealed metadata section holds besides the tree.
type Metadata struct {
	Owner   string    `json:"owner"`
	SavedAt time.Time `json:"saved_at"`
}

type metadataDoc struct {
	Metadata
	Tree *vfs.Snapshot `json:"tree"`
}

// Unlock derives the master key from password and checks it against the
// header verifier. It returns the engine for the container's cipher suite
// and the master key. A wrong password and a damaged header both yield
// ErrAuthentication.
func Unlock(f *File, password []byte) (cryptox.Engine, []byte, error) {
	h := f.Header
	e, err := cryptox.NewEngine(h.Cipher)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrInvalidContainer, err)
	}
	key, err := cryptox.DeriveMasterKey(password, h.Salt, h.KDF)
	if err != nil {
		return nil, nil, err
	}
	v, err := e.Open(key, h.Verifier, h.Preamble())
	if err != nil || subtle.ConstantTimeCompare(v, []byte(verifierPlaintext)) != 1 {
		common.WipeByteArray(key)
		return nil, nil, common.ErrAuthentication
	}
	return e, key, nil
}

// OpenMetadata decrypts the metadata section and rebuilds the tree. Content
// sections are attached to the tree still sealed.
func OpenMetadata(e cryptox.Engine, masterKey []byte, f *File, opts ...vfs.Option) (*Metadata, *vfs.Tree, error) {
	sk, err := cryptox.DeriveSaveKey(e, masterKey, f.SaveSalt)
	if err != nil {
		return nil, nil, common.ErrAuthentication
	}
	defer sk.Wipe()

	var doc metadataDoc
	if err := cryptox.OpenJSON(sk, f.Metadata, f.headerBytes(), &doc); err != nil {
		return nil, nil, err
	}

	slots := vfs.NewSlots()
	for _, s := range f.Sections {
		if _, dup := slots.Get(s.ContentID); dup {
			return nil, nil, common.ErrAuthentication
		}
		slots.Put(s.ContentID, s.Sealed)
	}

	unwrap := func(contentID string, wrapped cryptox.Sealed) ([]byte, error) {
		return sk.UnwrapKey(wrapped, []byte(contentID))
	}
	tree, err := vfs.Restore(e, doc.Tree, slots, unwrap, opts...)
	if err != nil {
		return nil, nil, err
	}
	meta := doc.Metadata
	return &meta, tree, nil
}

// Assemble seals the tree into a new container image under header. Each
// call draws a new save salt, so the metadata and the wrapped file keys are
// sealed under a key that has never been used before.
func Assemble(e cryptox.Engine, masterKey []byte, h *Header, meta Metadata, tree *vfs.Tree) (*File, error) {
	saveSalt, err := cryptox.NewSaveSalt()
	if err != nil {
		return nil, err
	}
	sk, err := cryptox.DeriveSaveKey(e, masterKey, saveSalt)
	if err != nil {
		return nil, err
	}
	defer sk.Wipe()

	snap, err := tree.Snapshot(func(contentID string, key []byte) (cryptox.Sealed, error) {
		return sk.WrapKey(key, []byte(contentID))
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot tree: %w", err)
	}

	f := &File{Header: h, SaveSalt: saveSalt, rawHeader: h.Marshal()}
	f.Metadata, err = cryptox.SealJSON(sk, metadataDoc{Metadata: meta, Tree: snap}, f.rawHeader)
	if err != nil {
		return nil, fmt.Errorf("seal metadata: %w", err)
	}

	slots := tree.Slots()
	for _, id := range slots.IDs() {
		s, _ := slots.Get(id)
		f.Sections = append(f.Sections, Section{ContentID: id, Sealed: s})
	}
	return f, nil
}

// Reseal builds a header for a new password: fresh salt, new master key,
// new verifier. The creation time carries over. The caller re-assembles the
// container with the returned key.
func Reseal(e cryptox.Engine, old *Header, password []byte, p cryptox.KDFParams) (*Header, []byte, error) {
	salt, err := cryptox.NewSalt(p)
	if err != nil {
		return nil, nil, err
	}
	key, err := cryptox.DeriveMasterKey(password, salt, p)
	if err != nil {
		return nil, nil, err
	}
	h, err := NewHeader(e, key, p, salt, old.CreatedAt)
	if err != nil {
		common.WipeByteArray(key)
		return nil, nil, err
	}
	return h, key, nil
}
