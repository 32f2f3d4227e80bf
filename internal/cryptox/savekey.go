package cryptox

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	SaveSaltSize = 32
	saveKeyInfo  = "clog save key v1"
)

// ErrNonceSpaceExhausted is returned once a SaveKey has produced 2^32 nonces.
var ErrNonceSpaceExhausted = errors.New("save key nonce space exhausted")

// SaveKey is a key derived from the master key for exactly one save. Every
// save draws a new random salt, so the derived key differs each time, and
// nonces under it come from a counter. Together this rules out sealing two
// messages with the same key and nonce under the master key hierarchy.
type SaveKey struct {
	engine Engine
	key    []byte
	next   uint32
}

// NewSaveSalt returns a random salt for DeriveSaveKey.
func NewSaveSalt() ([]byte, error) {
	salt := make([]byte, SaveSaltSize)
	if _, err := randRead(salt); err != nil {
		return nil, fmt.Errorf("generate save salt: %w", err)
	}
	return salt, nil
}

// DeriveSaveKey expands masterKey with HKDF-SHA256 using saveSalt.
func DeriveSaveKey(e Engine, masterKey, saveSalt []byte) (*SaveKey, error) {
	if len(saveSalt) != SaveSaltSize {
		return nil, common.ErrAuthentication
	}
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, masterKey, saveSalt, []byte(saveKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive save key: %w", err)
	}
	return &SaveKey{engine: e, key: key}, nil
}

func (k *SaveKey) nextNonce() ([]byte, error) {
	if k.next == ^uint32(0) {
		return nil, ErrNonceSpaceExhausted
	}
	nonce := make([]byte, NonceSize)
	binary.BigEndian.PutUint32(nonce[NonceSize-4:], k.next)
	k.next++
	return nonce, nil
}

// Seal encrypts plaintext with the next counter nonce.
func (k *SaveKey) Seal(plaintext, ad []byte) (Sealed, error) {
	nonce, err := k.nextNonce()
	if err != nil {
		return Sealed{}, err
	}
	ct, err := k.engine.SealWithNonce(k.key, nonce, plaintext, ad)
	if err != nil {
		return Sealed{}, err
	}
	return Sealed{Nonce: nonce, Ciphertext: ct}, nil
}

// Open decrypts a section sealed under this key.
func (k *SaveKey) Open(s Sealed, ad []byte) ([]byte, error) {
	return k.engine.Open(k.key, s, ad)
}

// WrapKey seals a per-file key; ad binds it to the section it protects.
func (k *SaveKey) WrapKey(fileKey, ad []byte) (Sealed, error) {
	return k.Seal(fileKey, ad)
}

// UnwrapKey reverses WrapKey.
func (k *SaveKey) UnwrapKey(s Sealed, ad []byte) ([]byte, error) {
	key, err := k.Open(s, ad)
	if err != nil {
		return nil, err
	}
	if len(key) != KeySize {
		common.WipeByteArray(key)
		return nil, common.ErrAuthentication
	}
	return key, nil
}

// Wipe zeroes the derived key.
func (k *SaveKey) Wipe() {
	common.WipeByteArray(k.key)
}

// SealJSON serializes v to JSON and seals it.
func SealJSON(k *SaveKey, v any, ad []byte) (Sealed, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return Sealed{}, fmt.Errorf("marshal: %w", err)
	}
	defer common.WipeByteArray(plaintext)
	return k.Seal(plaintext, ad)
}

// OpenJSON opens s and unmarshals the JSON plaintext into v. A payload that
// authenticates but does not parse is reported as ErrAuthentication too.
func OpenJSON(k *SaveKey, s Sealed, ad []byte, v any) error {
	plaintext, err := k.Open(s, ad)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)
	if err := json.Unmarshal(plaintext, v); err != nil {
		return common.ErrAuthentication
	}
	return nil
}
