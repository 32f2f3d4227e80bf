// Package cryptox holds the key derivation and authenticated encryption
// primitives. It knows nothing about the tree or the container layout.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// CipherSuite selects the AEAD used for every section of a container.
type CipherSuite uint8

const (
	CipherAES256GCM        CipherSuite = 1
	CipherChaCha20Poly1305 CipherSuite = 2
)

const (
	KeySize   = 32
	NonceSize = 12
)

func (c CipherSuite) String() string {
	switch c {
	case CipherAES256GCM:
		return "aes-256-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// ParseCipherSuite accepts the names produced by CipherSuite.String.
func ParseCipherSuite(s string) (CipherSuite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "aes-256-gcm", "aes":
		return CipherAES256GCM, nil
	case "chacha20-poly1305", "chacha20":
		return CipherChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("unsupported cipher suite %q", s)
	}
}

// randRead is a test seam for crypto/rand.
var randRead = rand.Read

// Sealed is one AEAD output: the nonce it was produced with and the
// ciphertext with the tag appended.
type Sealed struct {
	Nonce      []byte
	Ciphertext []byte
}

// Engine seals and opens byte slices. Open never returns detail about why
// authentication failed.
type Engine interface {
	Suite() CipherSuite

	// NewKey returns a fresh random key.
	NewKey() ([]byte, error)

	// SealWithNonce encrypts with a caller-chosen nonce. Callers are
	// responsible for never repeating a nonce under the same key.
	SealWithNonce(key, nonce, plaintext, ad []byte) ([]byte, error)

	// Seal encrypts under key with a fresh random nonce.
	Seal(key, plaintext, ad []byte) (Sealed, error)

	// SealFresh generates a new key and a new nonce and encrypts with them,
	// so the returned pair has never been used before.
	SealFresh(plaintext, ad []byte) ([]byte, Sealed, error)

	// Open decrypts s. Any failure yields common.ErrAuthentication.
	Open(key []byte, s Sealed, ad []byte) ([]byte, error)
}

type engine struct {
	suite CipherSuite
}

// NewEngine returns the engine for the given suite.
func NewEngine(suite CipherSuite) (Engine, error) {
	switch suite {
	case CipherAES256GCM, CipherChaCha20Poly1305:
		return &engine{suite: suite}, nil
	default:
		return nil, fmt.Errorf("unsupported cipher suite %d", suite)
	}
}

func (e *engine) Suite() CipherSuite { return e.suite }

func (e *engine) aead(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	switch e.suite {
	case CipherChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	}
}

func (e *engine) NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := randRead(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

func (e *engine) newNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := randRead(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, nil
}

func (e *engine) SealWithNonce(key, nonce, plaintext, ad []byte) ([]byte, error) {
	aead, err := e.aead(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", aead.NonceSize(), len(nonce))
	}
	return aead.Seal(nil, nonce, plaintext, ad), nil
}

func (e *engine) Seal(key, plaintext, ad []byte) (Sealed, error) {
	nonce, err := e.newNonce()
	if err != nil {
		return Sealed{}, err
	}
	ct, err := e.SealWithNonce(key, nonce, plaintext, ad)
	if err != nil {
		return Sealed{}, err
	}
	return Sealed{Nonce: nonce, Ciphertext: ct}, nil
}

func (e *engine) SealFresh(plaintext, ad []byte) ([]byte, Sealed, error) {
	key, err := e.NewKey()
	if err != nil {
		return nil, Sealed{}, err
	}
	s, err := e.Seal(key, plaintext, ad)
	if err != nil {
		common.WipeByteArray(key)
		return nil, Sealed{}, err
	}
	return key, s, nil
}

func (e *engine) Open(key []byte, s Sealed, ad []byte) ([]byte, error) {
	aead, err := e.aead(key)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	if len(s.Nonce) != aead.NonceSize() || len(s.Ciphertext) < aead.Overhead() {
		return nil, common.ErrAuthentication
	}
	plaintext, err := aead.Open(nil, s.Nonce, s.Ciphertext, ad)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	return plaintext, nil
}
