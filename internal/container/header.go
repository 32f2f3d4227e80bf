package container

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
	"google.golang.org/protobuf/encoding/protowire"
)

const verifierPlaintext = "clog-verifier-v1"

const (
	fieldVersion        protowire.Number = 1
	fieldCipher         protowire.Number = 2
	fieldKDF            protowire.Number = 3
	fieldSalt           protowire.Number = 4
	fieldCreatedAt      protowire.Number = 5
	fieldVerifierNonce  protowire.Number = 6
	fieldVerifierCipher protowire.Number = 7

	fieldKDFAlgorithm protowire.Number = 1
	fieldKDFTime      protowire.Number = 2
	fieldKDFMemory    protowire.Number = 3
	fieldKDFThreads   protowire.Number = 4
	fieldKDFKeyLen    protowire.Number = 5
	fieldKDFSaltLen   protowire.Number = 6
)

// Header is the plaintext part of a container.
type Header struct {
	Version   uint32
	Cipher    cryptox.CipherSuite
	KDF       cryptox.KDFParams
	Salt      []byte
	CreatedAt time.Time
	Verifier  cryptox.Sealed
}

// NewHeader builds the header of a new container and seals its verifier
// under masterKey.
func NewHeader(e cryptox.Engine, masterKey []byte, p cryptox.KDFParams, salt []byte, createdAt time.Time) (*Header, error) {
	h := &Header{
		Version:   CurrentVersion,
		Cipher:    e.Suite(),
		KDF:       p,
		Salt:      salt,
		CreatedAt: createdAt.UTC().Truncate(time.Second),
	}
	v, err := e.Seal(masterKey, []byte(verifierPlaintext), h.Preamble())
	if err != nil {
		return nil, fmt.Errorf("seal verifier: %w", err)
	}
	h.Verifier = v
	return h, nil
}

// Preamble encodes every header field except the verifier. It is the
// associated data of the verifier.
func (h *Header) Preamble() []byte {
	var kdf []byte
	kdf = appendVarint(kdf, fieldKDFAlgorithm, uint64(h.KDF.Algorithm))
	kdf = appendVarint(kdf, fieldKDFTime, uint64(h.KDF.Time))
	kdf = appendVarint(kdf, fieldKDFMemory, uint64(h.KDF.MemoryKiB))
	kdf = appendVarint(kdf, fieldKDFThreads, uint64(h.KDF.Threads))
	kdf = appendVarint(kdf, fieldKDFKeyLen, uint64(h.KDF.KeyLen))
	kdf = appendVarint(kdf, fieldKDFSaltLen, uint64(h.KDF.SaltLen))

	var b []byte
	b = appendVarint(b, fieldVersion, uint64(h.Version))
	b = appendVarint(b, fieldCipher, uint64(h.Cipher))
	b = appendBytes(b, fieldKDF, kdf)
	b = appendBytes(b, fieldSalt, h.Salt)
	b = appendVarint(b, fieldCreatedAt, protowire.EncodeZigZag(h.CreatedAt.Unix()))
	return b
}

// Marshal encodes the full header.
func (h *Header) Marshal() []byte {
	b := h.Preamble()
	b = appendBytes(b, fieldVerifierNonce, h.Verifier.Nonce)
	b = appendBytes(b, fieldVerifierCipher, h.Verifier.Ciphertext)
	return b
}

func parseHeader(b []byte) (*Header, error) {
	h := &Header{}
	var kdfErr error
	err := eachField(b, func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case fieldVersion:
			h.Version = narrowU32(x)
		case fieldCipher:
			h.Cipher = cryptox.CipherSuite(narrowU8(x))
		case fieldKDF:
			kdfErr = parseKDF(v, &h.KDF)
		case fieldSalt:
			h.Salt = bytes.Clone(v)
		case fieldCreatedAt:
			h.CreatedAt = time.Unix(protowire.DecodeZigZag(x), 0).UTC()
		case fieldVerifierNonce:
			h.Verifier.Nonce = bytes.Clone(v)
		case fieldVerifierCipher:
			h.Verifier.Ciphertext = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, common.ErrAuthentication
	}
	if h.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: version %d", common.ErrInvalidContainer, h.Version)
	}
	if _, err := cryptox.NewEngine(h.Cipher); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidContainer, err)
	}
	if kdfErr != nil {
		return nil, fmt.Errorf("%w: kdf params", common.ErrKeyDerivation)
	}
	if err := h.KDF.Validate(); err != nil {
		return nil, err
	}
	if len(h.Salt) != int(h.KDF.SaltLen) {
		return nil, fmt.Errorf("%w: salt is %d bytes, header says %d", common.ErrKeyDerivation, len(h.Salt), h.KDF.SaltLen)
	}
	return h, nil
}

func parseKDF(b []byte, p *cryptox.KDFParams) error {
	return eachField(b, func(num protowire.Number, _ []byte, x uint64) error {
		switch num {
		case fieldKDFAlgorithm:
			p.Algorithm = cryptox.KDFAlgorithm(narrowU8(x))
		case fieldKDFTime:
			p.Time = narrowU32(x)
		case fieldKDFMemory:
			p.MemoryKiB = narrowU32(x)
		case fieldKDFThreads:
			p.Threads = narrowU8(x)
		case fieldKDFKeyLen:
			p.KeyLen = narrowU32(x)
		case fieldKDFSaltLen:
			p.SaltLen = narrowU32(x)
		}
		return nil
	})
}

// Out of range values decode as zero, which no header field accepts.
func narrowU32(x uint64) uint32 {
	if x > math.MaxUint32 {
		return 0
	}
	return uint32(x)
}

func narrowU8(x uint64) uint8 {
	if x > math.MaxUint8 {
		return 0
	}
	return uint8(x)
}
