package cryptox

import (
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// KDFAlgorithm identifies the password hashing function stored in a
// container header.
type KDFAlgorithm uint8

const (
	KDFArgon2id KDFAlgorithm = 1
)

func (a KDFAlgorithm) String() string {
	switch a {
	case KDFArgon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Limits applied to parameters read back from a header. The header is not
// authenticated until after derivation, so these bound the work a tampered
// file can ask for.
const (
	MasterKeySize = 32
	minSaltLen    = 8
	maxSaltLen    = 1024
	maxTime       = 64
	maxMemoryKiB  = 4 * 1024 * 1024
)

// KDFParams are the non-secret cost parameters of the master key derivation.
type KDFParams struct {
	Algorithm KDFAlgorithm
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

// DefaultKDFParams returns argon2id with 64 MiB of memory and one pass over
// it, using four lanes. New containers record whatever params were in effect
// at creation, so raising these later does not break existing files.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Algorithm: KDFArgon2id,
		Time:      1,
		MemoryKiB: 64 * 1024,
		Threads:   4,
		KeyLen:    MasterKeySize,
		SaltLen:   32,
	}
}

// Validate reports ErrKeyDerivation for parameters that cannot produce a
// usable master key.
func (p KDFParams) Validate() error {
	switch {
	case p.Algorithm != KDFArgon2id:
		return fmt.Errorf("%w: algorithm %s", common.ErrKeyDerivation, p.Algorithm)
	case p.Time == 0 || p.Time > maxTime:
		return fmt.Errorf("%w: time cost %d", common.ErrKeyDerivation, p.Time)
	case p.Threads == 0:
		return fmt.Errorf("%w: zero parallelism", common.ErrKeyDerivation)
	case p.MemoryKiB < 8*uint32(p.Threads) || p.MemoryKiB > maxMemoryKiB:
		return fmt.Errorf("%w: memory cost %d KiB", common.ErrKeyDerivation, p.MemoryKiB)
	case p.KeyLen != MasterKeySize:
		return fmt.Errorf("%w: key length %d", common.ErrKeyDerivation, p.KeyLen)
	case p.SaltLen < minSaltLen || p.SaltLen > maxSaltLen:
		return fmt.Errorf("%w: salt length %d", common.ErrKeyDerivation, p.SaltLen)
	}
	return nil
}

// NewSalt returns p.SaltLen random bytes.
func NewSalt(p KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveMasterKey turns a password and salt into the master key. It is
// deterministic for equal inputs. The password content is never validated:
// an empty password still derives a key. Only malformed params or a salt
// outside the accepted length range fail, with ErrKeyDerivation.
func DeriveMasterKey(password, salt []byte, p KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(salt) < minSaltLen || len(salt) > maxSaltLen {
		return nil, fmt.Errorf("%w: salt of %d bytes", common.ErrKeyDerivation, len(salt))
	}
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen), nil
}
