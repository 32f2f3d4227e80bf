// Package container encodes and decodes the single-file container format.
//
// A container is the 4 byte magic "CLOG" followed by one protobuf wire
// message:
//
//	1 header (bytes, see Header)
//	2 metadata nonce
//	3 metadata ciphertext
//	4 content section, repeated (1 content id, 2 nonce, 3 ciphertext)
//	5 save salt
//
// The header is plaintext. It carries the format version, the cipher suite,
// the KDF parameters and salt, and a verifier sealed under the master key
// that rejects a wrong password before anything else is opened. Unknown
// fields are skipped.
package container

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	Magic          = "CLOG"
	CurrentVersion = uint32(1)
)

// top level fields
const (
	fieldHeader        protowire.Number = 1
	fieldMetaNonce     protowire.Number = 2
	fieldMetaCipher    protowire.Number = 3
	fieldSection       protowire.Number = 4
	fieldSaveSalt      protowire.Number = 5
	fieldSectionID     protowire.Number = 1
	fieldSectionNonce  protowire.Number = 2
	fieldSectionCipher protowire.Number = 3
)

var errMalformed = errors.New("malformed container")

// Section is one sealed file content.
type Section struct {
	ContentID string
	Sealed    cryptox.Sealed
}

// File is a parsed container. Nothing in it has been decrypted.
type File struct {
	Header   *Header
	SaveSalt []byte
	Metadata cryptox.Sealed
	Sections []Section

	// header bytes exactly as stored; the metadata is bound to them
	rawHeader []byte
}

func (f *File) headerBytes() []byte {
	if f.rawHeader == nil {
		f.rawHeader = f.Header.Marshal()
	}
	return f.rawHeader
}

// Marshal encodes the container.
func (f *File) Marshal() []byte {
	b := []byte(Magic)
	b = appendBytes(b, fieldHeader, f.headerBytes())
	b = appendBytes(b, fieldMetaNonce, f.Metadata.Nonce)
	b = appendBytes(b, fieldMetaCipher, f.Metadata.Ciphertext)
	for _, s := range f.Sections {
		var sb []byte
		sb = appendBytes(sb, fieldSectionID, []byte(s.ContentID))
		sb = appendBytes(sb, fieldSectionNonce, s.Sealed.Nonce)
		sb = appendBytes(sb, fieldSectionCipher, s.Sealed.Ciphertext)
		b = appendBytes(b, fieldSection, sb)
	}
	b = appendBytes(b, fieldSaveSalt, f.SaveSalt)
	return b
}

// Parse decodes a container without decrypting anything.
//
// It returns ErrInvalidContainer when data is not a container of a
// supported version, ErrKeyDerivation when the stored KDF parameters are
// unusable, and ErrAuthentication for any other damage.
func Parse(data []byte) (*File, error) {
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, fmt.Errorf("%w: bad magic", common.ErrInvalidContainer)
	}
	f := &File{}
	var sawHeader bool
	err := eachField(data[len(Magic):], func(num protowire.Number, v []byte, _ uint64) error {
		switch num {
		case fieldHeader:
			sawHeader = true
			f.rawHeader = bytes.Clone(v)
		case fieldMetaNonce:
			f.Metadata.Nonce = bytes.Clone(v)
		case fieldMetaCipher:
			f.Metadata.Ciphertext = bytes.Clone(v)
		case fieldSaveSalt:
			f.SaveSalt = bytes.Clone(v)
		case fieldSection:
			s, err := parseSection(v)
			if err != nil {
				return err
			}
			f.Sections = append(f.Sections, s)
		}
		return nil
	})
	if err != nil || !sawHeader {
		return nil, common.ErrAuthentication
	}

	h, err := parseHeader(f.rawHeader)
	if err != nil {
		return nil, err
	}
	f.Header = h
	return f, nil
}

func parseSection(b []byte) (Section, error) {
	var s Section
	err := eachField(b, func(num protowire.Number, v []byte, _ uint64) error {
		switch num {
		case fieldSectionID:
			s.ContentID = string(v)
		case fieldSectionNonce:
			s.Sealed.Nonce = bytes.Clone(v)
		case fieldSectionCipher:
			s.Sealed.Ciphertext = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return Section{}, err
	}
	if s.ContentID == "" {
		return Section{}, errMalformed
	}
	return s, nil
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// eachField calls fn for every varint and length-delimited field in b.
// Fields of other wire types are skipped. For bytes fields x is zero, for
// varint fields v is nil.
func eachField(b []byte, fn func(num protowire.Number, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if err := fn(num, v, 0); err != nil {
				return err
			}
			n = m
		case protowire.VarintType:
			x, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			if err := fn(num, nil, x); err != nil {
				return err
			}
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
		}
		b = b[n:]
	}
	return nil
}
