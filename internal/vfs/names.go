package vfs

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
)

const maxNameLen = 255

// ValidateName checks that name can be used for a folder or file.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", common.ErrInvalidName)
	case len(name) > maxNameLen:
		return fmt.Errorf("%w: longer than %d bytes", common.ErrInvalidName, maxNameLen)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is reserved", common.ErrInvalidName, name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("%w: must not contain '/' or NUL", common.ErrInvalidName)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: not valid UTF-8", common.ErrInvalidName)
	}
	return nil
}
