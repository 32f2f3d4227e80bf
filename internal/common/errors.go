// Package common defines sentinel errors and small helpers shared by all
// clogkeeper layers. Callers should match errors with errors.Is.
package common

import "errors"

var (
	// Cryptographic failures. ErrAuthentication deliberately does not tell a
	// wrong password apart from a corrupted or tampered container.
	ErrAuthentication = errors.New("authentication failed")
	ErrKeyDerivation  = errors.New("invalid key derivation parameters")

	// Tree errors.
	ErrNameConflict = errors.New("name already exists")
	ErrNotFound     = errors.New("not found")
	ErrInvalidMove  = errors.New("invalid move")
	ErrInvalidName  = errors.New("invalid name")
	ErrNotAFile     = errors.New("not a file")
	ErrNotAFolder   = errors.New("not a folder")

	// Session and container errors.
	ErrLocked           = errors.New("session is locked")
	ErrContainerBusy    = errors.New("container is in use by another session")
	ErrContainerExists  = errors.New("container already exists")
	ErrInvalidContainer = errors.New("not a clog container")
	ErrIO               = errors.New("i/o failure")
)

// Describe maps an engine error to a short message suitable for showing to
// the user. Unknown errors are returned as-is.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return "cannot unlock: wrong password or damaged container (a forgotten password cannot be recovered)"
	case errors.Is(err, ErrKeyDerivation):
		return "container header is damaged: key derivation parameters are invalid"
	case errors.Is(err, ErrNameConflict):
		return "an item with this name already exists here"
	case errors.Is(err, ErrNotFound):
		return "no such folder or file"
	case errors.Is(err, ErrInvalidMove):
		return "not allowed: the root folder cannot be changed, and a folder cannot go inside itself or its subfolders"
	case errors.Is(err, ErrInvalidName):
		return "invalid name"
	case errors.Is(err, ErrNotAFile):
		return "not a file"
	case errors.Is(err, ErrNotAFolder):
		return "not a folder"
	case errors.Is(err, ErrLocked):
		return "no container is unlocked"
	case errors.Is(err, ErrContainerBusy):
		return "this container is open in another session"
	case errors.Is(err, ErrContainerExists):
		return "a user with this name already exists"
	case errors.Is(err, ErrInvalidContainer):
		return "file is not a clog container or uses an unsupported version"
	case errors.Is(err, ErrIO):
		return "could not read or write the container: " + err.Error()
	default:
		return err.Error()
	}
}
