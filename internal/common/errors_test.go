package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

const invalidMoveMsg = "not allowed: the root folder cannot be changed, and a folder cannot go inside itself or its subfolders"

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "wrapped auth", err: fmt.Errorf("unlock: %w", ErrAuthentication), want: "cannot unlock: wrong password or damaged container (a forgotten password cannot be recovered)"},
		{name: "conflict", err: ErrNameConflict, want: "an item with this name already exists here"},
		{name: "busy", err: fmt.Errorf("lock x: %w", ErrContainerBusy), want: "this container is open in another session"},
		{name: "move into self", err: fmt.Errorf("move \"a\" into itself: %w", ErrInvalidMove), want: invalidMoveMsg},
		{name: "delete root", err: fmt.Errorf("delete root: %w", ErrInvalidMove), want: invalidMoveMsg},
		{name: "unknown", err: errors.New("boom"), want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err))
		})
	}
}

func TestDescribe_IOKeepsCause(t *testing.T) {
	err := fmt.Errorf("%w: rename: %w", ErrIO, errors.New("disk full"))
	assert.Contains(t, Describe(err), "disk full")
}
