package editor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubRun(t *testing.T, fn func(cmd *exec.Cmd) error) {
	t.Helper()
	old := runCommand
	runCommand = fn
	t.Cleanup(func() { runCommand = old })
}

func noEnv(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
}

func TestCommand_Precedence(t *testing.T) {
	noEnv(t)
	_, err := New().Command()
	require.ErrorIs(t, err, ErrNoEditor)
	assert.False(t, New().Available())

	t.Setenv("EDITOR", "vi")
	got, err := New().Command()
	require.NoError(t, err)
	assert.Equal(t, []string{"vi"}, got)

	t.Setenv("VISUAL", "code --wait")
	got, err = New().Command()
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "--wait"}, got)

	got, err = New(WithCommand("nano -w")).Command()
	require.NoError(t, err)
	assert.Equal(t, []string{"nano", "-w"}, got)
}

func TestEdit_Changed(t *testing.T) {
	noEnv(t)
	dir := t.TempDir()
	var seen string
	stubRun(t, func(cmd *exec.Cmd) error {
		seen = cmd.Args[len(cmd.Args)-1]
		assert.Equal(t, []string{"ed", "-x", seen}, cmd.Args)

		fi, err := os.Stat(seen)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

		b, err := os.ReadFile(seen)
		require.NoError(t, err)
		assert.Equal(t, "before", string(b))
		return os.WriteFile(seen, []byte("after"), 0o600)
	})

	out, changed, err := New(WithCommand("ed -x"), WithTempDir(dir)).Edit(context.Background(), []byte("before"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "after", string(out))

	assert.Equal(t, dir, filepath.Dir(seen))
	_, err = os.Stat(seen)
	assert.True(t, os.IsNotExist(err), "temp file must be removed")
}

func TestEdit_Unchanged(t *testing.T) {
	noEnv(t)
	stubRun(t, func(cmd *exec.Cmd) error { return nil })

	out, changed, err := New(WithCommand("true"), WithTempDir(t.TempDir())).Edit(context.Background(), []byte("same"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, out)
}

func TestEdit_EditorFails(t *testing.T) {
	noEnv(t)
	dir := t.TempDir()
	stubRun(t, func(cmd *exec.Cmd) error { return errors.New("exit status 1") })

	_, changed, err := New(WithCommand("false"), WithTempDir(dir)).Edit(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.False(t, changed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEdit_NoEditor(t *testing.T) {
	noEnv(t)
	_, _, err := New().Edit(context.Background(), []byte("x"))
	require.ErrorIs(t, err, ErrNoEditor)
}

func TestEdit_BadTempDir(t *testing.T) {
	noEnv(t)
	_, _, err := New(WithCommand("vi"), WithTempDir(filepath.Join(t.TempDir(), "missing"))).Edit(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrIO)
}
