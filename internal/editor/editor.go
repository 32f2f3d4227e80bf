// Package editor hands plaintext to an external text editor through a
// short-lived owner-only temp file.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/spf13/afero"
)

// ErrNoEditor is returned when neither the configured command nor
// $VISUAL/$EDITOR name an editor.
var ErrNoEditor = errors.New("no editor configured")

// runCommand is a test seam for exec.Cmd.Run.
var runCommand = func(cmd *exec.Cmd) error { return cmd.Run() }

// Editor runs an external editor on a temp file.
type Editor struct {
	fs      afero.Fs
	command string
	dir     string
}

type Option func(*Editor)

// WithCommand overrides $VISUAL/$EDITOR.
func WithCommand(cmd string) Option { return func(e *Editor) { e.command = cmd } }

// WithTempDir places temp files in dir instead of os.TempDir.
func WithTempDir(dir string) Option { return func(e *Editor) { e.dir = dir } }

func New(opts ...Option) *Editor {
	e := &Editor{fs: afero.NewOsFs()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Command returns the editor command line that Edit would run, split into
// fields, or ErrNoEditor.
func (e *Editor) Command() ([]string, error) {
	for _, c := range []string{e.command, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if f := strings.Fields(c); len(f) > 0 {
			return f, nil
		}
	}
	return nil, ErrNoEditor
}

// Available reports whether Edit can run.
func (e *Editor) Available() bool {
	_, err := e.Command()
	return err == nil
}

// Edit writes content to a 0600 temp file, runs the editor on it and
// returns what the file holds afterwards. changed is false when the bytes
// are identical. The temp file is overwritten with zeros and removed on
// every path.
func (e *Editor) Edit(ctx context.Context, content []byte) (result []byte, changed bool, err error) {
	argv, err := e.Command()
	if err != nil {
		return nil, false, err
	}

	f, err := afero.TempFile(e.fs, e.dir, "clog-*.txt")
	if err != nil {
		return nil, false, fmt.Errorf("%w: temp file: %w", common.ErrIO, err)
	}
	name := f.Name()
	defer e.scrub(name)

	if err := e.fs.Chmod(name, 0o600); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("%w: chmod: %w", common.ErrIO, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("%w: write: %w", common.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return nil, false, fmt.Errorf("%w: close: %w", common.ErrIO, err)
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], name)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := runCommand(cmd); err != nil {
		return nil, false, fmt.Errorf("editor %s: %w", argv[0], err)
	}

	result, err = afero.ReadFile(e.fs, name)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read back: %w", common.ErrIO, err)
	}
	if bytes.Equal(result, content) {
		common.WipeByteArray(result)
		return nil, false, nil
	}
	return result, true, nil
}

func (e *Editor) scrub(name string) {
	if fi, err := e.fs.Stat(name); err == nil && fi.Size() > 0 {
		_ = afero.WriteFile(e.fs, name, make([]byte, fi.Size()), 0o600)
	}
	_ = e.fs.Remove(name)
}
