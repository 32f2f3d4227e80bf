package cli

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/vfs"
	"github.com/spf13/afero"
)

// Mkdir creates each path, with missing parents.
func (a *App) Mkdir(_ context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("mkdir <path>...")
	}
	for _, p := range args {
		if _, err := a.session.MkdirAll(a.cwd, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Touch creates empty files.
func (a *App) Touch(_ context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("touch <path>...")
	}
	for _, p := range args {
		parent, name, err := a.resolveParent(p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if _, err := a.session.CreateFile(parent, name); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Move moves a node into another folder, keeping its name.
func (a *App) Move(_ context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("mv <path> <folder>")
	}
	src, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	dst, err := a.resolve(args[1])
	if err != nil {
		return err
	}
	return a.session.Move(src, dst)
}

func (a *App) Rename(_ context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("rename <path> <new-name>")
	}
	id, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	return a.session.Rename(id, args[1])
}

// Remove deletes a file or a folder with everything below it. Non-empty
// folders need confirmation.
func (a *App) Remove(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("rm <path>")
	}
	id, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	n, err := a.session.Stat(id)
	if err != nil {
		return err
	}
	if n.IsFolder() && n.Size > 0 {
		q := fmt.Sprintf("Delete %s and the %d items in it?", args[0], n.Size)
		if !Confirm(a.reader, q, a.out) {
			return nil
		}
	}
	if err := a.session.Delete(id); err != nil {
		return err
	}
	// the current folder may have been inside the deleted one
	if _, err := a.session.Stat(a.cwd); err != nil {
		a.cwd = vfs.RootID
	}
	return nil
}

// Cat prints a file.
func (a *App) Cat(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("cat <path>")
	}
	id, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	data, err := a.session.ReadFile(id)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(data)

	if _, err := a.out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(a.out)
	}
	return nil
}

// fileFor resolves p to a file, creating an empty one if nothing exists
// there yet.
func (a *App) fileFor(p string) (vfs.NodeID, error) {
	id, err := a.resolve(p)
	if err == nil {
		n, err := a.session.Stat(id)
		if err != nil {
			return 0, err
		}
		if !n.IsFile() {
			return 0, common.ErrNotAFile
		}
		return id, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return 0, err
	}
	parent, name, err := a.resolveParent(p)
	if err != nil {
		return 0, err
	}
	return a.session.CreateFile(parent, name)
}

// Edit opens a file in the external editor, or asks for the new text
// inline when no editor is configured. Unchanged content is not re-sealed.
// A missing file is created only when the edit produced some text.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("edit <path>")
	}

	id, err := a.resolve(args[0])
	if errors.Is(err, common.ErrNotFound) {
		return a.editNew(ctx, args[0])
	}
	if err != nil {
		return err
	}
	n, err := a.session.Stat(id)
	if err != nil {
		return err
	}
	if !n.IsFile() {
		return common.ErrNotAFile
	}

	var changed bool
	err = a.session.Edit(id, func(current []byte) ([]byte, bool, error) {
		out, c, err := a.editText(ctx, current)
		changed = c
		return out, c, err
	})
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(a.out, "No changes.")
	}
	return nil
}

func (a *App) editNew(ctx context.Context, p string) error {
	parent, name, err := a.resolveParent(p)
	if err != nil {
		return err
	}
	if err := vfs.ValidateName(name); err != nil {
		return err
	}

	text, changed, err := a.editText(ctx, nil)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(text)
	if !changed || len(text) == 0 {
		fmt.Fprintln(a.out, "Nothing written, no file created.")
		return nil
	}

	id, err := a.session.CreateFile(parent, name)
	if err != nil {
		return err
	}
	return a.session.WriteFile(id, text)
}

// editText runs the editor on current, or reads replacement text inline
// when no editor is configured.
func (a *App) editText(ctx context.Context, current []byte) ([]byte, bool, error) {
	if a.editor.Available() {
		return a.editor.Edit(ctx, current)
	}
	fmt.Fprintln(a.out, "--- current text ---")
	a.out.Write(current)
	if len(current) > 0 && current[len(current)-1] != '\n' {
		fmt.Fprintln(a.out)
	}
	fmt.Fprintln(a.out, "--- end ---")
	text, err := GetMultiline(a.reader, "Enter the new text", a.out)
	if err != nil {
		return nil, false, err
	}
	return []byte(text), text != string(current), nil
}

// Write replaces a file with typed text.
func (a *App) Write(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("write <path>")
	}
	id, err := a.fileFor(args[0])
	if err != nil {
		return err
	}
	text, err := GetMultiline(a.reader, "Enter text", a.out)
	if err != nil {
		return err
	}
	return a.session.WriteFile(id, []byte(text))
}

// Import copies the bytes of a host file into the container. When the
// target is an existing folder the host file name is kept.
func (a *App) Import(_ context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("import <host-file> <path>")
	}
	data, err := afero.ReadFile(a.hostFs, args[0])
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", common.ErrIO, args[0], err)
	}
	defer common.WipeByteArray(data)

	target := args[1]
	if id, err := a.resolve(target); err == nil {
		if n, err := a.session.Stat(id); err == nil && n.IsFolder() {
			target = path.Join(target, filepath.Base(args[0]))
		}
	}
	id, err := a.fileFor(target)
	if err != nil {
		return err
	}
	if err := a.session.WriteFile(id, data); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d bytes.\n", len(data))
	return nil
}
