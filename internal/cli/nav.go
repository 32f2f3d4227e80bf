package cli

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/vfs"
)

// journalLayout names the folder created by "today".
const journalLayout = "02-01-2006"

func (a *App) resolve(p string) (vfs.NodeID, error) {
	return a.session.Resolve(a.cwd, p)
}

// resolveParent resolves everything but the last element of p.
func (a *App) resolveParent(p string) (vfs.NodeID, string, error) {
	dir, name := path.Split(p)
	parent, err := a.resolve(dir)
	if err != nil {
		return 0, "", err
	}
	return parent, name, nil
}

func (a *App) printNode(n vfs.Node) {
	if n.IsFolder() {
		fmt.Fprintf(a.out, "  %-30s %d items\n", n.Name+"/", n.Size)
		return
	}
	fmt.Fprintf(a.out, "  %-30s %8d bytes  %s\n", n.Name, n.Size, n.ModifiedAt.Local().Format(dateTimeLayout))
}

// List prints the children of a folder, or a single file.
func (a *App) List(_ context.Context, args []string) error {
	id := a.cwd
	if len(args) > 0 {
		var err error
		if id, err = a.resolve(args[0]); err != nil {
			return err
		}
	}
	n, err := a.session.Stat(id)
	if err != nil {
		return err
	}
	if n.IsFile() {
		a.printNode(n)
		return nil
	}
	children, err := a.session.List(id)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		fmt.Fprintln(a.out, "  (empty)")
	}
	for _, c := range children {
		a.printNode(c)
	}
	return nil
}

func (a *App) cd(id vfs.NodeID) error {
	n, err := a.session.Stat(id)
	if err != nil {
		return err
	}
	if !n.IsFolder() {
		return common.ErrNotAFolder
	}
	a.cwd = id
	return nil
}

// Cd changes the current folder; without arguments it goes to the root.
func (a *App) Cd(_ context.Context, args []string) error {
	if len(args) == 0 {
		a.cwd = vfs.RootID
		return nil
	}
	id, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	return a.cd(id)
}

func (a *App) Pwd(_ context.Context, _ []string) error {
	p, err := a.session.Path(a.cwd)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, p)
	return nil
}

// Tree prints every folder and file, indented by depth.
func (a *App) Tree(_ context.Context, _ []string) error {
	return a.session.Walk(func(p string, n vfs.Node) error {
		if n.ID == vfs.RootID {
			fmt.Fprintln(a.out, "/")
			return nil
		}
		indent := strings.Repeat("  ", strings.Count(p, "/"))
		name := n.Name
		if n.IsFolder() {
			name += "/"
		}
		fmt.Fprintf(a.out, "%s%s\n", indent, name)
		return nil
	})
}

// Today enters the folder named after the current date, creating it under
// the root if needed.
func (a *App) Today(_ context.Context, _ []string) error {
	name := a.now().Format(journalLayout)
	id, err := a.session.MkdirAll(vfs.RootID, name)
	if err != nil {
		return err
	}
	a.cwd = id
	fmt.Fprintf(a.out, "Journal for %s\n", name)
	return nil
}
