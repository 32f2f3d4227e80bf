package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/storage"
	"github.com/dmitrijs2005/clogkeeper/internal/vfs"
)

// getPassword and getNewPassword are test seams for the terminal prompts.
var (
	getPassword    = GetPassword
	getNewPassword = GetNewPassword
)

const dateTimeLayout = "02-01-2006 15:04"

// Users lists the containers in the data directory together with what the
// profile registry knows about them.
func (a *App) Users(ctx context.Context, _ []string) error {
	names, err := a.manager.ListUsers(a.config.DataDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No users yet. Type 'register' to create one.")
		return nil
	}

	entries, err := a.registry.Reconcile(ctx, names)
	if err != nil {
		a.log.Warn(ctx, "profile registry unavailable", "error", err)
		for _, n := range names {
			fmt.Fprintf(a.out, "  %s\n", n)
		}
		return nil
	}

	fmt.Fprintln(a.out, "Users:")
	for _, e := range entries {
		if e.Profile == nil {
			fmt.Fprintf(a.out, "  %-20s created elsewhere\n", e.Username)
			continue
		}
		line := fmt.Sprintf("  %-20s created %s", e.Username, e.Profile.CreatedAt.Local().Format(dateTimeLayout))
		if !e.Profile.LastOpenedAt.IsZero() {
			line += ", last opened " + e.Profile.LastOpenedAt.Local().Format(dateTimeLayout)
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *App) promptUser(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return GetSimpleText(a.reader, "Enter user name", a.out)
}

// Register creates a container for a new user and unlocks it.
func (a *App) Register(ctx context.Context, args []string) error {
	if a.session != nil {
		return errUnlocked
	}
	name, err := a.promptUser(args)
	if err != nil {
		return err
	}
	if err := vfs.ValidateName(name); err != nil {
		return err
	}

	password, err := getNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	path := storage.ContainerPath(a.config.DataDir, name)
	s, err := a.manager.Register(ctx, path, name, password)
	if err != nil {
		return err
	}
	if err := a.registry.Registered(ctx, name, path, s.CreatedAt()); err != nil {
		a.log.Warn(ctx, "could not record profile", "error", err)
	}

	a.session, a.userName, a.cwd = s, name, vfs.RootID
	fmt.Fprintln(a.out, "Container created. Keep the password safe: it cannot be recovered.")
	return nil
}

// Unlock opens an existing user's container.
func (a *App) Unlock(ctx context.Context, args []string) error {
	if a.session != nil {
		return errUnlocked
	}
	name, err := a.promptUser(args)
	if err != nil {
		return err
	}
	names, err := a.manager.ListUsers(a.config.DataDir)
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		return fmt.Errorf("user %q: %w", name, common.ErrNotFound)
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.manager.Unlock(ctx, storage.ContainerPath(a.config.DataDir, name), password)
	if err != nil {
		return err
	}
	if err := a.registry.Opened(ctx, name, a.now()); err != nil {
		a.log.Warn(ctx, "could not record unlock", "error", err)
	}

	a.session, a.userName, a.cwd = s, name, vfs.RootID
	fmt.Fprintf(a.out, "Unlocked %s.\n", name)
	return nil
}

// Save writes the container to disk.
func (a *App) Save(ctx context.Context, _ []string) error {
	if err := a.session.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved.")
	return nil
}

// Discard drops unsaved changes after confirmation and locks.
func (a *App) Discard(ctx context.Context, _ []string) error {
	if a.session.Dirty() && !Confirm(a.reader, "Drop all unsaved changes?", a.out) {
		return nil
	}
	if err := a.session.Discard(); err != nil {
		return err
	}
	a.dropSession()
	fmt.Fprintln(a.out, "Locked without saving.")
	return nil
}

// Lock saves and locks. On a failed save the container stays unlocked.
func (a *App) Lock(ctx context.Context, _ []string) error {
	if a.session == nil {
		return nil
	}
	if err := a.session.Close(ctx); err != nil {
		return err
	}
	a.dropSession()
	fmt.Fprintln(a.out, "Saved and locked.")
	return nil
}

// Passwd changes the container password.
func (a *App) Passwd(ctx context.Context, _ []string) error {
	oldPassword, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)

	newPassword, err := getNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	if err := a.session.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed.")
	return nil
}
