// Package storage is the only place that touches the host filesystem on
// behalf of a session: whole-file reads, atomic replacement and the
// advisory lock that keeps a second session off an open container.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/spf13/afero"
)

// Extension is the file name suffix of containers.
const Extension = ".clog"

// ContainerPath returns the container path of a user inside dir.
func ContainerPath(dir, username string) string {
	return filepath.Join(dir, username+Extension)
}

// Store reads and atomically writes container files.
type Store struct {
	fs afero.Fs
}

// New returns a Store on top of fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

func (s *Store) Fs() afero.Fs { return s.fs }

// Exists reports whether a regular file is present at path.
func (s *Store) Exists(path string) (bool, error) {
	fi, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %w", common.ErrIO, path, err)
	}
	return !fi.IsDir(), nil
}

// ReadFile returns the whole content of path. A missing file is reported
// as ErrNotFound, any other failure as ErrIO.
func (s *Store) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, common.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrIO, path, err)
	}
	return data, nil
}

// WriteAtomic replaces path with data. The data goes to a temporary file in
// the same directory, which is synced, closed and then renamed over path.
// On any failure the temporary file is removed and path is left as it was.
func (s *Store) WriteAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: ensuring directory %s: %w", common.ErrIO, dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", common.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %w", common.ErrIO, tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", common.ErrIO, tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", common.ErrIO, tmpName, err)
	}
	if err = s.fs.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", common.ErrIO, tmpName, err)
	}
	if err = s.fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename %s: %w", common.ErrIO, tmpName, err)
	}
	return nil
}

// ListContainers returns the usernames that have a container in dir,
// sorted. A missing dir holds no containers.
func (s *Store) ListContainers(dir string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", common.ErrIO, dir, err)
	}
	var users []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, Extension) {
			continue
		}
		if u := strings.TrimSuffix(name, Extension); u != "" {
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users, nil
}
