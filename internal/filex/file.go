// Package filex resolves where containers live on the host.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the directory created under the per-user data location.
const AppDirName = "clog"

// DefaultDataDir returns the per-user directory for containers:
// $XDG_DATA_HOME/clog if set, the user config directory on macOS and
// Windows, and ~/.local/share/clog elsewhere.
func DefaultDataDir() (string, error) {
	if x := os.Getenv("XDG_DATA_HOME"); x != "" {
		return filepath.Join(x, AppDirName), nil
	}
	switch runtime.GOOS {
	case "darwin", "windows":
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("user config dir: %w", err)
		}
		return filepath.Join(dir, AppDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("user home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", AppDirName), nil
}

// EnsureDir creates dir with owner-only permissions if it does not exist
// and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}
