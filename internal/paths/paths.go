// Package paths resolves the platform directories used for dynamic and
// secure storage locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDir returns the per-user configuration directory, e.g.
// ~/.config on Linux.
func ConfigDir() (string, error) {
	return os.UserConfigDir()
}

// DataDir returns the per-user data directory, e.g. ~/.local/share on Linux.
// The standard library has no equivalent of os.UserConfigDir for data
// directories, so the XDG convention is resolved here.
func DataDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		if dir := os.Getenv("LocalAppData"); dir != "" {
			return dir, nil
		}
		return os.UserConfigDir()
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// AppDir joins a base platform directory with the organization and
// application identifiers.
func AppDir(base, org, app string) string {
	return filepath.Join(base, org, app)
}
