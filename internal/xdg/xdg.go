// Package xdg resolves XDG Base Directory paths for tenantforge.
// Config holds settings, data holds the project store. Both fall back to the
// conventional locations under the home directory when the XDG variables are
// unset, and both are created private (0700).
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "tenantforge"

// ConfigDir returns $XDG_CONFIG_HOME/tenantforge or ~/.config/tenantforge.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/tenantforge or ~/.local/share/tenantforge.
func DataDir() (string, error) {
	return dir("XDG_DATA_HOME", ".local", "share")
}

func dir(env string, fallback ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	d := filepath.Join(base, appName)
	if err := os.MkdirAll(d, 0o700); err != nil { // private dir
		return "", err
	}
	return d, nil
}
