// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultDBPath returns where VRCX keeps its database: under %APPDATA% on
// Windows, otherwise under the XDG config home.
func DefaultDBPath() string {
	if v := os.Getenv("APPDATA"); v != "" {
		return filepath.Join(v, "VRCX", "VRCX.sqlite3")
	}
	return filepath.Join(XDGConfigHome(), "VRCX", "VRCX.sqlite3")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "vrcxinsight", "config.toml")
}
