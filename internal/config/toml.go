// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Source   SourceConfig   `toml:"source"`
	Analysis AnalysisConfig `toml:"analysis"`
}

// SourceConfig locates the VRCX database and selects how its timestamps are read.
type SourceConfig struct {
	DB       *string `toml:"db"`
	Table    *string `toml:"table"`
	Timezone *string `toml:"timezone"`
}

// AnalysisConfig maps analysis defaults.
type AnalysisConfig struct {
	Contact           *string `toml:"contact"`
	CircularStability *bool   `toml:"circular-stability"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written when the config command creates a new file.
const Template = `# vrcxinsight configuration

[source]
# db = "/path/to/VRCX.sqlite3"
# table = "usrXXXX_feed_online_offline"
# timezone = "Local"

[analysis]
# contact = ""
# circular-stability = false
`

// EnsureFile creates the config file with Template when it does not exist yet.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}
