// Package config provides configuration utilities: path expansion and the
// default locations for the config file and database.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultConfigDir returns the directory searched for config.yaml.
func DefaultConfigDir() string {
	return ExpandPath("~/.config/dealhound")
}

// DefaultDatabasePath returns the database location used when
// database.path is not configured.
func DefaultDatabasePath() string {
	return ExpandPath("~/.local/share/dealhound/dealhound.db")
}
