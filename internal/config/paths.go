package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Paths contains commonly used file paths.
type Paths struct {
	Database string // SQLite database (credentials, search history)
	Config   string // Optional config.yaml
	Logs     string // Log directory
}

// GetPaths returns all commonly used paths based on config.
func GetPaths(cfg *Config) Paths {
	return Paths{
		Database: filepath.Join(cfg.BaseDir, "metascope.db"),
		Config:   filepath.Join(cfg.BaseDir, "config.yaml"),
		Logs:     filepath.Join(cfg.BaseDir, "logs"),
	}
}

// DefaultBaseDir returns METASCOPE_HOME, or the XDG data directory.
func DefaultBaseDir() string {
	if dir := BaseDirFromEnv(); dir != "" {
		return dir
	}
	if xdg.DataHome != "" {
		return filepath.Join(xdg.DataHome, "metascope")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".metascope"
	}
	return filepath.Join(home, ".metascope")
}
