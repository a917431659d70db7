package conf

import (
	"os"
	"path/filepath"
)

const appName = "notekeeper"

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order: working directory, user config dir, system dir.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", appName))
	}

	return append(paths, filepath.Join("/etc", appName))
}
