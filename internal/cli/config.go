package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigFile is the default name of the config file.
const DefaultConfigFile = "rostersync.conf"

// GetDefaultConfigPath returns the default path for the config file, e.g.
// ~/.config/rostersync/rostersync.conf on Linux.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "rostersync", DefaultConfigFile), nil
}
