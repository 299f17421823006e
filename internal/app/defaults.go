package app

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - DIP_CONFIG_PATH: config file location (default: $XDG_CONFIG_HOME/dip.toml)
//   - DIP_LOG_DIR: log directory (default: $XDG_STATE_HOME/dip/log)
func GetDefaults() map[string]string {
	return map[string]string{
		"config_path": getConfigPath(),
		"log_dir":     getLogDir(),
	}
}

// getConfigPath returns the config file path, checking DIP_CONFIG_PATH env var first,
// then falling back to the XDG config home.
func getConfigPath() string {
	if path := os.Getenv("DIP_CONFIG_PATH"); path != "" {
		return path
	}
	return filepath.Join(xdg.ConfigHome, "dip.toml")
}

// getLogDir returns the log directory, checking DIP_LOG_DIR env var first,
// then falling back to the XDG state home.
func getLogDir() string {
	if path := os.Getenv("DIP_LOG_DIR"); path != "" {
		return path
	}
	return filepath.Join(xdg.StateHome, "dip", "log")
}
