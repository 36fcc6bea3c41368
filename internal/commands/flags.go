package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/todod/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFormat  string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "todod", "config.yaml")
}
