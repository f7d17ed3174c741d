package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultAPIURL  = "http://localhost:8080"
	DefaultTimeout = 15 * time.Second
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		APIURL:      DefaultAPIURL,
		Timeout:     DefaultTimeout,
		SessionFile: filepath.Join(Dir(), "session.json"),
	}
}

// Dir is the per-user configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tareas"
	}
	return filepath.Join(home, ".tareas")
}

// DefaultPath returns the path to the config file
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}
