package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ModeEnvVar overrides the render mode when set to "3d" or "2d".
const ModeEnvVar = "HELIX_GCODE_MODE"

// Load loads configuration with priority: defaults < file < env < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)
	if err := applyFlags(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv applies environment overrides.
func applyEnv(cfg *Config) {
	switch os.Getenv(ModeEnvVar) {
	case "3d", "3D":
		cfg.Graphics.Mode = Mode3D
	case "2d", "2D":
		cfg.Graphics.Mode = Mode2D
	}
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./helixview.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "HelixView")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "HelixView")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "helixview")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "helixview")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
