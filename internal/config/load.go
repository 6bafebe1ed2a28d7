package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names a config file when no -config flag is given.
	EnvConfigPath = "MIDGARD_CSM_CONFIG"

	configFileName = "config.yaml"
	appDirName     = "MidgardCSM"  // macOS and Windows
	appDirNameXDG  = "midgard-csm" // Linux and other XDG systems
)

// Load builds the viewer configuration: defaults, then the first config file
// found, then CLI flags. The result is validated before it is returned.
func Load() (*Config, error) {
	cfg := Default()

	if path := findConfigFile(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configCandidates lists config file locations in priority order. An
// explicit -config flag or $MIDGARD_CSM_CONFIG is returned even if the file
// does not exist, so a typo fails loudly instead of silently using defaults.
func configCandidates() (explicit string, search []string) {
	if p := ConfigPath(); p != "" {
		return p, nil
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	return "", []string{
		filepath.Join(".", configFileName),
		UserConfigPath(),
	}
}

// findConfigFile returns the config file to load, or "" to use defaults.
func findConfigFile() string {
	explicit, search := configCandidates()
	if explicit != "" {
		return explicit
	}
	for _, path := range search {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDirName)
		}
		return filepath.Join(home, "AppData", "Roaming", appDirName)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirNameXDG)
	}
	return filepath.Join(home, ".config", appDirNameXDG)
}

// UserConfigPath is the per-user config file written by Save.
func UserConfigPath() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// loadFromFile merges a YAML file over cfg. Unknown keys are rejected so a
// misspelled shadow setting does not silently fall back to its default.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
