package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsFileName is the user settings file name under the config dir.
const SettingsFileName = "settings.yaml"

// Settings holds user-level configuration, loaded from
// ~/.config/smelt/settings.yaml. Everything is optional.
type Settings struct {
	// DefaultBaseImage overrides the built-in default base image for
	// `smelt init`.
	DefaultBaseImage string `yaml:"default_base_image,omitempty"`

	// Logging configures file logging.
	Logging LoggingSettings `yaml:"logging,omitempty"`
}

// LoggingSettings configures the rotating log file.
type LoggingSettings struct {
	FileEnabled *bool `yaml:"file_enabled,omitempty"`
	MaxSizeMB   int   `yaml:"max_size_mb,omitempty"`
	MaxAgeDays  int   `yaml:"max_age_days,omitempty"`
	MaxBackups  int   `yaml:"max_backups,omitempty"`
}

// FileEnabledOrDefault reports whether file logging is enabled,
// defaulting to true when unset.
func (l *LoggingSettings) FileEnabledOrDefault() bool {
	if l.FileEnabled == nil {
		return true
	}
	return *l.FileEnabled
}

// ConfigDir returns the smelt config directory, honoring SMELT_CONFIG_DIR.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SMELT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "smelt"), nil
}

// LogsDir returns the directory for smelt log files.
func LogsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// LoadSettings reads user settings. A missing file yields zero-value
// settings, not an error.
func LoadSettings() (*Settings, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, SettingsFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &s, nil
}
