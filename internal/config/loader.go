package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ManifestNotFoundError indicates no manifest file exists at the expected
// path.
type ManifestNotFoundError struct {
	Path string
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found at %s (run 'smelt init' to create one)", e.Path)
}

// Loader handles loading and parsing of smelt manifests.
type Loader struct {
	workDir      string
	manifestPath string
	viper        *viper.Viper
}

// NewLoader creates a manifest loader for the given working directory.
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir: workDir,
		viper:   viper.New(),
	}
}

// WithManifestPath overrides the manifest location. The manifest's root
// directory becomes the file's directory rather than the working
// directory.
func (l *Loader) WithManifestPath(path string) *Loader {
	l.manifestPath = path
	return l
}

// ManifestPath returns the full path to the manifest file.
func (l *Loader) ManifestPath() string {
	if l.manifestPath != "" {
		return l.manifestPath
	}
	return filepath.Join(l.workDir, ManifestFileName)
}

// IgnorePath returns the full path to the ignore file.
func (l *Loader) IgnorePath() string {
	return filepath.Join(l.workDir, IgnoreFileName)
}

// Exists checks if the manifest file exists.
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ManifestPath())
	return err == nil
}

// Load reads and parses the smelt.yaml manifest.
func (l *Loader) Load() (*Manifest, error) {
	manifestPath := l.ManifestPath()

	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		return nil, &ManifestNotFoundError{Path: manifestPath}
	}

	l.viper.SetConfigFile(manifestPath)
	l.viper.SetConfigType("yaml")

	defaults := DefaultManifest()
	l.viper.SetDefault("version", defaults.Version)
	l.viper.SetDefault("image.base", defaults.Image.Base)
	l.viper.SetDefault("workdir", defaults.Workdir)
	l.viper.SetDefault("shell", defaults.Shell)

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := l.viper.Unmarshal(&m, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	// Viper lowercases map keys, but env var names are case-sensitive.
	// Re-read the YAML directly to restore the original key casing.
	if err := l.fixEnvKeyCase(&m, manifestPath); err != nil {
		// Non-fatal; env vars still work with lowercased names.
		_ = err
	}

	// An explicit empty value in the manifest overrides the viper
	// default; treat it as unset so WORKDIR and the run shell are never
	// rendered blank.
	if m.Workdir == "" {
		m.Workdir = defaults.Workdir
	}
	if m.Shell == "" {
		m.Shell = defaults.Shell
	}

	m.SetRootDir(filepath.Dir(manifestPath))
	return &m, nil
}

// fixEnvKeyCase re-reads the YAML to preserve original case for env keys.
func (l *Loader) fixEnvKeyCase(m *Manifest, manifestPath string) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}

	var raw struct {
		Env map[string]string `yaml:"env"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Env) > 0 {
		m.Env = raw.Env
	}
	return nil
}
