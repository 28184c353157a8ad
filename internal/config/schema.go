// Package config loads and validates smelt manifests and user settings.
package config

import "path/filepath"

// Manifest is the declarative input for a provisioning run: a base image
// reference, metadata, and an ordered list of provisioning steps.
type Manifest struct {
	// Version is the manifest schema version.
	Version string `mapstructure:"version" yaml:"version"`

	// Image names the base image and the resulting image.
	Image ImageConfig `mapstructure:"image" yaml:"image"`

	// Maintainer identifies who owns the image definition.
	Maintainer string `mapstructure:"maintainer" yaml:"maintainer,omitempty"`

	// Comment is free-text documentation carried into the rendered
	// Dockerfile header.
	Comment string `mapstructure:"comment" yaml:"comment,omitempty"`

	// Workdir is the execution root inside the image. Step commands run
	// with this as their working directory.
	Workdir string `mapstructure:"workdir" yaml:"workdir,omitempty"`

	// Context is the host directory relative artifact paths resolve
	// against. Relative to the manifest's directory; defaults to it.
	Context string `mapstructure:"context" yaml:"context,omitempty"`

	// Env holds environment variables baked into the image.
	Env map[string]string `mapstructure:"env" yaml:"env,omitempty"`

	// Shell is the interactive command started by `smelt run`.
	Shell string `mapstructure:"shell" yaml:"shell,omitempty"`

	// Steps are the ordered provisioning steps. Order is significant and
	// fixed at definition time.
	Steps []StepConfig `mapstructure:"steps" yaml:"steps"`

	// rootDir is the directory the manifest was loaded from (not serialized).
	rootDir string
}

// ImageConfig names the base image and the resulting image.
type ImageConfig struct {
	// Base is the starting environment image (externally resolved).
	Base string `mapstructure:"base" yaml:"base"`

	// Name is the repository part of the resulting image tag
	// (e.g. "lab/neuro"). The CLI may add tags on top.
	Name string `mapstructure:"name" yaml:"name"`
}

// StepConfig is one ordered provisioning step: an artifact staged into the
// build context and a command executed against it.
type StepConfig struct {
	// Name labels the step in output and errors. Optional; defaults to
	// the artifact's base name.
	Name string `mapstructure:"name" yaml:"name,omitempty"`

	// Artifact is the path of the file to stage, relative to Context.
	Artifact string `mapstructure:"artifact" yaml:"artifact"`

	// Command is executed in the image after the artifact is staged.
	Command string `mapstructure:"command" yaml:"command"`
}

// Label returns the step's display name, falling back to the artifact's
// base name.
func (s StepConfig) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return filepath.Base(s.Artifact)
}

// RootDir returns the directory the manifest was loaded from, or "" for a
// manifest that was constructed in memory.
func (m *Manifest) RootDir() string {
	return m.rootDir
}

// SetRootDir records the directory the manifest was loaded from.
// Exposed for tests and for loaders.
func (m *Manifest) SetRootDir(dir string) {
	m.rootDir = dir
}

// ContextDir resolves the build context directory against the manifest root.
func (m *Manifest) ContextDir() string {
	ctx := m.Context
	if ctx == "" {
		return m.rootDir
	}
	if !filepath.IsAbs(ctx) {
		ctx = filepath.Join(m.rootDir, ctx)
	}
	return ctx
}
