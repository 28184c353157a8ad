// Package cmdutil provides shared plumbing for CLI commands: the
// dependency injection factory, error types, and user-facing error
// presentation.
package cmdutil

import (
	"context"

	"github.com/smeltlabs/smelt/internal/config"
	"github.com/smeltlabs/smelt/internal/docker"
	"github.com/smeltlabs/smelt/internal/iostreams"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist, while internal/cmd/factory wires the real
// implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands extract only the fields they
// need into per-command Options structs.
type Factory struct {
	// Configuration from flags (set before command execution)
	WorkDir string
	Debug   bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	// IO streams for input/output (for testability)
	IOStreams *iostreams.IOStreams

	// Dependency providers (closures wired by factory constructor)
	Client      func(context.Context) (*docker.Client, error)
	CloseClient func()

	ConfigLoader func() *config.Loader
	Manifest     func() (*config.Manifest, error)

	Settings func() (*config.Settings, error)
}
