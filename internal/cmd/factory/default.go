// Package factory wires the real dependency implementations into a
// cmdutil.Factory. It is imported only by the CLI entry point; tests
// construct a bare &cmdutil.Factory{} instead.
package factory

import (
	"context"
	"os"
	"sync"

	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/config"
	"github.com/smeltlabs/smelt/internal/docker"
	"github.com/smeltlabs/smelt/internal/iostreams"
)

// New creates a fully-wired Factory with lazy dependency closures.
// Called exactly once at the CLI entry point.
func New(version, commit string) *cmdutil.Factory {
	ios := iostreams.System()

	f := &cmdutil.Factory{
		Version:   version,
		Commit:    commit,
		IOStreams: ios,
	}

	if wd, err := os.Getwd(); err == nil {
		f.WorkDir = wd
	}

	// Docker client
	var (
		clientOnce sync.Once
		client     *docker.Client
		clientErr  error
	)
	f.Client = func(ctx context.Context) (*docker.Client, error) {
		clientOnce.Do(func() {
			client, clientErr = docker.NewClient(ctx)
		})
		return client, clientErr
	}
	f.CloseClient = func() {
		if client != nil {
			_ = client.Close()
		}
	}

	// Manifest
	var (
		manifestOnce sync.Once
		loader       *config.Loader
		manifest     *config.Manifest
		manifestErr  error
	)
	f.ConfigLoader = func() *config.Loader {
		manifestOnce.Do(func() {
			loader = config.NewLoader(f.WorkDir)
		})
		return loader
	}
	f.Manifest = func() (*config.Manifest, error) {
		if manifest != nil || manifestErr != nil {
			return manifest, manifestErr
		}
		manifest, manifestErr = f.ConfigLoader().Load()
		return manifest, manifestErr
	}

	// Settings
	var (
		settingsOnce sync.Once
		settings     *config.Settings
		settingsErr  error
	)
	f.Settings = func() (*config.Settings, error) {
		settingsOnce.Do(func() {
			settings, settingsErr = config.LoadSettings()
		})
		return settings, settingsErr
	}

	return f
}
