// Package root assembles the smelt root command.
package root

import (
	"github.com/smeltlabs/smelt/internal/cmd/build"
	"github.com/smeltlabs/smelt/internal/cmd/image"
	initcmd "github.com/smeltlabs/smelt/internal/cmd/init"
	"github.com/smeltlabs/smelt/internal/cmd/run"
	versioncmd "github.com/smeltlabs/smelt/internal/cmd/version"
	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/config"
	"github.com/smeltlabs/smelt/internal/logger"
	"github.com/spf13/cobra"
)

// NewCmdRoot creates the root command for the smelt CLI.
func NewCmdRoot(f *cmdutil.Factory, version, commit string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "smelt <command>",
		Short: "Provision tagged images from a base image and ordered steps",
		Long: `Smelt builds container images from a declarative manifest: a base
image plus an ordered list of (artifact, command) provisioning steps.
A step must succeed before the next one starts; the first failure
aborts the run and no image is published.

Quick start:
  smelt init     # Create a starter smelt.yaml
  smelt build    # Run the steps and tag the resulting image
  smelt run      # Start a session in the resulting image`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(version, commit),
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			f.Debug = debug
			initializeLogger(f, debug)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", debug).
				Msg("smelt starting")
		},
		Version: f.Version,
	}

	cmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "Enable debug logging")
	cmd.SetVersionTemplate(versioncmd.Format(version, commit))

	cmd.AddCommand(initcmd.NewCmdInit(f, nil))
	cmd.AddCommand(build.NewCmdBuild(f, nil))
	cmd.AddCommand(run.NewCmdRun(f, nil))
	cmd.AddCommand(image.NewCmdImage(f))
	cmd.AddCommand(versioncmd.NewCmdVersion(f, version, commit))

	return cmd
}

// initializeLogger sets up file logging when settings and the logs
// directory are available, falling back to console-only logging.
func initializeLogger(f *cmdutil.Factory, debug bool) {
	settings, err := f.Settings()
	if err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to load settings")
		return
	}

	logsDir, err := config.LogsDir()
	if err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to resolve logs directory")
		return
	}

	cfg := &logger.FileConfig{
		Enabled:    settings.Logging.FileEnabled,
		MaxSizeMB:  settings.Logging.MaxSizeMB,
		MaxAgeDays: settings.Logging.MaxAgeDays,
		MaxBackups: settings.Logging.MaxBackups,
	}
	if err := logger.InitWithFile(debug, logsDir, cfg); err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
