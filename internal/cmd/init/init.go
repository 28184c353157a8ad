package init

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/config"
	"github.com/smeltlabs/smelt/internal/iostreams"
	"github.com/spf13/cobra"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	IOStreams *iostreams.IOStreams
	Settings  func() (*config.Settings, error)

	WorkDir   string
	BaseImage string
	ImageName string
}

// NewCmdInit creates the init command.
func NewCmdInit(f *cmdutil.Factory, runF func(context.Context, *InitOptions) error) *cobra.Command {
	opts := &InitOptions{
		IOStreams: f.IOStreams,
		Settings:  f.Settings,
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter smelt.yaml in the current directory",
		Long: `Writes a commented starter manifest (smelt.yaml) into the current
directory. Edit it to declare your base image, image name, and
provisioning steps, then run 'smelt build'.`,
		Example: `  # Starter manifest with defaults
  smelt init

  # Pick the base image and image name up front
  smelt init --base debian:13 --name lab/worker`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return initRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseImage, "base", "", "Base image for the starter manifest")
	cmd.Flags().StringVar(&opts.ImageName, "name", "", "Image name for the starter manifest")

	return cmd
}

func initRun(_ context.Context, opts *InitOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	base := opts.BaseImage
	if base == "" {
		if settings, err := opts.Settings(); err == nil && settings.DefaultBaseImage != "" {
			base = settings.DefaultBaseImage
		}
	}

	path, err := config.WriteStarterManifest(opts.WorkDir, base, opts.ImageName)
	if err != nil {
		return err
	}

	fmt.Fprintf(ios.Out, "%s Created %s\n", cs.SuccessIcon(), filepath.Base(path))
	fmt.Fprintf(ios.Out, "Edit it to declare your steps, then run %s\n", cs.Bold("smelt build"))
	return nil
}
