// Package remove implements the "smelt image remove" command.
package remove

import (
	"context"
	"fmt"

	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/docker"
	"github.com/smeltlabs/smelt/internal/iostreams"
	"github.com/spf13/cobra"
)

// RemoveOptions contains the options for the remove command.
type RemoveOptions struct {
	IOStreams *iostreams.IOStreams
	Client    func(context.Context) (*docker.Client, error)

	Images []string
	Force  bool
}

// NewCmdRemove creates the image remove command.
func NewCmdRemove(f *cmdutil.Factory, runF func(context.Context, *RemoveOptions) error) *cobra.Command {
	opts := &RemoveOptions{
		IOStreams: f.IOStreams,
		Client:    f.Client,
	}

	cmd := &cobra.Command{
		Use:     "remove IMAGE [IMAGE...]",
		Aliases: []string{"rm"},
		Short:   "Remove one or more smelt-built images",
		Long: `Removes smelt-built images by reference. Images that were not built
by smelt are refused.`,
		Example: `  # Remove an image
  smelt image rm lab/neuro:latest

  # Force removal even when containers reference it
  smelt image rm --force lab/neuro:latest`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Images = args

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return removeRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Force removal of the image")

	return cmd
}

func removeRun(ctx context.Context, opts *RemoveOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	client, err := opts.Client(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, ref := range opts.Images {
		if err := client.RemoveImage(ctx, ref, opts.Force); err != nil {
			failed++
			cmdutil.PrintUserError(ios, err)
			continue
		}
		fmt.Fprintf(ios.Out, "%s Removed %s\n", cs.SuccessIcon(), ref)
	}

	if failed > 0 {
		return cmdutil.SilentError
	}
	return nil
}
