// Package image groups the image management subcommands.
package image

import (
	"github.com/smeltlabs/smelt/internal/cmd/image/list"
	"github.com/smeltlabs/smelt/internal/cmd/image/remove"
	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/spf13/cobra"
)

// NewCmdImage creates the image management command.
func NewCmdImage(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage smelt-built images",
		Long: `Manage images built by smelt.

Only images carrying smelt's management label are listed or removed;
other images on the daemon are never touched.`,
		Example: `  # List smelt images
  smelt image ls

  # Remove an image
  smelt image rm lab/neuro:latest`,
	}

	cmd.AddCommand(list.NewCmdList(f, nil))
	cmd.AddCommand(remove.NewCmdRemove(f, nil))

	return cmd
}
