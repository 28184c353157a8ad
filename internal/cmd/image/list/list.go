// Package list implements the "smelt image list" command.
package list

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/docker"
	"github.com/smeltlabs/smelt/internal/iostreams"
	"github.com/spf13/cobra"
)

// ListOptions contains the options for the list command.
type ListOptions struct {
	IOStreams *iostreams.IOStreams
	Client    func(context.Context) (*docker.Client, error)

	Name  string
	JSON  bool
	Quiet bool
}

// NewCmdList creates the image list command.
func NewCmdList(f *cmdutil.Factory, runF func(context.Context, *ListOptions) error) *cobra.Command {
	opts := &ListOptions{
		IOStreams: f.IOStreams,
		Client:    f.Client,
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List smelt-built images",
		Example: `  # List all smelt images
  smelt image ls

  # Only images built for one manifest image name
  smelt image ls --name lab/neuro

  # Machine-readable output
  smelt image ls --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return listRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Only show images built for this image name")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Only show image IDs")

	return cmd
}

// imageRow is the shape exposed by --json output.
type imageRow struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Base    string   `json:"base"`
	Hash    string   `json:"hash"`
	Tags    []string `json:"tags"`
	Created string   `json:"created"`
	Size    string   `json:"size"`
}

func listRun(ctx context.Context, opts *ListOptions) error {
	ios := opts.IOStreams

	client, err := opts.Client(ctx)
	if err != nil {
		return err
	}

	var images []docker.Image
	if opts.Name != "" {
		images, err = client.ListImagesByName(ctx, opts.Name)
	} else {
		images, err = client.ListImages(ctx)
	}
	if err != nil {
		return err
	}

	if opts.Quiet {
		for _, img := range images {
			fmt.Fprintln(ios.Out, truncateID(img.ID))
		}
		return nil
	}

	rows := make([]imageRow, 0, len(images))
	for _, img := range images {
		rows = append(rows, imageRow{
			ID:      truncateID(img.ID),
			Name:    img.Name,
			Base:    img.Base,
			Hash:    img.Hash,
			Tags:    img.Tags,
			Created: time.Unix(img.Created, 0).UTC().Format(time.RFC3339),
			Size:    units.HumanSize(float64(img.Size)),
		})
	}

	if opts.JSON {
		return cmdutil.OutputJSON(ios, rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(ios.ErrOut, "No smelt images found.")
		return nil
	}

	tw := tabwriter.NewWriter(ios.Out, 2, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTAGS\tHASH\tBASE\tCREATED\tSIZE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, strings.Join(r.Tags, ","), r.Hash, r.Base, r.Created, r.Size)
	}
	return tw.Flush()
}

func truncateID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
