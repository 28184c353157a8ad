// Package build implements the "smelt build" command.
package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/config"
	"github.com/smeltlabs/smelt/internal/docker"
	"github.com/smeltlabs/smelt/internal/iostreams"
	"github.com/smeltlabs/smelt/internal/provision"
	"github.com/smeltlabs/smelt/pkg/hull"
	"github.com/spf13/cobra"
)

// BuildOptions contains the options for the build command.
type BuildOptions struct {
	IOStreams *iostreams.IOStreams
	Client    func(context.Context) (*docker.Client, error)
	Manifest  func() (*config.Manifest, error)

	WorkDir string
	Version string

	File      string
	Tags      []string
	Force     bool
	NoCache   bool
	Pull      bool
	Quiet     bool
	Labels    []string
	BuildArgs []string
}

// NewCmdBuild creates the build command.
func NewCmdBuild(f *cmdutil.Factory, runF func(context.Context, *BuildOptions) error) *cobra.Command {
	opts := &BuildOptions{
		IOStreams: f.IOStreams,
		Client:    f.Client,
		Manifest:  f.Manifest,
	}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the image declared by smelt.yaml",
		Long: `Runs the manifest's provisioning steps in order against the base image
and tags the result. A step must succeed before the next one starts;
the first failure aborts the run and no image is published.

Builds are content-addressed: when neither the manifest nor any staged
artifact changed since the last successful run, the build is skipped
and the existing image is retagged.`,
		Example: `  # Build the manifest in the current directory
  smelt build

  # Force a rebuild even when nothing changed
  smelt build --force

  # Tag the result explicitly
  smelt build -t lab/neuro:v2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir
			opts.Version = f.Version

			if opts.File != "" {
				opts.Manifest = func() (*config.Manifest, error) {
					return config.NewLoader(f.WorkDir).WithManifestPath(opts.File).Load()
				}
			}

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			if err := buildRun(cmd.Context(), opts); err != nil {
				cmdutil.PrintUserError(opts.IOStreams, err)
				return cmdutil.SilentError
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Path to the manifest (default ./smelt.yaml)")
	cmd.Flags().StringArrayVarP(&opts.Tags, "tag", "t", nil, "Tag for the resulting image (repeatable, default <name>:latest)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rebuild even when inputs are unchanged")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Disable the daemon layer cache")
	cmd.Flags().BoolVar(&opts.Pull, "pull", false, "Always attempt to pull a newer base image")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress step progress output")
	cmd.Flags().StringArrayVar(&opts.Labels, "label", nil, "Extra image label (key=value, repeatable)")
	cmd.Flags().StringArrayVar(&opts.BuildArgs, "build-arg", nil, "Build-time variable (key=value, repeatable)")

	return cmd
}

func buildRun(ctx context.Context, opts *BuildOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	manifest, err := opts.Manifest()
	if err != nil {
		return err
	}

	validator := config.NewValidator(manifest.RootDir())
	if err := validator.Validate(manifest); err != nil {
		return err
	}
	for _, w := range validator.Warnings() {
		cmdutil.PrintWarning(ios, "%s", w)
	}

	labels, err := parseKeyValues(opts.Labels, "label")
	if err != nil {
		return err
	}
	buildArgs, err := parseKeyValues(opts.BuildArgs, "build-arg")
	if err != nil {
		return err
	}

	client, err := opts.Client(ctx)
	if err != nil {
		return err
	}

	plan := provision.FromManifest(manifest)
	builder := docker.NewBuilder(client, plan, opts.Version)

	progress := newProgressPrinter(ios, opts.Quiet)
	defer progress.finish()

	var primaryTag string
	if len(opts.Tags) > 0 {
		primaryTag = opts.Tags[0]
	}

	result, err := builder.EnsureImage(ctx, docker.BuildOptions{
		Tag:       primaryTag,
		Force:     opts.Force,
		NoCache:   opts.NoCache,
		Pull:      opts.Pull,
		Labels:    labels,
		BuildArgs: pointerValues(buildArgs),
		OnStep:    progress.onStep,
	})
	if err != nil {
		return err
	}
	progress.finish()

	// Extra tags point at the same image as the primary one.
	if len(opts.Tags) > 1 {
		for _, extra := range opts.Tags[1:] {
			if err := client.TagImage(ctx, result.ImageRef, extra); err != nil {
				return fmt.Errorf("failed to apply tag %s: %w", extra, err)
			}
		}
	}

	if result.Skipped {
		fmt.Fprintf(ios.Out, "%s Image up to date: %s (%s)\n", cs.SuccessIcon(), cs.Bold(result.ImageRef), result.Hash)
		return nil
	}
	fmt.Fprintf(ios.Out, "%s Built %s (%s)\n", cs.SuccessIcon(), cs.Bold(result.ImageRef), result.Hash)
	return nil
}

// progressPrinter renders plan-step progress. On a TTY it drives the
// spinner with a per-step label; otherwise it prints one line per step.
type progressPrinter struct {
	ios      *iostreams.IOStreams
	quiet    bool
	lastStep int
	spinning bool
}

func newProgressPrinter(ios *iostreams.IOStreams, quiet bool) *progressPrinter {
	return &progressPrinter{ios: ios, quiet: quiet, lastStep: -1}
}

func (p *progressPrinter) onStep(ev docker.StepProgress) {
	if p.quiet {
		return
	}

	if ev.Status == hull.BuildStepRunning && ev.Step != p.lastStep {
		p.lastStep = ev.Step
		label := fmt.Sprintf("[%d/%d] %s", ev.Step, ev.TotalSteps, ev.Label)
		if ev.Step == 0 {
			label = fmt.Sprintf("[0/%d] %s", ev.TotalSteps, ev.Label)
		}

		if p.ios.IsStderrTTY() {
			p.ios.StartProgressIndicatorWithLabel(label)
			p.spinning = true
		} else {
			fmt.Fprintln(p.ios.ErrOut, label)
		}
		return
	}

	if ev.Status == hull.BuildStepCached && ev.Step == p.lastStep && !p.ios.IsStderrTTY() {
		fmt.Fprintf(p.ios.ErrOut, "  cached\n")
	}
}

func (p *progressPrinter) finish() {
	if p.spinning {
		p.ios.StopProgressIndicator()
		p.spinning = false
	}
}

// parseKeyValues parses repeated key=value flag values into a map.
func parseKeyValues(pairs []string, flag string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, cmdutil.FlagErrorf("invalid --%s %q: expected key=value", flag, pair)
		}
		out[key] = value
	}
	return out, nil
}

func pointerValues(m map[string]string) map[string]*string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]*string, len(m))
	for k, v := range m {
		v := v
		out[k] = &v
	}
	return out
}
