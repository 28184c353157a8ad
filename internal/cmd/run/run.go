// Package run implements the "smelt run" command.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/shlex"
	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/config"
	"github.com/smeltlabs/smelt/internal/docker"
	"github.com/smeltlabs/smelt/internal/iostreams"
	"github.com/smeltlabs/smelt/internal/logger"
	"github.com/smeltlabs/smelt/internal/provision"
	"github.com/smeltlabs/smelt/internal/signals"
	"github.com/smeltlabs/smelt/internal/term"
	"github.com/spf13/cobra"
)

// RunOptions contains the options for the run command.
type RunOptions struct {
	IOStreams *iostreams.IOStreams
	Client    func(context.Context) (*docker.Client, error)
	Manifest  func() (*config.Manifest, error)

	WorkDir string
	Version string

	Command []string
	Env     []string
	Workdir string
	NoBuild bool
	Force   bool
	Keep    bool
	Quiet   bool
}

// NewCmdRun creates the run command.
func NewCmdRun(f *cmdutil.Factory, runF func(context.Context, *RunOptions) error) *cobra.Command {
	opts := &RunOptions{
		IOStreams: f.IOStreams,
		Client:    f.Client,
		Manifest:  f.Manifest,
	}

	cmd := &cobra.Command{
		Use:   "run [COMMAND [ARG...]]",
		Short: "Run a command in the image declared by smelt.yaml",
		Long: `Ensures the manifest's image is built and up to date, then starts a
container in it running COMMAND. Without a command, an interactive
session with the manifest's shell is started.

A single COMMAND argument containing spaces is split shell-style.`,
		Example: `  # Interactive shell in the provisioned image
  smelt run

  # One-off command
  smelt run python3 train.py

  # Shell-style splitting of a quoted command
  smelt run "ls -la /opt/smelt"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir
			opts.Version = f.Version
			opts.Command = args

			if len(args) == 1 {
				split, err := shlex.Split(args[0])
				if err != nil {
					return cmdutil.FlagErrorf("invalid command %q: %v", args[0], err)
				}
				opts.Command = split
			}

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			err := runRun(cmd.Context(), opts)
			if err == nil {
				return nil
			}
			var exitErr *cmdutil.ExitError
			if errors.As(err, &exitErr) {
				return err
			}
			cmdutil.PrintUserError(opts.IOStreams, err)
			return cmdutil.SilentError
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringArrayVarP(&opts.Env, "env", "e", nil, "Extra environment variable (KEY=VALUE, repeatable)")
	cmd.Flags().StringVarP(&opts.Workdir, "workdir", "w", "", "Working directory inside the container")
	cmd.Flags().BoolVar(&opts.NoBuild, "no-build", false, "Use the existing image without checking freshness")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rebuild the image even when inputs are unchanged")
	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "Keep the container after it exits")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress build progress output")

	return cmd
}

func runRun(ctx context.Context, opts *RunOptions) error {
	ios := opts.IOStreams

	ctx, cancel := signals.NotifyContext(ctx)
	defer cancel()

	manifest, err := opts.Manifest()
	if err != nil {
		return err
	}
	validator := config.NewValidator(manifest.RootDir())
	if err := validator.Validate(manifest); err != nil {
		return err
	}

	client, err := opts.Client(ctx)
	if err != nil {
		return err
	}

	plan := provision.FromManifest(manifest)

	imageRef, err := ensureImage(ctx, opts, client, plan)
	if err != nil {
		return err
	}

	cmdline := opts.Command
	if len(cmdline) == 0 {
		// The manifest shell may carry arguments ("/bin/bash -l").
		cmdline, err = shlex.Split(manifest.Shell)
		if err != nil || len(cmdline) == 0 {
			return fmt.Errorf("manifest shell %q is not a valid command", manifest.Shell)
		}
	}
	workdir := opts.Workdir
	if workdir == "" {
		workdir = manifest.Workdir
	}

	tty := ios.IsInputTTY() && ios.IsOutputTTY()

	runOpts := docker.RunContainerOpts{
		Image:      imageRef,
		Cmd:        cmdline,
		Workdir:    workdir,
		Env:        opts.Env,
		TTY:        tty,
		Stdin:      true,
		AutoRemove: !opts.Keep,
		Version:    opts.Version,
	}

	id, name, err := client.CreateRunContainer(ctx, runOpts)
	if err != nil {
		return err
	}

	// Wait registration must precede start, or a fast-exiting auto-removed
	// container can be gone before the wait attaches.
	waitCh, waitErrCh := client.ContainerWait(ctx, id, runOpts.WaitCondition())

	hijacked, err := client.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return err
	}
	defer hijacked.Close()

	if err := client.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return err
	}

	logger.Debug().Str("container", name).Str("image", imageRef).Msg("run session started")

	return attachAndWait(ctx, opts, client, id, tty, hijacked, waitCh, waitErrCh)
}

// ensureImage brings the manifest's image up to date and returns the
// reference to run.
func ensureImage(ctx context.Context, opts *RunOptions, client *docker.Client, plan provision.Plan) (string, error) {
	if opts.NoBuild {
		name, err := docker.NormalizeImageName(plan.ImageName)
		if err != nil {
			return "", err
		}
		ref := docker.ImageRef(name, docker.DefaultTag)
		exists, err := client.ImageExists(ctx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", fmt.Errorf("image %s does not exist; run 'smelt build' first or drop --no-build", ref)
		}
		return ref, nil
	}

	ios := opts.IOStreams
	builder := docker.NewBuilder(client, plan, opts.Version)

	var result *docker.BuildResult
	build := func() error {
		var err error
		result, err = builder.EnsureImage(ctx, docker.BuildOptions{
			Force: opts.Force,
		})
		return err
	}

	if opts.Quiet || !ios.IsStderrTTY() {
		if err := build(); err != nil {
			return "", err
		}
	} else if err := ios.RunWithProgress("Preparing image", build); err != nil {
		return "", err
	}

	if !result.Skipped {
		cmdutil.PrintStatus(ios, opts.Quiet, "Built %s (%s)", result.ImageRef, result.Hash)
	}
	return result.ImageRef, nil
}

// attachAndWait streams container I/O until the session ends and maps the
// container's exit status onto the process exit code.
func attachAndWait(
	ctx context.Context,
	opts *RunOptions,
	client *docker.Client,
	containerID string,
	tty bool,
	hijacked types.HijackedResponse,
	waitCh <-chan container.WaitResponse,
	waitErrCh <-chan error,
) error {
	ios := opts.IOStreams

	if tty {
		pty := term.NewPTYHandler()
		if err := pty.Setup(); err != nil {
			return fmt.Errorf("failed to set up terminal: %w", err)
		}
		defer pty.Restore()

		resizeFunc := func(height, width uint) error {
			return client.ContainerResize(ctx, containerID, height, width)
		}

		rawMode := term.NewRawModeStdin()
		resize := signals.NewResizeHandler(resizeFunc, rawMode.GetSize)
		resize.Start()
		defer resize.Stop()

		streamDone := make(chan error, 1)
		go func() {
			streamDone <- pty.StreamWithResize(ctx, hijacked, resizeFunc)
		}()

		select {
		case result := <-waitCh:
			return waitOutcome(result)
		case err := <-waitErrCh:
			return err
		case err := <-streamDone:
			if err != nil {
				return err
			}
			// Stream closed cleanly; pick up the exit status.
			select {
			case result := <-waitCh:
				return waitOutcome(result)
			case err := <-waitErrCh:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Non-TTY: the stream is multiplexed, demux stdout/stderr.
	outputDone := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(ios.Out, ios.ErrOut, hijacked.Reader)
		close(outputDone)
	}()
	go func() {
		_, _ = io.Copy(hijacked.Conn, ios.In)
		_ = hijacked.CloseWrite()
	}()

	select {
	case result := <-waitCh:
		<-outputDone
		return waitOutcome(result)
	case err := <-waitErrCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waitOutcome converts a container wait response into the command result.
func waitOutcome(result container.WaitResponse) error {
	if result.Error != nil {
		return fmt.Errorf("container exit error: %s", result.Error.Message)
	}
	if result.StatusCode != 0 {
		return &cmdutil.ExitError{Code: int(result.StatusCode)}
	}
	return nil
}
