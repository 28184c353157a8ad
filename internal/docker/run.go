package docker

import (
	"context"

	"github.com/docker/docker/api/types/container"

	"github.com/smeltlabs/smelt/internal/logger"
)

// RunContainerOpts configures a run container.
type RunContainerOpts struct {
	// Image is the resulting image reference to start a session in.
	Image string

	// Cmd is the command started inside the container.
	Cmd []string

	// Workdir is the working directory for the command.
	Workdir string

	// Env holds extra KEY=VALUE environment entries.
	Env []string

	TTY        bool
	Stdin      bool
	AutoRemove bool

	// Version is the smelt version recorded on the container.
	Version string
}

// CreateRunContainer creates (but does not start) a container for an
// interactive session in a provisioned image.
func (c *Client) CreateRunContainer(ctx context.Context, opts RunContainerOpts) (id, name string, err error) {
	name, runID := RunContainerName()

	config := &container.Config{
		Image:        opts.Image,
		Cmd:          opts.Cmd,
		WorkingDir:   opts.Workdir,
		Env:          opts.Env,
		Tty:          opts.TTY,
		OpenStdin:    opts.Stdin,
		StdinOnce:    opts.Stdin,
		AttachStdin:  opts.Stdin,
		AttachStdout: true,
		AttachStderr: true,
	}
	hostConfig := &container.HostConfig{
		AutoRemove: opts.AutoRemove,
	}

	resp, err := c.ContainerCreate(ctx, config, hostConfig, nil, nil, name,
		ContainerLabels(opts.Image, runID, opts.Version))
	if err != nil {
		return "", "", err
	}

	for _, warning := range resp.Warnings {
		logger.Warn().Str("container", name).Msg(warning)
	}

	logger.Debug().
		Str("container", name).
		Str("image", opts.Image).
		Msg("created run container")

	return resp.ID, name, nil
}

// WaitCondition returns the wait condition appropriate for the container's
// cleanup mode. Auto-removed containers must be waited on until removal,
// or the wait can race container deletion.
func (o RunContainerOpts) WaitCondition() container.WaitCondition {
	if o.AutoRemove {
		return container.WaitConditionRemoved
	}
	return container.WaitConditionNotRunning
}
