package hull

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// ContainerCreate creates a container with the engine's managed labels
// merged into the config.
func (e *Engine) ContainerCreate(
	ctx context.Context,
	config *container.Config,
	hostConfig *container.HostConfig,
	networkingConfig *network.NetworkingConfig,
	platform *ocispec.Platform,
	name string,
	extraLabels ...map[string]string,
) (container.CreateResponse, error) {
	config.Labels = MergeLabels(
		e.containerLabels(extraLabels...),
		config.Labels,
	)

	resp, err := e.APIClient.ContainerCreate(ctx, config, hostConfig, networkingConfig, platform, name)
	if err != nil {
		return container.CreateResponse{}, ErrContainerCreateFailed(err)
	}
	return resp, nil
}

// ContainerStart starts a managed container.
func (e *Engine) ContainerStart(ctx context.Context, containerID string, opts container.StartOptions) error {
	isManaged, err := e.IsContainerManaged(ctx, containerID)
	if err != nil {
		return ErrContainerStartFailed(containerID, err)
	}
	if !isManaged {
		return ErrContainerNotFound(containerID)
	}
	if err := e.APIClient.ContainerStart(ctx, containerID, opts); err != nil {
		return ErrContainerStartFailed(containerID, err)
	}
	return nil
}

// ContainerRemove removes a managed container.
func (e *Engine) ContainerRemove(ctx context.Context, containerID string, force bool) error {
	isManaged, err := e.IsContainerManaged(ctx, containerID)
	if err != nil {
		return ErrContainerRemoveFailed(containerID, err)
	}
	if !isManaged {
		return ErrContainerNotFound(containerID)
	}
	return e.APIClient.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
}

// ContainerList lists containers matching the filter.
// The managed label filter is automatically injected.
func (e *Engine) ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error) {
	options.Filters = e.injectManagedFilter(options.Filters)
	items, err := e.APIClient.ContainerList(ctx, options)
	if err != nil {
		return nil, ErrContainerListFailed(err)
	}
	return items, nil
}

// ContainerInspect inspects a managed container.
func (e *Engine) ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error) {
	info, err := e.APIClient.ContainerInspect(ctx, containerID)
	if err != nil {
		return types.ContainerJSON{}, ErrContainerNotFound(containerID)
	}
	if info.Config == nil || !e.isManagedLabelPresent(info.Config.Labels) {
		return types.ContainerJSON{}, ErrContainerNotFound(containerID)
	}
	return info, nil
}

// ContainerAttach attaches to a managed container's streams.
func (e *Engine) ContainerAttach(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error) {
	isManaged, err := e.IsContainerManaged(ctx, containerID)
	if err != nil {
		return types.HijackedResponse{}, ErrAttachFailed(err)
	}
	if !isManaged {
		return types.HijackedResponse{}, ErrContainerNotFound(containerID)
	}
	resp, err := e.APIClient.ContainerAttach(ctx, containerID, options)
	if err != nil {
		return types.HijackedResponse{}, ErrAttachFailed(err)
	}
	return resp, nil
}

// ContainerWait waits for a managed container to reach the condition.
func (e *Engine) ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	return e.APIClient.ContainerWait(ctx, containerID, condition)
}

// ContainerResize resizes a managed container's TTY.
func (e *Engine) ContainerResize(ctx context.Context, containerID string, height, width uint) error {
	err := e.APIClient.ContainerResize(ctx, containerID, container.ResizeOptions{
		Height: height,
		Width:  width,
	})
	if err != nil {
		return ErrContainerResizeFailed(containerID, err)
	}
	return nil
}

// IsContainerManaged checks if a container carries the managed label.
func (e *Engine) IsContainerManaged(ctx context.Context, containerID string) (bool, error) {
	info, err := e.APIClient.ContainerInspect(ctx, containerID)
	if err != nil {
		return false, err
	}
	if info.Config == nil {
		return false, nil
	}
	return e.isManagedLabelPresent(info.Config.Labels), nil
}
