// Package hulltest provides test doubles for hull.
package hulltest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// FakeAPIClient is a test double for client.APIClient using the
// function-field pattern (Docker CLI convention). Each SDK method hull
// calls has a corresponding Fn field. If the field is set, the fake
// delegates to it and records the call. If the field is nil, the call
// panics with "not implemented: MethodName".
//
// The embedded *client.Client (nil) satisfies the rest of the APIClient
// interface; any method not overridden here panics on nil dereference,
// providing fail-loud behavior for unexpected calls.
type FakeAPIClient struct {
	*client.Client

	mu sync.Mutex

	// Calls records the method names invoked on this fake, in order.
	Calls []string

	PingFn func(ctx context.Context) (types.Ping, error)

	ImageBuildFn          func(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageInspectWithRawFn func(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	ImageListFn           func(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImageRemoveFn         func(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)
	ImageTagFn            func(ctx context.Context, source, target string) error
	ImagePullFn           func(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)

	ContainerCreateFn  func(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, name string) (container.CreateResponse, error)
	ContainerStartFn   func(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerListFn    func(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspectFn func(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerAttachFn  func(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error)
	ContainerWaitFn    func(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerRemoveFn  func(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerResizeFn  func(ctx context.Context, containerID string, options container.ResizeOptions) error
}

// record appends a method name to the call log (thread-safe).
func (f *FakeAPIClient) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, method)
}

func notImplemented(method string) string {
	return fmt.Sprintf("not implemented: %s — set %sFn on FakeAPIClient", method, method)
}

// Reset clears the call log.
func (f *FakeAPIClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

// CallCount returns the number of recorded calls to method.
func (f *FakeAPIClient) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeAPIClient) Ping(ctx context.Context) (types.Ping, error) {
	f.record("Ping")
	if f.PingFn == nil {
		return types.Ping{}, nil
	}
	return f.PingFn(ctx)
}

// Close is a no-op so engines wrapping the fake can be closed safely.
func (f *FakeAPIClient) Close() error {
	f.record("Close")
	return nil
}

func (f *FakeAPIClient) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	f.record("ImageBuild")
	if f.ImageBuildFn == nil {
		panic(notImplemented("ImageBuild"))
	}
	return f.ImageBuildFn(ctx, buildContext, options)
}

func (f *FakeAPIClient) ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error) {
	f.record("ImageInspectWithRaw")
	if f.ImageInspectWithRawFn == nil {
		panic(notImplemented("ImageInspectWithRaw"))
	}
	return f.ImageInspectWithRawFn(ctx, imageID)
}

func (f *FakeAPIClient) ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error) {
	f.record("ImageList")
	if f.ImageListFn == nil {
		panic(notImplemented("ImageList"))
	}
	return f.ImageListFn(ctx, options)
}

func (f *FakeAPIClient) ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error) {
	f.record("ImageRemove")
	if f.ImageRemoveFn == nil {
		panic(notImplemented("ImageRemove"))
	}
	return f.ImageRemoveFn(ctx, imageID, options)
}

func (f *FakeAPIClient) ImageTag(ctx context.Context, source, target string) error {
	f.record("ImageTag")
	if f.ImageTagFn == nil {
		panic(notImplemented("ImageTag"))
	}
	return f.ImageTagFn(ctx, source, target)
}

func (f *FakeAPIClient) ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error) {
	f.record("ImagePull")
	if f.ImagePullFn == nil {
		panic(notImplemented("ImagePull"))
	}
	return f.ImagePullFn(ctx, ref, options)
}

func (f *FakeAPIClient) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, name string) (container.CreateResponse, error) {
	f.record("ContainerCreate")
	if f.ContainerCreateFn == nil {
		panic(notImplemented("ContainerCreate"))
	}
	return f.ContainerCreateFn(ctx, config, hostConfig, networkingConfig, platform, name)
}

func (f *FakeAPIClient) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	f.record("ContainerStart")
	if f.ContainerStartFn == nil {
		panic(notImplemented("ContainerStart"))
	}
	return f.ContainerStartFn(ctx, containerID, options)
}

func (f *FakeAPIClient) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	f.record("ContainerList")
	if f.ContainerListFn == nil {
		panic(notImplemented("ContainerList"))
	}
	return f.ContainerListFn(ctx, options)
}

func (f *FakeAPIClient) ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error) {
	f.record("ContainerInspect")
	if f.ContainerInspectFn == nil {
		panic(notImplemented("ContainerInspect"))
	}
	return f.ContainerInspectFn(ctx, containerID)
}

func (f *FakeAPIClient) ContainerAttach(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error) {
	f.record("ContainerAttach")
	if f.ContainerAttachFn == nil {
		panic(notImplemented("ContainerAttach"))
	}
	return f.ContainerAttachFn(ctx, containerID, options)
}

func (f *FakeAPIClient) ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	f.record("ContainerWait")
	if f.ContainerWaitFn == nil {
		panic(notImplemented("ContainerWait"))
	}
	return f.ContainerWaitFn(ctx, containerID, condition)
}

func (f *FakeAPIClient) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	f.record("ContainerRemove")
	if f.ContainerRemoveFn == nil {
		panic(notImplemented("ContainerRemove"))
	}
	return f.ContainerRemoveFn(ctx, containerID, options)
}

func (f *FakeAPIClient) ContainerResize(ctx context.Context, containerID string, options container.ResizeOptions) error {
	f.record("ContainerResize")
	if f.ContainerResizeFn == nil {
		panic(notImplemented("ContainerResize"))
	}
	return f.ContainerResizeFn(ctx, containerID, options)
}
