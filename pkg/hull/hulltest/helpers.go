package hulltest

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	dockerspec "github.com/moby/docker-image-spec/specs-go/v1"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/smeltlabs/smelt/pkg/hull"
)

// TestLabelPrefix is the label prefix used by engines created through
// NewEngine.
const TestLabelPrefix = "com.smelt.test"

// NewEngine returns an Engine backed by the given fake, using the test
// label prefix. The managed label key is TestLabelPrefix + ".managed".
func NewEngine(fake *FakeAPIClient) *hull.Engine {
	return hull.NewWithClient(fake, hull.EngineOptions{
		LabelPrefix: TestLabelPrefix,
	})
}

// ManagedImageInspectFn returns an ImageInspectWithRawFn that reports an
// image carrying the test managed label, so managed-only checks pass.
func ManagedImageInspectFn(id string) func(ctx context.Context, imageID string) (types.ImageInspect, []byte, error) {
	return func(_ context.Context, _ string) (types.ImageInspect, []byte, error) {
		return types.ImageInspect{
			ID: id,
			Config: &dockerspec.DockerOCIImageConfig{
				ImageConfig: ocispec.ImageConfig{
					Labels: map[string]string{
						TestLabelPrefix + "." + hull.DefaultManagedLabel: "true",
					},
				},
			},
		}, nil, nil
	}
}

// UnmanagedImageInspectFn returns an ImageInspectWithRawFn that reports an
// image without the managed label.
func UnmanagedImageInspectFn(id string) func(ctx context.Context, imageID string) (types.ImageInspect, []byte, error) {
	return func(_ context.Context, _ string) (types.ImageInspect, []byte, error) {
		return types.ImageInspect{
			ID: id,
			Config: &dockerspec.DockerOCIImageConfig{
				ImageConfig: ocispec.ImageConfig{Labels: map[string]string{}},
			},
		}, nil, nil
	}
}

// ManagedContainerInspectFn returns a ContainerInspectFn that reports a
// container carrying the test managed label.
func ManagedContainerInspectFn(id string, running bool) func(ctx context.Context, containerID string) (container.InspectResponse, error) {
	return func(_ context.Context, _ string) (container.InspectResponse, error) {
		return container.InspectResponse{
			ContainerJSONBase: &container.ContainerJSONBase{
				ID:    id,
				State: &container.State{Running: running},
			},
			Config: &container.Config{
				Labels: map[string]string{
					TestLabelPrefix + "." + hull.DefaultManagedLabel: "true",
				},
			},
		}, nil
	}
}
