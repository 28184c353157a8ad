package hull_test

import (
	"context"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smeltlabs/smelt/pkg/hull"
	"github.com/smeltlabs/smelt/pkg/hull/hulltest"
)

func TestContainerCreate_InjectsManagedLabel(t *testing.T) {
	var captured *container.Config
	fake := &hulltest.FakeAPIClient{
		ContainerCreateFn: func(_ context.Context, config *container.Config, _ *container.HostConfig, _ *network.NetworkingConfig, _ *ocispec.Platform, _ string) (container.CreateResponse, error) {
			captured = config
			return container.CreateResponse{ID: "ctr-1"}, nil
		},
	}
	engine := hulltest.NewEngine(fake)

	resp, err := engine.ContainerCreate(context.Background(),
		&container.Config{Image: "smelt/env:latest"},
		&container.HostConfig{}, nil, nil, "smelt-run",
		map[string]string{"com.smelt.run-id": "r1"},
	)
	require.NoError(t, err)
	assert.Equal(t, "ctr-1", resp.ID)

	require.NotNil(t, captured)
	assert.Equal(t, "true", captured.Labels[engine.ManagedLabelKey()])
	assert.Equal(t, "r1", captured.Labels["com.smelt.run-id"])
}

func TestContainerStart_RefusesUnmanaged(t *testing.T) {
	fake := &hulltest.FakeAPIClient{
		ContainerInspectFn: func(_ context.Context, id string) (container.InspectResponse, error) {
			return container.InspectResponse{
				ContainerJSONBase: &container.ContainerJSONBase{ID: id},
				Config:            &container.Config{Labels: map[string]string{}},
			}, nil
		},
	}
	engine := hulltest.NewEngine(fake)

	err := engine.ContainerStart(context.Background(), "ctr-1", container.StartOptions{})
	require.Error(t, err)

	var dockerErr *hull.DockerError
	require.ErrorAs(t, err, &dockerErr)
	assert.Equal(t, 0, fake.CallCount("ContainerStart"))
}

func TestContainerStart_Managed(t *testing.T) {
	fake := &hulltest.FakeAPIClient{
		ContainerInspectFn: hulltest.ManagedContainerInspectFn("ctr-1", false),
		ContainerStartFn: func(_ context.Context, _ string, _ container.StartOptions) error {
			return nil
		},
	}
	engine := hulltest.NewEngine(fake)

	require.NoError(t, engine.ContainerStart(context.Background(), "ctr-1", container.StartOptions{}))
	assert.Equal(t, 1, fake.CallCount("ContainerStart"))
}

func TestContainerList_InjectsManagedFilter(t *testing.T) {
	var captured container.ListOptions
	fake := &hulltest.FakeAPIClient{
		ContainerListFn: func(_ context.Context, options container.ListOptions) ([]container.Summary, error) {
			captured = options
			return nil, nil
		},
	}
	engine := hulltest.NewEngine(fake)

	_, err := engine.ContainerList(context.Background(), container.ListOptions{All: true})
	require.NoError(t, err)

	values := captured.Filters.Get("label")
	assert.Contains(t, values, engine.ManagedLabelKey()+"=true")
}

func TestContainerRemove_Managed(t *testing.T) {
	fake := &hulltest.FakeAPIClient{
		ContainerInspectFn: hulltest.ManagedContainerInspectFn("ctr-1", false),
		ContainerRemoveFn: func(_ context.Context, _ string, options container.RemoveOptions) error {
			assert.True(t, options.Force)
			return nil
		},
	}
	engine := hulltest.NewEngine(fake)

	require.NoError(t, engine.ContainerRemove(context.Background(), "ctr-1", true))
}
