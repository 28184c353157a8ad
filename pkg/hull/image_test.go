package hull_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smeltlabs/smelt/pkg/hull"
	"github.com/smeltlabs/smelt/pkg/hull/hulltest"
)

func TestImageBuild_InjectsManagedLabel(t *testing.T) {
	var captured types.ImageBuildOptions
	fake := &hulltest.FakeAPIClient{
		ImageBuildFn: func(_ context.Context, _ io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
			captured = options
			return types.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(""))}, nil
		},
	}
	engine := hulltest.NewEngine(fake)

	_, err := engine.ImageBuild(context.Background(), strings.NewReader("ctx"), types.ImageBuildOptions{
		Tags:   []string{"smelt/env:latest"},
		Labels: map[string]string{"user.label": "yes"},
	})
	require.NoError(t, err)

	assert.Equal(t, "true", captured.Labels[engine.ManagedLabelKey()])
	assert.Equal(t, "yes", captured.Labels["user.label"])
}

func TestImageList_InjectsManagedFilter(t *testing.T) {
	var captured image.ListOptions
	fake := &hulltest.FakeAPIClient{
		ImageListFn: func(_ context.Context, options image.ListOptions) ([]image.Summary, error) {
			captured = options
			return []image.Summary{{ID: "sha256:abc"}}, nil
		},
	}
	engine := hulltest.NewEngine(fake)

	items, err := engine.ImageList(context.Background(), image.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	values := captured.Filters.Get("label")
	assert.Contains(t, values, engine.ManagedLabelKey()+"=true")
}

func TestImageInspect_UnmanagedIsNotFound(t *testing.T) {
	fake := &hulltest.FakeAPIClient{
		ImageInspectWithRawFn: hulltest.UnmanagedImageInspectFn("sha256:abc"),
	}
	engine := hulltest.NewEngine(fake)

	_, err := engine.ImageInspect(context.Background(), "someone-elses:latest")
	require.Error(t, err)

	var dockerErr *hull.DockerError
	require.ErrorAs(t, err, &dockerErr)
	assert.Contains(t, dockerErr.Message, "not found")
}

func TestImageInspect_Managed(t *testing.T) {
	fake := &hulltest.FakeAPIClient{
		ImageInspectWithRawFn: hulltest.ManagedImageInspectFn("sha256:abc"),
	}
	engine := hulltest.NewEngine(fake)

	info, err := engine.ImageInspect(context.Background(), "smelt/env:latest")
	require.NoError(t, err)
	assert.Equal(t, "sha256:abc", info.ID)
}

func TestImageTag_RefusesUnmanagedSource(t *testing.T) {
	fake := &hulltest.FakeAPIClient{
		ImageInspectWithRawFn: hulltest.UnmanagedImageInspectFn("sha256:abc"),
		ImageTagFn: func(_ context.Context, _, _ string) error {
			t.Fatal("ImageTag should not be called for unmanaged images")
			return nil
		},
	}
	engine := hulltest.NewEngine(fake)

	err := engine.ImageTag(context.Background(), "other:latest", "smelt/env:latest")
	require.Error(t, err)
	assert.Equal(t, 0, fake.CallCount("ImageTag"))
}

func TestImageRemove_Managed(t *testing.T) {
	fake := &hulltest.FakeAPIClient{
		ImageInspectWithRawFn: hulltest.ManagedImageInspectFn("sha256:abc"),
		ImageRemoveFn: func(_ context.Context, imageID string, _ image.RemoveOptions) ([]image.DeleteResponse, error) {
			return []image.DeleteResponse{{Deleted: imageID}}, nil
		},
	}
	engine := hulltest.NewEngine(fake)

	deleted, err := engine.ImageRemove(context.Background(), "smelt/env:latest", image.RemoveOptions{})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
}
