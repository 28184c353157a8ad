package docker_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smeltlabs/smelt/internal/docker"
	"github.com/smeltlabs/smelt/internal/docker/dockertest"
	"github.com/smeltlabs/smelt/internal/provision"
	"github.com/smeltlabs/smelt/pkg/hull"
	"github.com/smeltlabs/smelt/pkg/hull/hulltest"
)

func notFoundInspectFn(ctx context.Context, imageID string) (types.ImageInspect, []byte, error) {
	return types.ImageInspect{}, nil, os.ErrNotExist
}

func builderPlan(t *testing.T) provision.Plan {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shared"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared", "deps.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared", "pkgs.txt"), []byte("numpy\n"), 0o644))

	return provision.Plan{
		BaseImage:  "ubuntu:24.04",
		ImageName:  "lab/neuro",
		Workdir:    "/opt/smelt",
		ContextDir: dir,
		Steps: []provision.Step{
			{Name: "install-deps", Artifact: "shared/deps.sh", Command: "bash shared/deps.sh"},
			{Name: "install-pkgs", Artifact: "shared/pkgs.txt", Command: "pip install -r shared/pkgs.txt"},
		},
	}
}

// Plan instructions: FROM, WORKDIR, then COPY+RUN per step (4 total steps
// in a 2-step plan means 6 daemon instructions).

func TestEnsureImage_Success(t *testing.T) {
	stream := dockertest.NewBuildStream().
		Step(1, 6, "FROM ubuntu:24.04").
		Step(2, 6, "WORKDIR /opt/smelt").
		Step(3, 6, "COPY shared/deps.sh shared/deps.sh").
		Step(4, 6, "RUN bash shared/deps.sh").
		Step(5, 6, "COPY shared/pkgs.txt shared/pkgs.txt").
		Step(6, 6, "RUN pip install -r shared/pkgs.txt").
		Success("abc123")

	fake := &hulltest.FakeAPIClient{}
	fake.ImageInspectWithRawFn = notFoundInspectFn
	var captured types.ImageBuildOptions
	fake.ImageBuildFn = stream.ImageBuildFn(&captured)

	client := dockertest.NewClient(fake)
	builder := docker.NewBuilder(client, builderPlan(t), "test")

	var progress []docker.StepProgress
	result, err := builder.EnsureImage(context.Background(), docker.BuildOptions{
		OnStep: func(p docker.StepProgress) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, "lab/neuro:latest", result.ImageRef)
	assert.Len(t, result.Hash, 12)

	// Both the primary and the content-addressed tag go to the daemon.
	require.Len(t, captured.Tags, 2)
	assert.Equal(t, "lab/neuro:latest", captured.Tags[0])
	assert.Equal(t, result.HashRef, captured.Tags[1])

	assert.Equal(t, "lab/neuro", captured.Labels[docker.LabelImage])
	assert.Equal(t, "ubuntu:24.04", captured.Labels[docker.LabelBaseImage])
	assert.Equal(t, result.Hash, captured.Labels[docker.LabelContentHash])

	// Step 1 must start before step 2 does.
	firstStart, secondStart := -1, -1
	for i, p := range progress {
		if p.Status == hull.BuildStepRunning && firstStart == -1 && p.Step == 1 {
			firstStart = i
		}
		if p.Status == hull.BuildStepRunning && secondStart == -1 && p.Step == 2 {
			secondStart = i
		}
	}
	require.GreaterOrEqual(t, firstStart, 0)
	require.GreaterOrEqual(t, secondStart, 0)
	assert.Less(t, firstStart, secondStart, "steps must run in declared order")
}

func TestEnsureImage_StepFailureAttribution(t *testing.T) {
	stream := dockertest.NewBuildStream().
		Step(1, 6, "FROM ubuntu:24.04").
		Step(2, 6, "WORKDIR /opt/smelt").
		Step(3, 6, "COPY shared/deps.sh shared/deps.sh").
		Step(4, 6, "RUN bash shared/deps.sh").
		Step(5, 6, "COPY shared/pkgs.txt shared/pkgs.txt").
		Step(6, 6, "RUN pip install -r shared/pkgs.txt").
		Log("ERROR: No matching distribution found for numpy").
		Error("The command '/bin/sh -c pip install -r shared/pkgs.txt' returned a non-zero code: 1")

	fake := &hulltest.FakeAPIClient{}
	fake.ImageInspectWithRawFn = notFoundInspectFn
	fake.ImageBuildFn = stream.ImageBuildFn(nil)

	client := dockertest.NewClient(fake)
	builder := docker.NewBuilder(client, builderPlan(t), "test")

	_, err := builder.EnsureImage(context.Background(), docker.BuildOptions{})
	require.Error(t, err)

	var stepErr *provision.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 2, stepErr.Index)
	assert.Equal(t, "install-pkgs", stepErr.Step.Label())
	assert.Contains(t, stepErr.Output, "ERROR: No matching distribution found for numpy")
	assert.False(t, stepErr.IsBaseImageFailure())
}

func TestEnsureImage_BaseImageFailure(t *testing.T) {
	stream := dockertest.NewBuildStream().
		Step(1, 6, "FROM nosuch/image:latest").
		Error("pull access denied for nosuch/image, repository does not exist")

	fake := &hulltest.FakeAPIClient{}
	fake.ImageInspectWithRawFn = notFoundInspectFn
	fake.ImageBuildFn = stream.ImageBuildFn(nil)

	plan := builderPlan(t)
	plan.BaseImage = "nosuch/image:latest"
	client := dockertest.NewClient(fake)
	builder := docker.NewBuilder(client, plan, "test")

	_, err := builder.EnsureImage(context.Background(), docker.BuildOptions{})
	require.Error(t, err)

	var stepErr *provision.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.True(t, stepErr.IsBaseImageFailure())
	assert.Equal(t, 0, stepErr.Index)
}

func TestEnsureImage_MissingArtifactFailsBeforeBuild(t *testing.T) {
	fake := &hulltest.FakeAPIClient{}

	plan := builderPlan(t)
	plan.Steps = append(plan.Steps, provision.Step{
		Name: "missing", Artifact: "shared/nope.sh", Command: "./nope.sh",
	})

	client := dockertest.NewClient(fake)
	builder := docker.NewBuilder(client, plan, "test")

	_, err := builder.EnsureImage(context.Background(), docker.BuildOptions{})
	require.Error(t, err)

	var missing *provision.MissingArtifactError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 3, missing.Index)

	// No daemon interaction at all: validation failed first.
	assert.Zero(t, fake.CallCount("ImageBuild"))
	assert.Zero(t, fake.CallCount("ImageInspectWithRaw"))
}

func TestEnsureImage_SkipsUnchangedBuild(t *testing.T) {
	fake := &hulltest.FakeAPIClient{}
	fake.ImageInspectWithRawFn = hulltest.ManagedImageInspectFn("sha256:abc")
	var taggedSource, taggedTarget string
	fake.ImageTagFn = func(ctx context.Context, source, target string) error {
		taggedSource, taggedTarget = source, target
		return nil
	}

	client := dockertest.NewClient(fake)
	builder := docker.NewBuilder(client, builderPlan(t), "test")

	result, err := builder.EnsureImage(context.Background(), docker.BuildOptions{})
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Zero(t, fake.CallCount("ImageBuild"))
	assert.Equal(t, result.HashRef, taggedSource)
	assert.Equal(t, "lab/neuro:latest", taggedTarget)
}

func TestEnsureImage_ForceRebuilds(t *testing.T) {
	stream := dockertest.NewBuildStream().
		Step(1, 6, "FROM ubuntu:24.04").
		Success("abc123")

	fake := &hulltest.FakeAPIClient{}
	fake.ImageInspectWithRawFn = hulltest.ManagedImageInspectFn("sha256:abc")
	fake.ImageBuildFn = stream.ImageBuildFn(nil)

	client := dockertest.NewClient(fake)
	builder := docker.NewBuilder(client, builderPlan(t), "test")

	result, err := builder.EnsureImage(context.Background(), docker.BuildOptions{Force: true})
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 1, fake.CallCount("ImageBuild"))
}

func TestEnsureImage_DaemonOutputNeverSuppressed(t *testing.T) {
	stream := dockertest.NewBuildStream().
		Step(1, 6, "FROM ubuntu:24.04").
		Step(2, 6, "WORKDIR /opt/smelt").
		Step(3, 6, "COPY shared/deps.sh shared/deps.sh").
		Step(4, 6, "RUN bash shared/deps.sh").
		Log("deps.sh: exiting with failure").
		Error("The command '/bin/sh -c bash shared/deps.sh' returned a non-zero code: 1")

	fake := &hulltest.FakeAPIClient{}
	fake.ImageInspectWithRawFn = notFoundInspectFn
	var captured types.ImageBuildOptions
	fake.ImageBuildFn = stream.ImageBuildFn(&captured)

	client := dockertest.NewClient(fake)
	builder := docker.NewBuilder(client, builderPlan(t), "test")

	_, err := builder.EnsureImage(context.Background(), docker.BuildOptions{})
	require.Error(t, err)

	// Quiet display must not translate into daemon -q: a suppressed
	// stream has no "Step N/M" headers, which would make every failure
	// look like a base-image failure.
	assert.False(t, captured.SuppressOutput)

	var stepErr *provision.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.False(t, stepErr.IsBaseImageFailure())
	assert.Contains(t, stepErr.Output, "deps.sh: exiting with failure")
}

func TestEnsureImage_IdenticalInputsSameHash(t *testing.T) {
	fake := &hulltest.FakeAPIClient{}
	fake.ImageInspectWithRawFn = hulltest.ManagedImageInspectFn("sha256:abc")
	fake.ImageTagFn = func(ctx context.Context, source, target string) error { return nil }

	plan := builderPlan(t)
	client := dockertest.NewClient(fake)

	first, err := docker.NewBuilder(client, plan, "test").EnsureImage(context.Background(), docker.BuildOptions{})
	require.NoError(t, err)
	second, err := docker.NewBuilder(client, plan, "test").EnsureImage(context.Background(), docker.BuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.HashRef, second.HashRef)
}

func TestEnsureImage_NoImageName(t *testing.T) {
	plan := builderPlan(t)
	plan.ImageName = ""

	builder := docker.NewBuilder(dockertest.NewClient(&hulltest.FakeAPIClient{}), plan, "test")
	_, err := builder.EnsureImage(context.Background(), docker.BuildOptions{})
	assert.Error(t, err)
}
