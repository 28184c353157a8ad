package provision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smeltlabs/smelt/internal/config"
)

func TestFromManifest(t *testing.T) {
	m := &config.Manifest{
		Version: config.CurrentVersion,
		Image: config.ImageConfig{
			Base: "python:3.12-slim",
			Name: "lab/neuro",
		},
		Maintainer: "lab@example.org",
		Workdir:    "/opt/build",
		Env:        map[string]string{"CONDA_DIR": "/opt/conda"},
		Steps: []config.StepConfig{
			{Name: "install-deps", Artifact: "shared/a.sh", Command: "./a.sh"},
			{Artifact: "shared/b.sh", Command: "./b.sh"},
		},
	}
	m.SetRootDir("/work/project")

	plan := FromManifest(m)

	assert.Equal(t, "python:3.12-slim", plan.BaseImage)
	assert.Equal(t, "lab/neuro", plan.ImageName)
	assert.Equal(t, "lab@example.org", plan.Maintainer)
	assert.Equal(t, "/opt/build", plan.Workdir)
	assert.Equal(t, "/work/project", plan.ContextDir)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "install-deps", plan.Steps[0].Label())
	assert.Equal(t, "b.sh", plan.Steps[1].Label())
	assert.Equal(t, []string{"shared/a.sh", "shared/b.sh"}, plan.ArtifactPaths())
}

func TestStepMap_PlanStep(t *testing.T) {
	// Preamble of 3 instructions, then COPY+RUN per step.
	m := StepMap{Preamble: 3, PerStep: 2}

	tests := []struct {
		instruction int
		expected    int
	}{
		{0, 0}, // FROM
		{1, 0}, // LABEL
		{2, 0}, // WORKDIR
		{3, 1}, // step 1 COPY
		{4, 1}, // step 1 RUN
		{5, 2}, // step 2 COPY
		{6, 2}, // step 2 RUN
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, m.PlanStep(tt.instruction), "instruction %d", tt.instruction)
	}
}

func TestStepMap_PlanStep_ZeroPerStep(t *testing.T) {
	m := StepMap{Preamble: 2}
	assert.Equal(t, 0, m.PlanStep(5))
}

func TestValidateArtifacts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shared"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared", "a.sh"), []byte("#!/bin/sh\n"), 0o755))

	plan := Plan{
		ContextDir: dir,
		Steps: []Step{
			{Name: "install-deps", Artifact: "shared/a.sh", Command: "./a.sh"},
		},
	}
	assert.NoError(t, plan.ValidateArtifacts())
}

func TestValidateArtifacts_Missing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shared"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared", "a.sh"), []byte("#!/bin/sh\n"), 0o755))

	plan := Plan{
		ContextDir: dir,
		Steps: []Step{
			{Name: "install-deps", Artifact: "shared/a.sh", Command: "./a.sh"},
			{Name: "install-runtime", Artifact: "shared/missing.sh", Command: "./missing.sh"},
		},
	}

	err := plan.ValidateArtifacts()
	require.Error(t, err)

	var missing *MissingArtifactError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 2, missing.Index)
	assert.Equal(t, "install-runtime", missing.Step.Label())
}

func TestStepError_Messages(t *testing.T) {
	err := &StepError{
		Index: 2,
		Step:  Step{Name: "install-runtime"},
		Cause: assert.AnError,
		Output: []string{
			"E: Unable to locate package libhdf5",
		},
	}

	assert.Contains(t, err.Error(), "step 2 (install-runtime) failed")
	assert.False(t, err.IsBaseImageFailure())
	assert.Equal(t, "E: Unable to locate package libhdf5", err.FormatOutput())

	base := &StepError{Index: 0, Cause: assert.AnError}
	assert.True(t, base.IsBaseImageFailure())
	assert.Contains(t, base.Error(), "base image resolution failed")
}
