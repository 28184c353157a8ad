package cmdutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smeltlabs/smelt/internal/iostreams/iostreamstest"
	"github.com/smeltlabs/smelt/internal/provision"
	"github.com/smeltlabs/smelt/pkg/hull"
)

func TestPrintUserError_StepError(t *testing.T) {
	ios, _, _, errOut := iostreamstest.New()

	PrintUserError(ios, &provision.StepError{
		Index:  2,
		Step:   provision.Step{Name: "install-pkgs"},
		Output: []string{"E: broken"},
		Cause:  errors.New("non-zero code: 1"),
	})

	out := errOut.String()
	assert.Contains(t, out, "step 2 (install-pkgs) failed")
	assert.Contains(t, out, "E: broken")
	assert.Contains(t, out, "No image was published")
}

func TestPrintUserError_MissingArtifact(t *testing.T) {
	ios, _, _, errOut := iostreamstest.New()

	PrintUserError(ios, &provision.MissingArtifactError{
		Index: 1,
		Step:  provision.Step{Artifact: "a.sh"},
		Path:  "/ctx/a.sh",
		Err:   errors.New("no such file"),
	})

	out := errOut.String()
	assert.Contains(t, out, "artifact /ctx/a.sh")
	assert.Contains(t, out, "No step was executed")
}

func TestPrintUserError_DockerError(t *testing.T) {
	ios, _, _, errOut := iostreamstest.New()

	PrintUserError(ios, hull.ErrDockerNotRunning(errors.New("connection refused")))
	assert.Contains(t, errOut.String(), "Cannot connect to Docker daemon")
}

func TestPrintUserError_Plain(t *testing.T) {
	ios, _, _, errOut := iostreamstest.New()

	PrintUserError(ios, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", errOut.String())
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 7}
	assert.Equal(t, "exit status 7", err.Error())
}

func TestFlagErrorf(t *testing.T) {
	err := FlagErrorf("unknown flag %q", "--bogus")

	var flagErr *FlagError
	assert.ErrorAs(t, err, &flagErr)
	assert.Contains(t, err.Error(), "--bogus")
}
