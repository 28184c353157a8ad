package provision

import (
	"fmt"
	"strings"
)

// MissingArtifactError indicates a declared artifact path does not exist
// or is not readable. The run aborts before any step command executes.
type MissingArtifactError struct {
	// Index is the 1-based position of the step declaring the artifact.
	Index int
	Step  Step
	Path  string
	Err   error
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("step %d (%s): artifact %s: %v", e.Index, e.Step.Label(), e.Path, e.Err)
}

func (e *MissingArtifactError) Unwrap() error {
	return e.Err
}

// StepError indicates a provisioning step failed. The run aborted at that
// step; later steps never executed and no image was published.
//
// Index 0 means the failure happened before any plan step ran (base image
// resolution or context preamble).
type StepError struct {
	// Index is the 1-based position of the failing step, or 0 for a
	// pre-step failure.
	Index int
	Step  Step

	// Output holds the failing command's output lines, verbatim.
	Output []string

	Cause error
}

func (e *StepError) Error() string {
	if e.IsBaseImageFailure() {
		return fmt.Sprintf("base image resolution failed: %v", e.Cause)
	}
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Step.Label(), e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// IsBaseImageFailure reports whether the failure happened before any plan
// step executed.
func (e *StepError) IsBaseImageFailure() bool {
	return e.Index == 0
}

// FormatOutput returns the captured command output as a single block, or
// "" when no output was captured.
func (e *StepError) FormatOutput() string {
	if len(e.Output) == 0 {
		return ""
	}
	return strings.Join(e.Output, "\n")
}
