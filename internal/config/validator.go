package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
)

// Validator checks a manifest for structural problems before a run.
// Hard errors abort; warnings are collected for the caller to display.
type Validator struct {
	workDir  string
	warnings []string
}

// NewValidator creates a validator rooted at the given working directory.
func NewValidator(workDir string) *Validator {
	return &Validator{workDir: workDir}
}

// Warnings returns warnings collected during the last Validate call.
func (v *Validator) Warnings() []string {
	return v.warnings
}

// Validate checks the manifest. Returns an error describing every hard
// problem found, or nil.
func (v *Validator) Validate(m *Manifest) error {
	v.warnings = nil
	var problems []string

	if m.Version != CurrentVersion {
		problems = append(problems, fmt.Sprintf("unsupported manifest version %q (expected %q)", m.Version, CurrentVersion))
	}

	if m.Image.Base == "" {
		problems = append(problems, "image.base is required")
	} else if _, err := reference.ParseNormalizedNamed(m.Image.Base); err != nil {
		problems = append(problems, fmt.Sprintf("image.base %q is not a valid image reference: %v", m.Image.Base, err))
	}

	if m.Image.Name != "" {
		if _, err := reference.ParseNormalizedNamed(m.Image.Name); err != nil {
			problems = append(problems, fmt.Sprintf("image.name %q is not a valid repository name: %v", m.Image.Name, err))
		}
	}

	if m.Workdir != "" && !strings.HasPrefix(m.Workdir, "/") {
		problems = append(problems, fmt.Sprintf("workdir %q must be an absolute path inside the image", m.Workdir))
	}

	if len(m.Steps) == 0 {
		v.warnings = append(v.warnings, "manifest declares no steps; the resulting image will be the base image with metadata only")
	}

	seen := make(map[string]bool)
	for i, step := range m.Steps {
		pos := i + 1

		if step.Artifact == "" {
			problems = append(problems, fmt.Sprintf("step %d (%s): artifact is required", pos, step.Label()))
		} else {
			if filepath.IsAbs(step.Artifact) {
				problems = append(problems, fmt.Sprintf("step %d (%s): artifact must be a path relative to the build context", pos, step.Label()))
			}
			clean := filepath.ToSlash(filepath.Clean(step.Artifact))
			if clean == ".." || strings.HasPrefix(clean, "../") {
				problems = append(problems, fmt.Sprintf("step %d (%s): artifact escapes the build context", pos, step.Label()))
			}
		}

		if step.Command == "" {
			problems = append(problems, fmt.Sprintf("step %d (%s): command is required", pos, step.Label()))
		}

		if step.Name != "" {
			if seen[step.Name] {
				v.warnings = append(v.warnings, fmt.Sprintf("step name %q is used more than once", step.Name))
			}
			seen[step.Name] = true
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid manifest:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
