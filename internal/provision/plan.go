// Package provision defines the provisioning pipeline model: an ordered
// sequence of steps applied to a base image, producing a tagged result
// image only when every step succeeds.
package provision

import (
	"path/filepath"

	"github.com/smeltlabs/smelt/internal/config"
)

// Step is one ordered provisioning action: stage an artifact into the
// build context, then execute a command against it. Steps are totally
// ordered; a step runs only after every earlier step succeeded.
type Step struct {
	// Name labels the step in output and errors.
	Name string

	// Artifact is the file (or directory) staged into the build context,
	// relative to the plan's context directory.
	Artifact string

	// Command is executed inside the image after the artifact is staged.
	Command string
}

// Label returns the step's display name, falling back to the artifact's
// base name.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return filepath.Base(s.Artifact)
}

// Plan is the resolved declarative input for one provisioning run.
type Plan struct {
	// BaseImage is the starting environment image reference.
	BaseImage string

	// ImageName is the repository name for the resulting image.
	ImageName string

	// Maintainer and Comment are metadata carried into the image.
	Maintainer string
	Comment    string

	// Workdir is the execution root inside the image.
	Workdir string

	// Env holds environment variables baked into the image.
	Env map[string]string

	// ContextDir is the host directory relative artifact paths resolve
	// against.
	ContextDir string

	// Steps are the ordered provisioning steps.
	Steps []Step
}

// FromManifest converts a loaded manifest into a Plan.
func FromManifest(m *config.Manifest) Plan {
	steps := make([]Step, 0, len(m.Steps))
	for _, s := range m.Steps {
		steps = append(steps, Step{
			Name:     s.Name,
			Artifact: s.Artifact,
			Command:  s.Command,
		})
	}

	return Plan{
		BaseImage:  m.Image.Base,
		ImageName:  m.Image.Name,
		Maintainer: m.Maintainer,
		Comment:    m.Comment,
		Workdir:    m.Workdir,
		Env:        m.Env,
		ContextDir: m.ContextDir(),
		Steps:      steps,
	}
}

// ArtifactPaths returns the artifact path of every step, in declared order.
func (p Plan) ArtifactPaths() []string {
	paths := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		paths = append(paths, s.Artifact)
	}
	return paths
}

// StepMap describes how a rendered Dockerfile's instructions map back to
// plan steps. The generator emits a fixed preamble (FROM, metadata, ENV,
// WORKDIR) followed by a fixed number of instructions per step, so the
// mapping is arithmetic.
type StepMap struct {
	// Preamble is the number of instructions before the first step.
	Preamble int

	// PerStep is the number of instructions each step contributes.
	PerStep int
}

// PlanStep maps a 0-based Dockerfile instruction index to a 1-based plan
// step index. Returns 0 for preamble instructions (base image resolution,
// metadata), which precede every plan step.
func (m StepMap) PlanStep(instruction int) int {
	if instruction < m.Preamble || m.PerStep <= 0 {
		return 0
	}
	return 1 + (instruction-m.Preamble)/m.PerStep
}
