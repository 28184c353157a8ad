// Package dockerfile renders a provisioning plan into a Dockerfile.
//
// The rendered file has a fixed shape: a preamble (FROM, metadata, ENV,
// WORKDIR) followed by exactly one COPY and one RUN per plan step. That
// fixed shape is what makes build failures attributable to a specific
// step: the classic builder reports instruction positions, and the
// returned StepMap converts those back to plan step indexes.
package dockerfile

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/smeltlabs/smelt/internal/provision"
)

//go:embed assets/Dockerfile.tmpl
var dockerfileTemplate string

// instructionsPerStep is the number of Dockerfile instructions each plan
// step contributes (COPY + RUN).
const instructionsPerStep = 2

// templateContext holds the data for Dockerfile template rendering.
type templateContext struct {
	BaseImage    string
	CommentLines []string
	Maintainer   string
	Env          []envEntry
	Workdir      string
	Steps        []templateStep
}

type envEntry struct {
	Key   string
	Value string
}

type templateStep struct {
	Index    int
	Label    string
	Artifact string
	Command  string
}

// Generator renders Dockerfiles from a provisioning plan.
type Generator struct {
	plan provision.Plan
}

// NewGenerator creates a Dockerfile generator for the given plan.
func NewGenerator(plan provision.Plan) *Generator {
	return &Generator{plan: plan}
}

// Generate renders the Dockerfile and returns it together with the
// instruction-to-step mapping for the rendered file.
func (g *Generator) Generate() ([]byte, provision.StepMap, error) {
	ctx := g.buildContext()

	tmpl, err := template.New("Dockerfile").Parse(dockerfileTemplate)
	if err != nil {
		return nil, provision.StepMap{}, fmt.Errorf("failed to parse Dockerfile template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, provision.StepMap{}, fmt.Errorf("failed to render Dockerfile template: %w", err)
	}

	return buf.Bytes(), g.StepMap(), nil
}

// StepMap returns the instruction-to-step mapping the rendered Dockerfile
// will have. Comments do not count: the classic builder numbers only real
// instructions.
func (g *Generator) StepMap() provision.StepMap {
	preamble := 2 // FROM + WORKDIR
	if g.plan.Maintainer != "" {
		preamble++
	}
	if len(g.plan.Env) > 0 {
		preamble++
	}
	return provision.StepMap{Preamble: preamble, PerStep: instructionsPerStep}
}

func (g *Generator) buildContext() templateContext {
	ctx := templateContext{
		BaseImage:  g.plan.BaseImage,
		Maintainer: quoteEscape(g.plan.Maintainer),
		Workdir:    g.plan.Workdir,
	}

	if g.plan.Comment != "" {
		ctx.CommentLines = strings.Split(strings.TrimRight(g.plan.Comment, "\n"), "\n")
	}

	// Single ENV instruction with sorted keys keeps the output, and
	// therefore the content hash, deterministic.
	keys := make([]string, 0, len(g.plan.Env))
	for k := range g.plan.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx.Env = append(ctx.Env, envEntry{Key: k, Value: quoteEscape(g.plan.Env[k])})
	}

	for i, step := range g.plan.Steps {
		ctx.Steps = append(ctx.Steps, templateStep{
			Index:    i + 1,
			Label:    step.Label(),
			Artifact: filepath.ToSlash(step.Artifact),
			Command:  step.Command,
		})
	}

	return ctx
}

// quoteEscape escapes double quotes for values embedded in quoted
// Dockerfile arguments.
func quoteEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
