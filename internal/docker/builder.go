package docker

import (
	"context"
	"errors"
	"fmt"

	"github.com/smeltlabs/smelt/internal/bundler"
	"github.com/smeltlabs/smelt/internal/dockerfile"
	"github.com/smeltlabs/smelt/internal/logger"
	"github.com/smeltlabs/smelt/internal/provision"
	"github.com/smeltlabs/smelt/pkg/hull"
)

// StepProgress is a build progress event expressed in plan-step terms.
type StepProgress struct {
	// Step is the 1-based plan step, or 0 for preamble work (base image
	// resolution, metadata instructions).
	Step int

	// TotalSteps is the number of steps in the plan.
	TotalSteps int

	// Label is the step's display name; "base image" for preamble work.
	Label string

	Status  hull.BuildStepStatus
	Cached  bool
	LogLine string
}

// StepProgressFunc receives plan-step progress during a build.
type StepProgressFunc func(StepProgress)

// Builder orchestrates provisioning runs: it renders the plan into a
// Dockerfile, bundles the build context, and drives the daemon build,
// attributing any failure back to the plan step that caused it.
type Builder struct {
	client  *Client
	plan    provision.Plan
	version string
}

// NewBuilder creates a Builder for the given plan.
func NewBuilder(client *Client, plan provision.Plan, version string) *Builder {
	return &Builder{client: client, plan: plan, version: version}
}

// BuildOptions contains options for a provisioning run.
type BuildOptions struct {
	// Tag is the primary image reference; defaults to "<name>:latest".
	Tag string

	// Force rebuilds even when a content-addressed image already exists.
	Force bool

	NoCache bool
	Pull    bool

	// Labels are extra labels applied to the built image.
	Labels map[string]string

	// BuildArgs are build-time variables.
	BuildArgs map[string]*string

	// OnStep receives plan-step progress events.
	OnStep StepProgressFunc
}

// BuildResult reports what a provisioning run produced.
type BuildResult struct {
	// ImageRef is the primary tag of the resulting image.
	ImageRef string

	// HashRef is the content-addressed tag of the resulting image.
	HashRef string

	// Hash is the content hash of the run's inputs.
	Hash string

	// Skipped is true when an image for the same inputs already existed
	// and no build ran.
	Skipped bool
}

// EnsureImage runs the plan, building only when its inputs changed since
// the last successful run. The run is all-or-nothing: the primary tag is
// applied only after every step succeeds, so a failed run never publishes
// a partially provisioned image.
func (b *Builder) EnsureImage(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if b.plan.ImageName == "" {
		return nil, errors.New("manifest has no image name")
	}
	name, err := NormalizeImageName(b.plan.ImageName)
	if err != nil {
		return nil, err
	}

	// Every artifact must exist before any step executes.
	if err := b.plan.ValidateArtifacts(); err != nil {
		return nil, err
	}

	// One build at a time per context directory.
	release, err := bundler.LockContext(ctx, b.plan.ContextDir)
	if err != nil {
		return nil, err
	}
	defer release()

	dfile, stepMap, err := dockerfile.NewGenerator(b.plan).Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate Dockerfile: %w", err)
	}

	bundle, err := bundler.New(b.plan, dfile)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare build context: %w", err)
	}

	hash, err := bundle.ContentHash()
	if err != nil {
		return nil, fmt.Errorf("failed to compute content hash: %w", err)
	}

	imageRef := opts.Tag
	if imageRef == "" {
		imageRef = ImageRef(name, DefaultTag)
	}
	hashRef := ImageTagWithHash(name, hash)

	result := &BuildResult{ImageRef: imageRef, HashRef: hashRef, Hash: hash}

	// Unchanged inputs mean the content-addressed image is already the
	// right result; just move the primary tag onto it.
	if !opts.Force {
		exists, err := b.client.ImageExists(ctx, hashRef)
		if err != nil {
			return nil, fmt.Errorf("failed to check image existence for %s: %w", hashRef, err)
		}
		if exists {
			logger.Debug().Str("image", hashRef).Msg("image up-to-date, skipping build")
			if err := b.client.TagImage(ctx, hashRef, imageRef); err != nil {
				return nil, fmt.Errorf("failed to retag %s: %w", hashRef, err)
			}
			result.Skipped = true
			return result, nil
		}
	}

	buildCtx, err := bundle.Bundle()
	if err != nil {
		return nil, fmt.Errorf("failed to assemble build context: %w", err)
	}

	labels := hull.MergeLabels(
		opts.Labels,
		ImageLabels(name, b.plan.BaseImage, hash, b.version),
	)

	logger.Debug().
		Str("image", imageRef).
		Str("hash", hash).
		Int("steps", len(b.plan.Steps)).
		Msg("building image")

	// The daemon's quiet mode strips the "Step N/M" headers that failure
	// attribution depends on, so progress silencing is purely a display
	// concern for the caller.
	err = b.client.BuildImage(ctx, buildCtx, BuildImageOpts{
		Tags:       []string{imageRef, hashRef},
		Dockerfile: "Dockerfile",
		NoCache:    opts.NoCache,
		Pull:       opts.Pull,
		Labels:     labels,
		BuildArgs:  opts.BuildArgs,
		OnProgress: b.stepProgressAdapter(stepMap, opts.OnStep),
	})
	if err != nil {
		return nil, b.stepError(stepMap, err)
	}

	return result, nil
}

// stepProgressAdapter converts instruction-level build events into
// plan-step events.
func (b *Builder) stepProgressAdapter(stepMap provision.StepMap, onStep StepProgressFunc) hull.BuildProgressFunc {
	if onStep == nil {
		return nil
	}
	return func(ev hull.BuildProgressEvent) {
		step := stepMap.PlanStep(ev.StepIndex)
		label := "base image"
		if step > 0 && step <= len(b.plan.Steps) {
			label = b.plan.Steps[step-1].Label()
		}
		onStep(StepProgress{
			Step:       step,
			TotalSteps: len(b.plan.Steps),
			Label:      label,
			Status:     ev.Status,
			Cached:     ev.Cached,
			LogLine:    ev.LogLine,
		})
	}
}

// stepError attributes a build failure to the plan step whose instruction
// failed.
func (b *Builder) stepError(stepMap provision.StepMap, err error) error {
	var streamErr *BuildStreamError
	if !errors.As(err, &streamErr) {
		return err
	}

	index := 0
	if streamErr.Instruction >= 0 {
		index = stepMap.PlanStep(streamErr.Instruction)
	}

	stepErr := &provision.StepError{
		Index:  index,
		Output: streamErr.Output,
		Cause:  errors.New(streamErr.Message),
	}
	if index > 0 && index <= len(b.plan.Steps) {
		stepErr.Step = b.plan.Steps[index-1]
	}
	return stepErr
}
