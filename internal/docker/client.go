package docker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"

	"github.com/smeltlabs/smelt/internal/logger"
	"github.com/smeltlabs/smelt/pkg/hull"
)

// Client embeds hull.Engine with smelt's label configuration.
// All hull.Engine methods are available directly on Client.
type Client struct {
	*hull.Engine
}

// clientOptions holds configuration for NewClient.
type clientOptions struct {
	labels hull.LabelConfig
}

// ClientOption configures a NewClient call.
type ClientOption func(*clientOptions)

// WithLabels injects additional labels into the hull engine. Use this to
// add test labels that propagate to everything the client creates.
func WithLabels(labels hull.LabelConfig) ClientOption {
	return func(o *clientOptions) {
		o.labels = labels
	}
}

// NewClient creates a new smelt Docker client. It configures the hull
// engine with smelt's label prefix and conventions.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	engine, err := hull.New(ctx, hull.EngineOptions{
		LabelPrefix:  EngineLabelPrefix,
		ManagedLabel: EngineManagedLabel,
		Labels:       o.labels,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Engine: engine}, nil
}

// NewClientWithEngine wraps an existing engine. Intended for tests.
func NewClientWithEngine(engine *hull.Engine) *Client {
	return &Client{Engine: engine}
}

// ImageExists checks if a managed image exists locally.
// Returns false without error when the image is missing or unmanaged.
func (c *Client) ImageExists(ctx context.Context, imageRef string) (bool, error) {
	_, err := c.ImageInspect(ctx, imageRef)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TagImage adds an additional tag to an existing managed image.
func (c *Client) TagImage(ctx context.Context, source, target string) error {
	return c.ImageTag(ctx, source, target)
}

// BuildImageOpts contains options for building an image.
type BuildImageOpts struct {
	Tags       []string               // -t, --tag (multiple allowed)
	Dockerfile string                 // path of the Dockerfile inside the context
	BuildArgs  map[string]*string     // --build-arg KEY=VALUE
	NoCache    bool                   // --no-cache
	Labels     map[string]string      // merged with smelt labels
	Pull       bool                   // always attempt to pull the base image
	OnProgress hull.BuildProgressFunc // progress callback for build events
}

// BuildImage builds a Docker image from a tar build context and processes
// the daemon's JSON event stream. A failed build returns a
// *BuildStreamError identifying the Dockerfile instruction that failed.
func (c *Client) BuildImage(ctx context.Context, buildContext io.Reader, opts BuildImageOpts) error {
	options := types.ImageBuildOptions{
		Tags:        opts.Tags,
		Dockerfile:  opts.Dockerfile,
		Remove:      true,
		ForceRemove: true,
		NoCache:     opts.NoCache,
		BuildArgs:   opts.BuildArgs,
		Labels:      opts.Labels,
		PullParent:  opts.Pull,
	}

	resp, err := c.ImageBuild(ctx, buildContext, options)
	if err != nil {
		return fmt.Errorf("building image: %w", err)
	}
	defer resp.Body.Close()

	return processBuildOutput(resp.Body, opts.OnProgress)
}

// BuildStreamError reports a failed build with the position of the
// failing Dockerfile instruction, as numbered by the classic builder.
type BuildStreamError struct {
	// Instruction is the 0-based index of the failing instruction, or -1
	// when the stream failed before any instruction started.
	Instruction int

	// TotalInstructions is the instruction count the daemon reported.
	TotalInstructions int

	// Message is the daemon's error message.
	Message string

	// Output holds the output lines of the failing instruction.
	Output []string
}

func (e *BuildStreamError) Error() string {
	return fmt.Sprintf("build error: %s", e.Message)
}

// buildEvent represents a Docker build stream event.
type buildEvent struct {
	Stream      string `json:"stream"`
	Error       string `json:"error"`
	ErrorDetail struct {
		Message string `json:"message"`
	} `json:"errorDetail"`
}

// legacyStepRe matches classic builder step lines: "Step N/M : INSTRUCTION args".
var legacyStepRe = regexp.MustCompile(`^Step (\d+)/(\d+) : (.+)$`)

// maxCapturedOutputLines bounds the output retained for the failing
// instruction. Enough for a useful excerpt without holding a full log.
const maxCapturedOutputLines = 50

// processBuildOutput consumes the daemon's JSON event stream, forwarding
// structured progress events via the callback and tracking the current
// instruction so a failure can be attributed.
func processBuildOutput(reader io.Reader, onProgress hull.BuildProgressFunc) error {
	scanner := bufio.NewScanner(reader)
	var parseErrors int
	currentInstruction := -1
	totalInstructions := 0
	currentCached := false
	var currentName string
	var output []string

	emit := func(ev hull.BuildProgressEvent) {
		if onProgress != nil {
			onProgress(ev)
		}
	}

	finishCurrent := func() {
		if currentInstruction < 0 {
			return
		}
		status := hull.BuildStepComplete
		if currentCached {
			status = hull.BuildStepCached
		}
		emit(hull.BuildProgressEvent{
			StepID:     fmt.Sprintf("instruction-%d", currentInstruction),
			StepName:   currentName,
			StepIndex:  currentInstruction,
			TotalSteps: totalInstructions,
			Status:     status,
			Cached:     currentCached,
		})
	}

	for scanner.Scan() {
		var event buildEvent

		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			parseErrors++
			logger.Debug().
				Err(err).
				Str("raw", string(scanner.Bytes())).
				Msg("failed to parse build output event")
			if parseErrors > 10 {
				return fmt.Errorf("build output stream appears corrupted: %d consecutive parse failures", parseErrors)
			}
			continue
		}
		parseErrors = 0

		message := event.Error
		if message == "" {
			message = event.ErrorDetail.Message
		}
		if message != "" {
			if currentInstruction >= 0 {
				emit(hull.BuildProgressEvent{
					StepID:     fmt.Sprintf("instruction-%d", currentInstruction),
					StepName:   currentName,
					StepIndex:  currentInstruction,
					TotalSteps: totalInstructions,
					Status:     hull.BuildStepError,
					Error:      message,
				})
			}
			return &BuildStreamError{
				Instruction:       currentInstruction,
				TotalInstructions: totalInstructions,
				Message:           message,
				Output:            output,
			}
		}

		stream := strings.TrimSpace(event.Stream)
		if stream == "" {
			continue
		}

		if m := legacyStepRe.FindStringSubmatch(stream); m != nil {
			var stepNum, total int
			fmt.Sscanf(m[1], "%d", &stepNum)
			fmt.Sscanf(m[2], "%d", &total)

			finishCurrent()

			currentInstruction = stepNum - 1 // 0-based
			totalInstructions = total
			currentCached = false
			currentName = m[3]
			output = output[:0]

			emit(hull.BuildProgressEvent{
				StepID:     fmt.Sprintf("instruction-%d", currentInstruction),
				StepName:   currentName,
				StepIndex:  currentInstruction,
				TotalSteps: totalInstructions,
				Status:     hull.BuildStepRunning,
			})
			continue
		}

		if strings.HasPrefix(stream, "---> Using cache") && currentInstruction >= 0 {
			currentCached = true
			emit(hull.BuildProgressEvent{
				StepID:     fmt.Sprintf("instruction-%d", currentInstruction),
				StepName:   currentName,
				StepIndex:  currentInstruction,
				TotalSteps: totalInstructions,
				Status:     hull.BuildStepCached,
				Cached:     true,
			})
			continue
		}

		if currentInstruction >= 0 {
			if !strings.HasPrefix(stream, "--->") && len(output) < maxCapturedOutputLines {
				output = append(output, stream)
			}
			emit(hull.BuildProgressEvent{
				StepID:     fmt.Sprintf("instruction-%d", currentInstruction),
				StepName:   currentName,
				StepIndex:  currentInstruction,
				TotalSteps: totalInstructions,
				Status:     hull.BuildStepRunning,
				LogLine:    stream,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading build output: %w", err)
	}

	finishCurrent()

	logger.Debug().Msg("image build complete")
	return nil
}

// isNotFoundError checks if an error indicates a resource was not found.
func isNotFoundError(err error) bool {
	if cerrdefs.IsNotFound(err) {
		return true
	}
	var dockerErr *hull.DockerError
	if errors.As(err, &dockerErr) {
		return strings.Contains(dockerErr.Message, "not found") ||
			strings.Contains(dockerErr.Message, "No such")
	}
	return strings.Contains(err.Error(), "not found") ||
		strings.Contains(err.Error(), "No such")
}
