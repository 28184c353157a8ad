package hull

import (
	"fmt"
	"time"
)

// BuildStepStatus describes the state of a single build step.
type BuildStepStatus int

const (
	// BuildStepRunning means the step is currently executing.
	BuildStepRunning BuildStepStatus = iota
	// BuildStepComplete means the step finished successfully.
	BuildStepComplete
	// BuildStepCached means the step was satisfied from the build cache.
	BuildStepCached
	// BuildStepError means the step failed.
	BuildStepError
)

// String returns the display name of the status.
func (s BuildStepStatus) String() string {
	switch s {
	case BuildStepRunning:
		return "running"
	case BuildStepComplete:
		return "complete"
	case BuildStepCached:
		return "cached"
	case BuildStepError:
		return "error"
	default:
		return "unknown"
	}
}

// BuildProgressEvent is a structured event emitted while a build runs.
// StepIndex is 0-based over the Dockerfile instructions; TotalSteps is the
// instruction count reported by the builder.
type BuildProgressEvent struct {
	StepID     string
	StepName   string
	StepIndex  int
	TotalSteps int
	Status     BuildStepStatus
	Cached     bool
	LogLine    string
	Error      string
}

// BuildProgressFunc receives build progress events in stream order.
type BuildProgressFunc func(BuildProgressEvent)

// FormatBuildDuration returns a compact duration string with sub-second
// precision for short builds.
func FormatBuildDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := d.Seconds()
	switch {
	case secs < 60:
		return fmt.Sprintf("%.1fs", secs)
	case secs < 3600:
		m := int(secs) / 60
		s := int(secs) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		h := int(secs) / 3600
		m := (int(secs) % 3600) / 60
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
