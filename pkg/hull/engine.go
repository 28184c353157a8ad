package hull

import (
	"context"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// DefaultManagedLabel is the default label suffix for marking managed resources.
const DefaultManagedLabel = "managed"

// EngineOptions configures the behavior of the Engine.
type EngineOptions struct {
	// LabelPrefix is the prefix for all managed labels (e.g. "com.smelt").
	LabelPrefix string

	// ManagedLabel is the label key suffix that marks resources as managed.
	// Defaults to "managed". With LabelPrefix "com.smelt" the full key is
	// "com.smelt.managed=true".
	ManagedLabel string

	// Labels configures extra labels per resource type.
	Labels LabelConfig
}

// Engine wraps the Docker client with automatic label-based resource
// isolation. All list operations inject a filter that only returns
// resources managed by this engine.
type Engine struct {
	// APIClient is the underlying Docker API client. Exported so tests can
	// inject a fake; production code should go through Engine methods.
	APIClient client.APIClient

	options EngineOptions

	managedLabelKey   string
	managedLabelValue string
}

// New creates an Engine connected to the Docker daemon and verifies the
// connection.
func New(ctx context.Context, opts EngineOptions) (*Engine, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, ErrDockerNotRunning(err)
	}

	engine := NewWithClient(cli, opts)

	if err := engine.HealthCheck(ctx); err != nil {
		cli.Close()
		return nil, err
	}

	return engine, nil
}

// NewWithClient creates an Engine around an existing API client.
// No connection check is performed. Used by tests and embedders that
// manage the client lifecycle themselves.
func NewWithClient(cli client.APIClient, opts EngineOptions) *Engine {
	if opts.ManagedLabel == "" {
		opts.ManagedLabel = DefaultManagedLabel
	}

	return &Engine{
		APIClient:         cli,
		options:           opts,
		managedLabelKey:   opts.LabelPrefix + "." + opts.ManagedLabel,
		managedLabelValue: "true",
	}
}

// HealthCheck verifies the Docker daemon is reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if _, err := e.APIClient.Ping(ctx); err != nil {
		return ErrDockerNotRunning(err)
	}
	return nil
}

// Close releases Docker client resources.
func (e *Engine) Close() error {
	return e.APIClient.Close()
}

// Options returns the engine options.
func (e *Engine) Options() EngineOptions {
	return e.options
}

// ManagedLabelKey returns the full managed label key (e.g. "com.smelt.managed").
func (e *Engine) ManagedLabelKey() string {
	return e.managedLabelKey
}

// ManagedLabelValue returns the managed label value (always "true").
func (e *Engine) ManagedLabelValue() string {
	return e.managedLabelValue
}

// injectManagedFilter adds the managed label filter to existing filters so
// list operations only return managed resources.
func (e *Engine) injectManagedFilter(existing filters.Args) filters.Args {
	if existing.Len() == 0 {
		existing = filters.NewArgs()
	}
	existing.Add("label", e.managedLabelKey+"="+e.managedLabelValue)
	return existing
}

// newManagedFilter creates a new filter with just the managed label.
func (e *Engine) newManagedFilter() filters.Args {
	return filters.NewArgs(
		filters.Arg("label", e.managedLabelKey+"="+e.managedLabelValue),
	)
}

// managedLabels returns the base labels that mark a resource as managed.
func (e *Engine) managedLabels() map[string]string {
	return map[string]string{
		e.managedLabelKey: e.managedLabelValue,
	}
}

// containerLabels returns labels for a container, including the managed label.
func (e *Engine) containerLabels(extra ...map[string]string) map[string]string {
	base := e.managedLabels()
	configLabels := e.options.Labels.ContainerLabels()
	all := append([]map[string]string{base, configLabels}, extra...)
	return MergeLabels(all...)
}

// imageLabels returns labels for an image, including the managed label.
func (e *Engine) imageLabels(extra ...map[string]string) map[string]string {
	base := e.managedLabels()
	configLabels := e.options.Labels.ImageLabels()
	all := append([]map[string]string{base, configLabels}, extra...)
	return MergeLabels(all...)
}

// isManagedLabelPresent reports whether the managed label is set in labels.
func (e *Engine) isManagedLabelPresent(labels map[string]string) bool {
	return labels[e.managedLabelKey] == e.managedLabelValue
}
