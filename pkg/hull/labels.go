// Package hull wraps the Docker SDK with label-based resource isolation.
// Every image and container created through a hull Engine carries a managed
// label, and list/inspect/remove operations only see managed resources.
// Applications configure the label prefix so multiple tools can share a
// daemon without stepping on each other.
package hull

import (
	"maps"

	"github.com/docker/docker/api/types/filters"
)

// LabelConfig defines labels to apply to different resource types.
// Nil maps are valid and apply no labels.
type LabelConfig struct {
	// Default labels applied to all resource types.
	Default map[string]string

	// Container-specific labels (merged with Default).
	Container map[string]string

	// Image-specific labels (merged with Default).
	Image map[string]string
}

// ContainerLabels returns the merged labels for containers.
func (c *LabelConfig) ContainerLabels(extra ...map[string]string) map[string]string {
	all := append([]map[string]string{c.Default, c.Container}, extra...)
	return MergeLabels(all...)
}

// ImageLabels returns the merged labels for images.
func (c *LabelConfig) ImageLabels(extra ...map[string]string) map[string]string {
	all := append([]map[string]string{c.Default, c.Image}, extra...)
	return MergeLabels(all...)
}

// MergeLabels merges label maps, later maps overriding earlier ones.
func MergeLabels(labelMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range labelMaps {
		maps.Copy(result, m)
	}
	return result
}

// LabelFilter creates a Docker filter for a single label key=value pair.
// The key should include the prefix (e.g. "com.smelt.managed").
func LabelFilter(key, value string) filters.Args {
	return filters.NewArgs(filters.Arg("label", key+"="+value))
}

// LabelFilterMultiple creates a Docker filter matching all given labels.
func LabelFilterMultiple(labels map[string]string) filters.Args {
	f := filters.NewArgs()
	for k, v := range labels {
		f.Add("label", k+"="+v)
	}
	return f
}
