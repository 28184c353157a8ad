// Package docker provides smelt-specific Docker middleware.
// It wraps pkg/hull with smelt's label conventions and naming schemes.
package docker

import (
	"time"

	"github.com/docker/docker/api/types/filters"
)

// Smelt label keys for managed resources.
const (
	// EngineLabelPrefix is the label prefix for hull.EngineOptions
	// (without trailing dot).
	EngineLabelPrefix = "com.smelt"

	// EngineManagedLabel is the managed label key for hull.EngineOptions.
	EngineManagedLabel = "managed"

	// LabelPrefix is the prefix for all smelt labels.
	LabelPrefix = EngineLabelPrefix + "."

	// LabelManaged marks a resource as managed by smelt.
	LabelManaged = LabelPrefix + "managed"

	// LabelImage identifies the manifest's image name on built images.
	LabelImage = LabelPrefix + "image"

	// LabelBaseImage stores the base image a built image was derived from.
	LabelBaseImage = LabelPrefix + "base-image"

	// LabelContentHash stores the content hash of the inputs that
	// produced a built image.
	LabelContentHash = LabelPrefix + "content-hash"

	// LabelVersion stores the smelt version that created the resource.
	LabelVersion = LabelPrefix + "version"

	// LabelCreated stores the creation timestamp.
	LabelCreated = LabelPrefix + "created"

	// LabelRunID identifies the run session that created a container.
	LabelRunID = LabelPrefix + "run-id"
)

// ManagedLabelValue is the value for the managed label.
const ManagedLabelValue = "true"

// ImageLabels returns labels for a built image.
func ImageLabels(name, baseImage, contentHash, version string) map[string]string {
	labels := map[string]string{
		LabelManaged: ManagedLabelValue,
		LabelCreated: time.Now().Format(time.RFC3339),
	}
	if name != "" {
		labels[LabelImage] = name
	}
	if baseImage != "" {
		labels[LabelBaseImage] = baseImage
	}
	if contentHash != "" {
		labels[LabelContentHash] = contentHash
	}
	if version != "" {
		labels[LabelVersion] = version
	}
	return labels
}

// ContainerLabels returns labels for a run container.
func ContainerLabels(image, runID, version string) map[string]string {
	labels := map[string]string{
		LabelManaged: ManagedLabelValue,
		LabelCreated: time.Now().Format(time.RFC3339),
	}
	if image != "" {
		labels[LabelImage] = image
	}
	if runID != "" {
		labels[LabelRunID] = runID
	}
	if version != "" {
		labels[LabelVersion] = version
	}
	return labels
}

// ImageNameFilter returns a Docker filter for images built for a specific
// manifest image name. Managed-label scoping is injected by the engine.
func ImageNameFilter(name string) filters.Args {
	return filters.NewArgs(filters.Arg("label", LabelImage+"="+name))
}
