package docker

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"
	"github.com/google/uuid"
)

// NamePrefix is used for smelt resource names.
const NamePrefix = "smelt"

// DefaultTag is the tag applied when the user doesn't pick one.
const DefaultTag = "latest"

// NormalizeImageName validates and normalizes an image repository name.
func NormalizeImageName(name string) (string, error) {
	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return "", fmt.Errorf("invalid image name %q: %w", name, err)
	}
	if _, hasTag := named.(reference.Tagged); hasTag {
		return "", fmt.Errorf("image name %q must not include a tag", name)
	}
	return reference.FamiliarName(named), nil
}

// ImageRef joins an image name and tag into a full reference, applying
// DefaultTag when the reference has no tag of its own.
func ImageRef(name, tag string) string {
	if tag == "" {
		tag = DefaultTag
	}
	return fmt.Sprintf("%s:%s", name, tag)
}

// ImageTagWithHash generates a content-addressed image reference:
// name:smelt-<hash>.
func ImageTagWithHash(name, hash string) string {
	return fmt.Sprintf("%s:%s-%s", name, NamePrefix, hash)
}

// ParseHashTag extracts the content hash from a content-addressed tag.
// Returns "" and false for tags that aren't content-addressed.
func ParseHashTag(tag string) (string, bool) {
	rest, found := strings.CutPrefix(tag, NamePrefix+"-")
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// RunContainerName generates a unique name for a run container:
// smelt-run-<short id>.
func RunContainerName() (name, runID string) {
	runID = uuid.NewString()
	return fmt.Sprintf("%s-run-%s", NamePrefix, runID[:8]), runID
}
