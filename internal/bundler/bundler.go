// Package bundler assembles the build context sent to the Docker daemon:
// the rendered Dockerfile plus every artifact the plan declares, at the
// relative paths the Dockerfile's COPY instructions expect.
package bundler

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"

	"github.com/smeltlabs/smelt/internal/provision"
)

// Bundler builds tar archives for provisioning runs.
type Bundler struct {
	plan       provision.Plan
	dockerfile []byte
	ignore     *patternmatcher.PatternMatcher
}

// New creates a bundler for the given plan and rendered Dockerfile.
// Ignore patterns are loaded from the context directory's ignore file if
// one exists.
func New(plan provision.Plan, dockerfile []byte) (*Bundler, error) {
	ignore, err := loadIgnoreMatcher(plan.ContextDir)
	if err != nil {
		return nil, err
	}
	return &Bundler{plan: plan, dockerfile: dockerfile, ignore: ignore}, nil
}

// Bundle produces the build context archive: the Dockerfile at the root,
// then each step's artifact at its declared relative path, in step order.
func (b *Bundler) Bundle() (io.Reader, error) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)

	if err := addFileToTar(tw, "Dockerfile", b.dockerfile); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, step := range b.plan.Steps {
		rel := filepath.ToSlash(step.Artifact)
		if seen[rel] {
			continue
		}
		seen[rel] = true

		path := step.Artifact
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.plan.ContextDir, path)
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("staging artifact %s: %w", step.Artifact, err)
		}

		if info.IsDir() {
			if err := b.addDirToTar(tw, path, rel); err != nil {
				return nil, err
			}
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("staging artifact %s: %w", step.Artifact, err)
		}
		if err := addFileToTar(tw, rel, content); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}

	return buf, nil
}

// addDirToTar walks a directory artifact and stages every file under it,
// skipping paths the ignore matcher excludes.
func (b *Bundler) addDirToTar(tw *tar.Writer, dir, prefix string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		name := prefix + "/" + filepath.ToSlash(rel)
		if b.ignore != nil {
			skip, err := b.ignore.MatchesOrParentMatches(name)
			if err != nil {
				return fmt.Errorf("matching ignore patterns for %s: %w", name, err)
			}
			if skip {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if info.IsDir() {
			header := &tar.Header{
				Name:     name + "/",
				Mode:     0o755,
				Typeflag: tar.TypeDir,
			}
			return tw.WriteHeader(header)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("staging %s: %w", name, err)
		}
		return addFileToTar(tw, name, content)
	})
}

// addFileToTar adds a file to a tar archive. Shell scripts are staged
// executable so step commands can invoke them directly.
func addFileToTar(tw *tar.Writer, name string, content []byte) error {
	header := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(content)),
	}
	if strings.HasSuffix(name, ".sh") {
		header.Mode = 0o755
	}

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := tw.Write(content); err != nil {
		return fmt.Errorf("failed to write tar content for %s: %w", name, err)
	}
	return nil
}
