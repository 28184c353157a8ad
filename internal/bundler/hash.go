package bundler

import (
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"sort"

	"github.com/opencontainers/go-digest"
)

// hashTagLength is the number of digest characters used in image tags.
const hashTagLength = 12

// ContentHash computes a digest over the rendered Dockerfile and every
// artifact's content, returning a short hex prefix usable as an image tag.
// Two runs with identical inputs produce identical hashes, which is how
// unchanged builds are detected and skipped.
func (b *Bundler) ContentHash() (string, error) {
	digester := digest.SHA256.Digester()
	h := digester.Hash()

	h.Write(b.dockerfile)

	// Artifacts in sorted order for determinism; each entry is framed
	// with its name so renames change the hash even when content doesn't.
	paths := b.plan.ArtifactPaths()
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	for _, artifact := range sorted {
		path := artifact
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.plan.ContextDir, path)
		}

		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("hashing artifact %s: %w", artifact, err)
		}

		if info.IsDir() {
			if err := b.hashDir(h, path, artifact); err != nil {
				return "", err
			}
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("hashing artifact %s: %w", artifact, err)
		}
		h.Write([]byte("\x00" + filepath.ToSlash(artifact) + "\x00"))
		h.Write(content)
	}

	return digester.Digest().Encoded()[:hashTagLength], nil
}

// hashDir folds every staged regular file under dir into the hash. Walk
// order is lexical, so the result is deterministic. The ignore matcher is
// applied the same way Bundle applies it: a file the context excludes
// must not affect the hash either.
func (b *Bundler) hashDir(h hash.Hash, dir, prefix string) error {
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

		name := filepath.ToSlash(prefix) + "/" + filepath.ToSlash(rel)
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

		if !info.Mode().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", path, err)
		}
		h.Write([]byte("\x00" + name + "\x00"))
		h.Write(content)
		return nil
	})
}
