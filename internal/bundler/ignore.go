package bundler

import (
	"os"
	"path/filepath"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"

	"github.com/smeltlabs/smelt/internal/config"
)

// loadIgnoreMatcher reads the context directory's ignore file and compiles
// it into a matcher. A missing ignore file means nothing is excluded.
func loadIgnoreMatcher(contextDir string) (*patternmatcher.PatternMatcher, error) {
	if contextDir == "" {
		return nil, nil
	}

	f, err := os.Open(filepath.Join(contextDir, config.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	return patternmatcher.New(patterns)
}
