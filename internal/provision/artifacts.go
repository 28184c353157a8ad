package provision

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidateArtifacts checks that every step's artifact exists and is
// readable before any step executes. The first missing artifact aborts
// the run with a MissingArtifactError identifying the declaring step.
func (p Plan) ValidateArtifacts() error {
	for i, step := range p.Steps {
		path := step.Artifact
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.ContextDir, path)
		}

		info, err := os.Stat(path)
		if err != nil {
			return &MissingArtifactError{
				Index: i + 1,
				Step:  step,
				Path:  path,
				Err:   err,
			}
		}

		if info.Mode().IsRegular() {
			f, err := os.Open(path)
			if err != nil {
				return &MissingArtifactError{
					Index: i + 1,
					Step:  step,
					Path:  path,
					Err:   fmt.Errorf("not readable: %w", err),
				}
			}
			f.Close()
		}
	}
	return nil
}
