package bundler

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockFileName is the advisory lock file created in the context directory.
const lockFileName = ".smelt.lock"

// lockRetryInterval is how often lock acquisition is retried.
const lockRetryInterval = 100 * time.Millisecond

// LockContext acquires an advisory file lock on the context directory,
// providing cross-process mutual exclusion for builds sharing a context.
// The returned release function must be called when the build finishes.
func LockContext(ctx context.Context, contextDir string) (release func(), err error) {
	fl := flock.New(filepath.Join(contextDir, lockFileName))

	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring build lock for %s: %w", contextDir, err)
	}
	if !locked {
		return nil, fmt.Errorf("timed out acquiring build lock for %s", contextDir)
	}

	return func() { _ = fl.Unlock() }, nil
}
