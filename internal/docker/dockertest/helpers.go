// Package dockertest provides fakes and scripted daemon responses for
// testing smelt's Docker layer without a running daemon.
package dockertest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"

	"github.com/smeltlabs/smelt/internal/docker"
	"github.com/smeltlabs/smelt/pkg/hull/hulltest"
)

// NewClient returns a Client backed by the given fake API client.
func NewClient(fake *hulltest.FakeAPIClient) *docker.Client {
	return docker.NewClientWithEngine(hulltest.NewEngine(fake))
}

// BuildStream scripts a classic-builder JSON event stream, line by line,
// the way the daemon emits it.
type BuildStream struct {
	buf bytes.Buffer
}

// NewBuildStream creates an empty scripted build stream.
func NewBuildStream() *BuildStream {
	return &BuildStream{}
}

func (b *BuildStream) event(v any) *BuildStream {
	raw, _ := json.Marshal(v)
	b.buf.Write(raw)
	b.buf.WriteByte('\n')
	return b
}

// Step appends a "Step N/M : INSTRUCTION" header event.
func (b *BuildStream) Step(n, total int, instruction string) *BuildStream {
	return b.event(map[string]string{
		"stream": fmt.Sprintf("Step %d/%d : %s\n", n, total, instruction),
	})
}

// Log appends an output line for the current step.
func (b *BuildStream) Log(line string) *BuildStream {
	return b.event(map[string]string{"stream": line + "\n"})
}

// Cached appends a cache-hit marker for the current step.
func (b *BuildStream) Cached() *BuildStream {
	return b.event(map[string]string{"stream": " ---> Using cache\n"})
}

// Error appends a terminal error event.
func (b *BuildStream) Error(message string) *BuildStream {
	return b.event(map[string]any{
		"errorDetail": map[string]string{"message": message},
		"error":       message,
	})
}

// Success appends the final success event.
func (b *BuildStream) Success(imageID string) *BuildStream {
	return b.event(map[string]string{
		"stream": fmt.Sprintf("Successfully built %s\n", imageID),
	})
}

// Reader returns the scripted stream as the daemon would deliver it.
func (b *BuildStream) Reader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b.buf.Bytes()))
}

// ImageBuildFn returns an ImageBuildFn whose response body replays this
// stream and which records the build options it was called with.
func (b *BuildStream) ImageBuildFn(captured *types.ImageBuildOptions) func(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	return func(_ context.Context, _ io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
		if captured != nil {
			*captured = options
		}
		return types.ImageBuildResponse{Body: b.Reader()}, nil
	}
}
