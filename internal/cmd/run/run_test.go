package run

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/docker/dockertest"
	"github.com/smeltlabs/smelt/internal/iostreams/iostreamstest"
	"github.com/smeltlabs/smelt/internal/provision"
	"github.com/smeltlabs/smelt/pkg/hull/hulltest"
)

func TestNewCmdRun(t *testing.T) {
	f := &cmdutil.Factory{}
	cmd := NewCmdRun(f, nil)

	require.Equal(t, "run [COMMAND [ARG...]]", cmd.Use)
	require.NotEmpty(t, cmd.Short)
	require.NotEmpty(t, cmd.Example)
	require.NotNil(t, cmd.RunE)
}

func TestNewCmdRun_SplitsSingleArgument(t *testing.T) {
	ios, _, _, _ := iostreamstest.New()
	f := &cmdutil.Factory{IOStreams: ios}

	var got *RunOptions
	cmd := NewCmdRun(f, func(_ context.Context, opts *RunOptions) error {
		got = opts
		return nil
	})
	cmd.SetArgs([]string{"ls -la /opt/smelt"})

	_, err := cmd.ExecuteC()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"ls", "-la", "/opt/smelt"}, got.Command)
}

func TestNewCmdRun_MultipleArgsPassedVerbatim(t *testing.T) {
	ios, _, _, _ := iostreamstest.New()
	f := &cmdutil.Factory{IOStreams: ios}

	var got *RunOptions
	cmd := NewCmdRun(f, func(_ context.Context, opts *RunOptions) error {
		got = opts
		return nil
	})
	cmd.SetArgs([]string{"python3", "train.py", "--epochs=3"})

	_, err := cmd.ExecuteC()
	require.NoError(t, err)
	assert.Equal(t, []string{"python3", "train.py", "--epochs=3"}, got.Command)
}

func TestWaitOutcome(t *testing.T) {
	tests := []struct {
		name     string
		result   container.WaitResponse
		wantErr  bool
		wantCode int
	}{
		{name: "clean exit", result: container.WaitResponse{StatusCode: 0}},
		{name: "non-zero exit", result: container.WaitResponse{StatusCode: 3}, wantErr: true, wantCode: 3},
		{name: "daemon error", result: container.WaitResponse{Error: &container.WaitExitError{Message: "boom"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := waitOutcome(tt.result)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantCode != 0 {
				var exitErr *cmdutil.ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tt.wantCode, exitErr.Code)
			}
		})
	}
}

// muxedStream builds a stdcopy-multiplexed stream the way the daemon
// writes it for non-TTY attaches.
func muxedStream(t *testing.T, stdout, stderr string) *bufio.Reader {
	t.Helper()
	var buf bytes.Buffer
	if stdout != "" {
		w := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
		_, err := w.Write([]byte(stdout))
		require.NoError(t, err)
	}
	if stderr != "" {
		w := stdcopy.NewStdWriter(&buf, stdcopy.Stderr)
		_, err := w.Write([]byte(stderr))
		require.NoError(t, err)
	}
	return bufio.NewReader(&buf)
}

func TestAttachAndWait_NonTTY(t *testing.T) {
	ios, _, out, errOut := iostreamstest.New()
	opts := &RunOptions{IOStreams: ios}

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	hijacked := types.HijackedResponse{
		Conn:   clientConn,
		Reader: muxedStream(t, "step output\n", "warning line\n"),
	}

	waitCh := make(chan container.WaitResponse, 1)
	waitErrCh := make(chan error, 1)
	waitCh <- container.WaitResponse{StatusCode: 0}

	err := attachAndWait(context.Background(), opts, nil, "cid", false, hijacked, waitCh, waitErrCh)
	require.NoError(t, err)

	assert.Equal(t, "step output\n", out.String())
	assert.Equal(t, "warning line\n", errOut.String())
}

func TestAttachAndWait_NonTTYExitCode(t *testing.T) {
	ios, _, _, _ := iostreamstest.New()
	opts := &RunOptions{IOStreams: ios}

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	hijacked := types.HijackedResponse{
		Conn:   clientConn,
		Reader: muxedStream(t, "", ""),
	}

	waitCh := make(chan container.WaitResponse, 1)
	waitErrCh := make(chan error, 1)
	waitCh <- container.WaitResponse{StatusCode: 7}

	err := attachAndWait(context.Background(), opts, nil, "cid", false, hijacked, waitCh, waitErrCh)

	var exitErr *cmdutil.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 7, exitErr.Code)
}

func TestAttachAndWait_ContextCanceled(t *testing.T) {
	ios, _, _, _ := iostreamstest.New()
	opts := &RunOptions{IOStreams: ios}

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	// A reader that never delivers data keeps the demux goroutine alive.
	pr, pw := net.Pipe()
	defer pw.Close()
	hijacked := types.HijackedResponse{
		Conn:   clientConn,
		Reader: bufio.NewReader(pr),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := attachAndWait(ctx, opts, nil, "cid", false, hijacked, make(chan container.WaitResponse), make(chan error))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnsureImage_NoBuildMissingImage(t *testing.T) {
	fake := &hulltest.FakeAPIClient{
		ImageInspectWithRawFn: func(ctx context.Context, imageID string) (types.ImageInspect, []byte, error) {
			return types.ImageInspect{}, nil, os.ErrNotExist
		},
	}
	client := dockertest.NewClient(fake)

	ios, _, _, _ := iostreamstest.New()
	opts := &RunOptions{IOStreams: ios, NoBuild: true}

	_, err := ensureImage(context.Background(), opts, client, provision.Plan{ImageName: "lab/neuro"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smelt build")
}
