package term

import (
	"context"
	"io"
	"os"

	"github.com/docker/docker/api/types"

	"github.com/smeltlabs/smelt/internal/logger"
)

// PTYHandler wires the local terminal to a container's TTY: raw mode on
// the way in, a hijacked stream in both directions, and an initial size
// push so the remote terminal matches the local one.
type PTYHandler struct {
	stdin   *os.File
	stdout  *os.File
	rawMode *RawMode
}

// NewPTYHandler creates a PTY handler bound to the process terminal.
func NewPTYHandler() *PTYHandler {
	return &PTYHandler{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		rawMode: NewRawModeStdin(),
	}
}

// Setup puts the local terminal into raw mode. Non-terminal stdin is
// left untouched so piped input keeps working.
func (p *PTYHandler) Setup() error {
	if !p.rawMode.IsTerminal() {
		logger.Debug().Msg("stdin is not a terminal, skipping raw mode")
		return nil
	}

	if err := p.rawMode.Enable(); err != nil {
		return err
	}

	logger.Debug().Msg("terminal set to raw mode")
	return nil
}

// Restore returns the terminal to its original state.
func (p *PTYHandler) Restore() error {
	return p.rawMode.Restore()
}

// StreamWithResize copies data between the local terminal and the
// container until the container side closes, pushing the current
// terminal size first so the remote TTY starts at the right dimensions.
func (p *PTYHandler) StreamWithResize(
	ctx context.Context,
	hijacked types.HijackedResponse,
	resizeFunc func(height, width uint) error,
) error {
	defer hijacked.Close()

	if resizeFunc != nil && p.rawMode.IsTerminal() {
		if width, height, err := p.rawMode.GetSize(); err == nil {
			_ = resizeFunc(uint(height), uint(width))
		}
	}

	// Stdin never reaches EOF on a terminal, so only the output copy
	// decides when the session is over.
	go func() {
		_, err := io.Copy(hijacked.Conn, p.stdin)
		if err != nil && err != io.EOF {
			logger.Debug().Err(err).Msg("stdin copy ended")
		}
		_ = hijacked.CloseWrite()
	}()

	outDone := make(chan error, 1)
	go func() {
		_, err := io.Copy(p.stdout, hijacked.Reader)
		if err == io.EOF {
			err = nil
		}
		outDone <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-outDone:
		return err
	}
}
