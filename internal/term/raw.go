// Package term manages the local terminal for interactive container
// sessions: raw mode, size queries, and bidirectional streaming.
package term

import (
	"os"

	"golang.org/x/term"
)

// RawMode switches a terminal file descriptor into raw mode and restores
// it afterwards. Enable and Restore are idempotent.
type RawMode struct {
	fd      int
	restore func() error
}

// NewRawMode creates a RawMode manager for the given file descriptor.
func NewRawMode(fd int) *RawMode {
	return &RawMode{fd: fd}
}

// NewRawModeStdin creates a RawMode manager for stdin.
func NewRawModeStdin() *RawMode {
	return NewRawMode(int(os.Stdin.Fd()))
}

// Enable puts the terminal into raw mode.
func (r *RawMode) Enable() error {
	if r.restore != nil {
		return nil
	}

	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return err
	}
	r.restore = func() error { return term.Restore(r.fd, state) }
	return nil
}

// Restore returns the terminal to its original state.
func (r *RawMode) Restore() error {
	if r.restore == nil {
		return nil
	}

	err := r.restore()
	if err == nil {
		r.restore = nil
	}
	return err
}

// IsTerminal checks if the file descriptor is a terminal.
func (r *RawMode) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// GetSize returns the current terminal size.
func (r *RawMode) GetSize() (width, height int, err error) {
	return term.GetSize(r.fd)
}
