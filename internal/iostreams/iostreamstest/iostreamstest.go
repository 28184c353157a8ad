// Package iostreamstest provides IOStreams doubles backed by buffers.
package iostreamstest

import (
	"bytes"

	"github.com/smeltlabs/smelt/internal/iostreams"
)

// New returns an IOStreams wired to in-memory buffers for tests.
func New() (ios *iostreams.IOStreams, in, out, errOut *bytes.Buffer) {
	in = &bytes.Buffer{}
	out = &bytes.Buffer{}
	errOut = &bytes.Buffer{}

	ios = &iostreams.IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}
	ios.SetColorEnabled(false)
	return ios, in, out, errOut
}
