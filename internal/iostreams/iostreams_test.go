package iostreams

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStreams() (*IOStreams, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	ios := &IOStreams{In: &bytes.Buffer{}, Out: out, ErrOut: errOut}
	return ios, out, errOut
}

func TestIOStreams_BuffersAreNotTTYs(t *testing.T) {
	ios, _, _ := testStreams()

	assert.False(t, ios.IsInputTTY())
	assert.False(t, ios.IsOutputTTY())
	assert.False(t, ios.IsStderrTTY())
	assert.False(t, ios.IsInteractive())
}

func TestIOStreams_ColorToggle(t *testing.T) {
	ios, _, _ := testStreams()

	ios.SetColorEnabled(true)
	assert.True(t, ios.ColorEnabled())
	assert.True(t, ios.ColorScheme().Enabled())

	ios.SetColorEnabled(false)
	assert.False(t, ios.ColorEnabled())
}

func TestIOStreams_ProgressDisabledIsNoop(t *testing.T) {
	ios, _, errOut := testStreams()

	ios.StartProgressIndicatorWithLabel("working")
	ios.StopProgressIndicator()

	assert.Empty(t, errOut.String())
}

func TestRunWithProgress(t *testing.T) {
	ios, _, _ := testStreams()

	ran := false
	err := ios.RunWithProgress("working", func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	wantErr := errors.New("boom")
	err = ios.RunWithProgress("working", func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}
