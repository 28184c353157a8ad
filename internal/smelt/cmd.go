// Package smelt holds the CLI entry point shared by the smelt binary.
package smelt

import (
	"errors"
	"fmt"
	"os"

	"github.com/smeltlabs/smelt/internal/cmd/factory"
	"github.com/smeltlabs/smelt/internal/cmd/root"
	"github.com/smeltlabs/smelt/internal/cmdutil"
	"github.com/smeltlabs/smelt/internal/logger"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Main is the entry point for the smelt CLI. It wires the factory,
// builds the command tree, and maps errors onto exit codes.
func Main() int {
	defer logger.CloseFileWriter()

	f := factory.New(Version, Commit)
	defer f.CloseClient()

	rootCmd := root.NewCmdRoot(f, Version, Commit)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return exitOK
	}

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if errors.Is(err, cmdutil.SilentError) {
		return exitError
	}

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprintln(os.Stderr, flagErr.Error())
		fmt.Fprintln(os.Stderr, cmd.UsageString())
		return exitUsage
	}

	cmdutil.PrintUserError(f.IOStreams, err)
	return exitError
}
