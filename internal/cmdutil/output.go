package cmdutil

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smeltlabs/smelt/internal/iostreams"
	"github.com/smeltlabs/smelt/internal/provision"
)

// userFormattedError is a duck-typed interface for errors that can format
// themselves for user display. hull.DockerError satisfies this interface.
type userFormattedError interface {
	FormatUserError() string
}

// PrintUserError renders an error for the user, using the richest
// formatting the error type supports.
func PrintUserError(ios *iostreams.IOStreams, err error) {
	if err == nil {
		return
	}
	cs := ios.ColorScheme()

	var stepErr *provision.StepError
	if errors.As(err, &stepErr) {
		fmt.Fprintf(ios.ErrOut, "%s %s\n", cs.FailureIcon(), stepErr.Error())
		if out := stepErr.FormatOutput(); out != "" {
			fmt.Fprintf(ios.ErrOut, "\n%s\n", cs.Gray(out))
		}
		if !stepErr.IsBaseImageFailure() {
			fmt.Fprintln(ios.ErrOut, "\nNo image was published. Fix the step and run 'smelt build' again.")
		}
		return
	}

	var missing *provision.MissingArtifactError
	if errors.As(err, &missing) {
		fmt.Fprintf(ios.ErrOut, "%s %s\n", cs.FailureIcon(), missing.Error())
		fmt.Fprintln(ios.ErrOut, "\nNo step was executed.")
		return
	}

	var ufErr userFormattedError
	if errors.As(err, &ufErr) {
		fmt.Fprint(ios.ErrOut, ufErr.FormatUserError())
		return
	}

	fmt.Fprintf(ios.ErrOut, "Error: %s\n", err)
}

// PrintWarning prints a warning line to stderr.
func PrintWarning(ios *iostreams.IOStreams, format string, args ...any) {
	cs := ios.ColorScheme()
	fmt.Fprintf(ios.ErrOut, "%s "+format+"\n", append([]any{cs.WarningIcon()}, args...)...)
}

// PrintStatus prints a status message to stderr unless quiet is enabled.
func PrintStatus(ios *iostreams.IOStreams, quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(ios.ErrOut, format+"\n", args...)
	}
}

// OutputJSON marshals data to stdout as indented JSON.
func OutputJSON(ios *iostreams.IOStreams, data any) error {
	enc := json.NewEncoder(ios.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
