package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/docupsert/upsert"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Document written, skipped or printed
	ExitFailure      = 1 // Store failure, merge rejection, conflicts exhausted
	ExitCommandError = 2 // Invalid arguments or input document
	ExitNotFound     = 3 // get on a missing document
)

// ExitCode maps an error returned by a command onto an exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, upsert.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, upsert.ErrInvalidRequest), errors.Is(err, errBadInput):
		return ExitCommandError
	default:
		return ExitFailure
	}
}

// usageArgs marks argument validation failures as command errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errBadInput, err)
		}
		return nil
	}
}
