// Package cli implements the statevet command line: a thin wrapper that
// feeds definition and trail files into the validation core and prints
// structured results. All decisions are made by internal/validate and
// internal/audit; this package only loads, sequences, and formats.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats lists the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the statevet root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "statevet",
		Short: "statevet - FSM definition and audit trail validation",
		Long: "Validates declarative finite-state-machine definitions and the audit\n" +
			"trails produced by processes that follow them. Accepts or rejects with\n" +
			"stable error codes; never executes a transition.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))

	return cmd
}

// Execute runs the root command and returns any error for exit-code
// handling by the caller.
func Execute() error {
	return NewRootCommand().Execute()
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
