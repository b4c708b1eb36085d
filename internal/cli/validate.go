package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statevet/statevet/internal/validate"
)

// ValidationResult is the data payload of the validate command.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []validate.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <definition-file>",
		Short: "Validate an FSM definition document",
		Long: "Validates a definition document (.json, .yaml, or .yml): schema shape,\n" +
			"structural rules, and declared invariants. Exits 0 when the definition\n" +
			"is accepted, 1 when it is rejected, 2 on a command error.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return runValidate(cmd, formatter, args[0], strict)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVar(&strict, "strict", false,
		"require at least one invariant and a declared initial state")

	return cmd
}

func runValidate(cmd *cobra.Command, formatter *OutputFormatter, path string, strict bool) error {
	formatter.VerboseLog("loading definition from %s", path)

	def, loadErrs := LoadDefinition(path)
	if len(loadErrs) > 0 {
		for _, err := range loadErrs {
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				formatter.Error(ErrCodeCommand, exitErr.Error(), nil)
				return exitErr
			}
		}
		docErrs := documentErrors(loadErrs)
		if formatter.Format == "json" {
			formatter.Error(docErrs[0].Code, "definition document rejected", docErrs)
		} else {
			for _, docErr := range docErrs {
				formatter.Error(docErr.Code, docErr.Message, nil)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d document error(s)", len(docErrs)))
	}

	formatter.VerboseLog("definition loaded: %d states, %d transitions, %d invariants",
		len(def.States), len(def.Transitions), len(def.Invariants))

	violations := validate.Validate(def)

	if strict && len(violations) == 0 {
		if len(def.Invariants) == 0 {
			violations = append(violations, validate.ValidationError{
				Field:   "invariants",
				Message: "strict mode requires at least one invariant",
				Code:    validate.ErrStrictNoInvariants,
			})
		}
		if def.InitialState() == "" {
			violations = append(violations, validate.ValidationError{
				Field:   "defaults.initialState",
				Message: "strict mode requires a declared initial state",
				Code:    validate.ErrStrictNoInitialState,
			})
		}
	}

	result := ValidationResult{Valid: len(violations) == 0, Errors: violations}

	if formatter.Format == "json" {
		if len(violations) > 0 {
			formatter.Success(result)
			return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(violations)))
		}
		return formatter.Success(result)
	}

	if len(violations) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %d error(s)\n", path, len(violations))
		for _, v := range violations {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v.Error())
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(violations)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: definition valid\n", path)
	return nil
}
