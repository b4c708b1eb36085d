package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statevet/statevet/internal/audit"
	"github.com/statevet/statevet/internal/fsm"
	"github.com/statevet/statevet/internal/store"
)

// VerifyResult is the data payload of the verify command.
type VerifyResult struct {
	Valid     bool                   `json:"valid"`
	Entries   int                    `json:"entries"`
	Violation *audit.TransitionError `json:"violation,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		definitionPath string
		dbPath         string
	)

	cmd := &cobra.Command{
		Use:   "verify [trail-file]",
		Short: "Verify an audit trail against a definition",
		Long: "Replays an audit trail and checks every entry: per-entity continuity\n" +
			"always, declared-transition membership when --definition is given.\n" +
			"The trail comes from a JSON file argument or from --db. Exits 0 when\n" +
			"the trail verifies, 1 on the first violation, 2 on a command error.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return runVerify(cmd, formatter, args, definitionPath, dbPath)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&definitionPath, "definition", "", "definition file to check entries against")
	cmd.Flags().StringVar(&dbPath, "db", "", "read the trail from a SQLite event log instead of a file")

	return cmd
}

func runVerify(cmd *cobra.Command, formatter *OutputFormatter, args []string, definitionPath, dbPath string) error {
	entries, err := loadTrail(cmd, formatter, args, dbPath)
	if err != nil {
		return err
	}

	var def *fsm.Definition
	if definitionPath != "" {
		var loadErrs []error
		def, loadErrs = LoadDefinition(definitionPath)
		if len(loadErrs) > 0 {
			err := combineLoadErrors(loadErrs)
			formatter.Error(loadErrorCode(err), err.Error(), nil)
			return err
		}
		formatter.VerboseLog("checking %d entries against definition %s", len(entries), definitionPath)
	} else {
		formatter.VerboseLog("checking continuity of %d entries (no definition)", len(entries))
	}

	result := VerifyResult{Valid: true, Entries: len(entries)}
	if verr := audit.Verify(entries, def); verr != nil {
		result.Valid = false
		var te *audit.TransitionError
		if errors.As(verr, &te) {
			result.Violation = te
		}

		if formatter.Format == "json" {
			formatter.Success(result)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✗ trail invalid: %s\n", verr.Error())
		}
		return NewExitError(ExitFailure, verr.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ trail valid: %d entries\n", len(entries))
	return nil
}

// loadTrail reads entries from the positional trail file or, with --db,
// from the SQLite event log. Exactly one source must be given.
func loadTrail(cmd *cobra.Command, formatter *OutputFormatter, args []string, dbPath string) ([]audit.Entry, error) {
	if dbPath != "" {
		if len(args) > 0 {
			return nil, NewExitError(ExitCommandError, "cannot combine a trail file with --db")
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, &ExitError{Code: ExitCommandError, Message: "opening event log", Err: err}
		}
		defer st.Close()

		entries, err := st.Load(cmd.Context())
		if err != nil {
			return nil, &ExitError{Code: ExitCommandError, Message: "loading event log", Err: err}
		}
		formatter.VerboseLog("loaded %d entries from %s (trail %s)", len(entries), dbPath, st.Token())
		return entries, nil
	}

	if len(args) != 1 {
		return nil, NewExitError(ExitCommandError, "a trail file or --db is required")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "reading trail file", Err: err}
	}

	var entries []audit.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "parsing trail file", Err: err}
	}
	return entries, nil
}
