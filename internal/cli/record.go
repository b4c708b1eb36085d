package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/statevet/statevet/internal/audit"
	"github.com/statevet/statevet/internal/fsm"
	"github.com/statevet/statevet/internal/store"
)

// RecordResult is the data payload of the record command.
type RecordResult struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	EntityID string `json:"entity_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Action   string `json:"action"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		definitionPath string
		dbPath         string
		entity         string
		actor          string
		from           string
		to             string
		action         string
		timestamp      int64
		metadata       string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a validated transition in the event log",
		Long: "Appends one audit entry to the SQLite event log, but only after the\n" +
			"entry passes the same checks verify applies: continuity against the\n" +
			"entity's prior entries, and declared-transition membership when\n" +
			"--definition is given. A rejected entry is never written.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			if timestamp == 0 {
				timestamp = time.Now().Unix()
			}
			entry := audit.Entry{
				EntityID:  entity,
				Actor:     actor,
				FromState: from,
				ToState:   to,
				Action:    action,
				Timestamp: timestamp,
				Metadata:  metadata,
			}
			return runRecord(cmd, formatter, definitionPath, dbPath, entry)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&definitionPath, "definition", "", "definition file to check the entry against")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite event log path")
	cmd.Flags().StringVar(&entity, "entity", "", "entity the transition applies to")
	cmd.Flags().StringVar(&actor, "actor", "", "actor performing the transition")
	cmd.Flags().StringVar(&from, "from", "", "state the entity leaves")
	cmd.Flags().StringVar(&to, "to", "", "state the entity enters")
	cmd.Flags().StringVar(&action, "action", "", "action label of the transition")
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "unix timestamp (defaults to now)")
	cmd.Flags().StringVar(&metadata, "metadata", "", "opaque metadata attached to the entry")

	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func runRecord(cmd *cobra.Command, formatter *OutputFormatter, definitionPath, dbPath string, entry audit.Entry) error {
	var def *fsm.Definition
	if definitionPath != "" {
		var loadErrs []error
		def, loadErrs = LoadDefinition(definitionPath)
		if len(loadErrs) > 0 {
			err := combineLoadErrors(loadErrs)
			formatter.Error(loadErrorCode(err), err.Error(), nil)
			return err
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		outErr := &ExitError{Code: ExitCommandError, Message: "opening event log", Err: err}
		formatter.Error(ErrCodeCommand, outErr.Error(), nil)
		return outErr
	}
	defer st.Close()

	entries, err := st.Load(cmd.Context())
	if err != nil {
		outErr := &ExitError{Code: ExitCommandError, Message: "loading event log", Err: err}
		formatter.Error(ErrCodeCommand, outErr.Error(), nil)
		return outErr
	}
	formatter.VerboseLog("loaded %d prior entries from %s (trail %s)", len(entries), dbPath, st.Token())

	trail := audit.FromEntries(entries)
	if err := trail.Record(def, entry); err != nil {
		var te *audit.TransitionError
		if errors.As(err, &te) {
			formatter.Error(te.Code, te.Message, te)
		} else {
			formatter.Error(audit.ErrInvalidStateTransition, err.Error(), nil)
		}
		return NewExitError(ExitFailure, err.Error())
	}

	if err := st.Append(cmd.Context(), entry); err != nil {
		outErr := &ExitError{Code: ExitCommandError, Message: "appending to event log", Err: err}
		formatter.Error(ErrCodeCommand, outErr.Error(), nil)
		return outErr
	}

	id, err := audit.EntryID(entry)
	if err != nil {
		outErr := &ExitError{Code: ExitCommandError, Message: "computing entry id", Err: err}
		formatter.Error(ErrCodeCommand, outErr.Error(), nil)
		return outErr
	}

	result := RecordResult{
		ID:       id,
		Position: trail.Len() - 1,
		EntityID: entry.EntityID,
		From:     entry.FromState,
		To:       entry.ToState,
		Action:   entry.Action,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ recorded %s -> %s via %q for %s (entry %d, id %s)\n",
		entry.FromState, entry.ToState, entry.Action, entry.EntityID, result.Position, id)
	return nil
}
