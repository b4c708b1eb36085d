// Package validate checks declarative FSM definitions: referential structure
// first, then declared invariants over the transition graph.
//
// Both validators aggregate every violation they find rather than stopping at
// the first one; callers treat a non-empty result as reject. The accept/reject
// outcome is the same as fail-fast would give, but the full list makes audit
// review possible in one pass.
//
// Validation is side-effect free: no input is mutated, no I/O performed.
package validate

import (
	"fmt"
	"strings"

	"github.com/statevet/statevet/internal/fsm"
)

// ValidateStructure checks the referential integrity of a definition and
// returns every violation found. An empty result means the definition is
// structurally sound: states are non-empty and unique, every transition
// endpoint is a non-blank declared state, every action is non-blank, and the
// default initial state (if any) is declared.
//
// ValidateInvariants assumes a definition that passed this check; callers
// must sequence the two.
func ValidateStructure(def *fsm.Definition) []ValidationError {
	var errs []ValidationError

	if len(def.States) == 0 {
		errs = append(errs, ValidationError{
			Field:   "states",
			Message: "at least one state is required",
			Code:    ErrNoStates,
		})
	}

	declared := make(map[string]bool, len(def.States))
	for i, s := range def.States {
		if declared[s] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("states[%d]", i),
				Message: fmt.Sprintf("duplicate state %q", s),
				Code:    ErrDuplicateState,
			})
			continue
		}
		declared[s] = true
	}

	if len(def.Transitions) == 0 {
		errs = append(errs, ValidationError{
			Field:   "transitions",
			Message: "at least one transition is required",
			Code:    ErrNoTransitions,
		})
	}

	for i, t := range def.Transitions {
		// A whitespace-only endpoint is invalid even if the blank name is
		// itself declared as a state.
		if strings.TrimSpace(t.From) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("transitions[%d].from", i),
				Message: "state must be non-empty",
				Code:    ErrUnknownState,
			})
		} else if !declared[t.From] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("transitions[%d].from", i),
				Message: fmt.Sprintf("unknown state %q", t.From),
				Code:    ErrUnknownState,
			})
		}
		if strings.TrimSpace(t.To) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("transitions[%d].to", i),
				Message: "state must be non-empty",
				Code:    ErrUnknownState,
			})
		} else if !declared[t.To] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("transitions[%d].to", i),
				Message: fmt.Sprintf("unknown state %q", t.To),
				Code:    ErrUnknownState,
			})
		}
		if strings.TrimSpace(t.Action) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("transitions[%d].action", i),
				Message: "action must be non-empty",
				Code:    ErrEmptyAction,
			})
		}
	}

	if initial := def.InitialState(); initial != "" && !declared[initial] {
		errs = append(errs, ValidationError{
			Field:   "defaults.initialState",
			Message: fmt.Sprintf("unknown state %q", initial),
			Code:    ErrInvalidInitialState,
		})
	}

	return errs
}

// Validate runs ValidateStructure and, only if the definition is structurally
// sound, ValidateInvariants. This is the sequencing most callers want; the
// invariant evaluator's behavior is undefined on a broken structure.
func Validate(def *fsm.Definition) []ValidationError {
	if errs := ValidateStructure(def); len(errs) > 0 {
		return errs
	}
	return ValidateInvariants(def)
}
