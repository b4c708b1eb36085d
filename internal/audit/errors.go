package audit

import (
	"errors"
	"fmt"
)

// Transition error codes (E301-E399).
const (
	// ErrUndeclaredTransition: the entry's (from, action, to) triple matches
	// no transition in the supplied definition.
	ErrUndeclaredTransition = "E301"

	// ErrInvalidStateTransition: the entry breaks per-entity continuity
	// (from_state disagrees with the entity's last recorded to_state, or with
	// the declared initial state on a first entry).
	ErrInvalidStateTransition = "E302"
)

// TransitionError identifies a rejected audit entry by entity and trail
// position, with the offending transition triple for context.
type TransitionError struct {
	Code     string `json:"code"`
	EntityID string `json:"entity_id"`
	Position int    `json:"position"` // index in trail insertion order
	From     string `json:"from"`
	To       string `json:"to"`
	Action   string `json:"action"`
	Message  string `json:"message"`
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: entity %s entry %d (%s -> %s via %q): %s",
		e.Code, e.EntityID, e.Position, e.From, e.To, e.Action, e.Message)
}

// IsUndeclared reports whether err is an undeclared-transition rejection.
// Uses errors.As to handle wrapped errors.
func IsUndeclared(err error) bool {
	var te *TransitionError
	return errors.As(err, &te) && te.Code == ErrUndeclaredTransition
}

// IsContinuity reports whether err is a continuity rejection.
func IsContinuity(err error) bool {
	var te *TransitionError
	return errors.As(err, &te) && te.Code == ErrInvalidStateTransition
}
