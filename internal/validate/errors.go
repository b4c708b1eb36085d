package validate

import "fmt"

// Structural error codes (E101-E199). A definition that is well-shaped as a
// document can still fail these referential checks.
const (
	ErrDuplicateState      = "E101" // state name declared more than once
	ErrUnknownState        = "E102" // transition endpoint blank or not in states
	ErrEmptyAction         = "E103" // action empty or all-whitespace
	ErrInvalidInitialState = "E104" // defaults.initialState not in states
	ErrUnknownField        = "E105" // property outside the documented shape
	ErrNoStates            = "E106" // states list is empty
	ErrNoTransitions       = "E107" // transitions list is empty

	// Strict-mode codes. Only raised when the caller opts in.
	ErrStrictNoInvariants   = "E108" // strict mode: no invariants declared
	ErrStrictNoInitialState = "E109" // strict mode: no initial state declared
)

// Invariant violation codes (E201-E299).
const (
	ErrTerminalStateHasOutbound   = "E201"
	ErrMissingRequiredTransition  = "E202"
	ErrForbiddenTransitionPresent = "E203"
	ErrCycleDetected              = "E204"
	ErrMissingSelfTransition      = "E205"
	ErrUnknownInvariantKind       = "E206"
)

// ValidationError is one violation found in a definition. Field locates the
// offending element by path (e.g. "transitions[2].to"), Code is a stable
// identifier from the taxonomy above.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}
