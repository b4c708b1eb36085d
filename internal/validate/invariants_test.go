package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statevet/statevet/internal/fsm"
)

func TestTerminalStatesHold(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"Draft", "Archived"},
		Transitions: []fsm.Transition{
			{From: "Draft", To: "Archived", Action: "archive"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindTerminalStates, States: []string{"Archived"}},
		},
	}

	assert.Empty(t, ValidateInvariants(def))
}

func TestTerminalStateHasOutbound(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"Draft", "Archived"},
		Transitions: []fsm.Transition{
			{From: "Archived", To: "Draft", Action: "restore"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindTerminalStates, States: []string{"Archived"}},
		},
	}

	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrTerminalStateHasOutbound, errs[0].Code)
	assert.Contains(t, errs[0].Message, "Archived")
}

func TestRequiredTransitions(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A", "B", "C"},
		Transitions: []fsm.Transition{
			{From: "A", To: "B", Action: "go"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindRequiredTransitions, Transitions: []fsm.TransitionRef{
				{From: "A", To: "B"},
			}},
		},
	}
	assert.Empty(t, ValidateInvariants(def))

	def.Invariants[0].Transitions = append(def.Invariants[0].Transitions,
		fsm.TransitionRef{From: "B", To: "C"})
	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingRequiredTransition, errs[0].Code)
}

func TestRequiredTransitionsMatchAction(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A", "B"},
		Transitions: []fsm.Transition{
			{From: "A", To: "B", Action: "approve"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindRequiredTransitions, Transitions: []fsm.TransitionRef{
				{From: "A", To: "B", Action: "approve"},
			}},
		},
	}
	assert.Empty(t, ValidateInvariants(def))

	// Same endpoints, different action: the edge identity does not match.
	def.Invariants[0].Transitions[0].Action = "reject"
	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingRequiredTransition, errs[0].Code)
}

func TestForbiddenTransitions(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A", "B"},
		Transitions: []fsm.Transition{
			{From: "A", To: "B", Action: "go"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindForbiddenTransitions, Transitions: []fsm.TransitionRef{
				{From: "B", To: "A"},
			}},
		},
	}
	assert.Empty(t, ValidateInvariants(def))

	def.Invariants[0].Transitions[0] = fsm.TransitionRef{From: "A", To: "B"}
	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrForbiddenTransitionPresent, errs[0].Code)
}

// forbidden_cycles over {A} with a cycle A->B->A fails; removing the B->A
// edge makes the same invariant pass.
func TestForbiddenCycles(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A", "B"},
		Transitions: []fsm.Transition{
			{From: "A", To: "B", Action: "go"},
			{From: "B", To: "A", Action: "back"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindForbiddenCycles, States: []string{"A"}},
		},
	}

	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCycleDetected, errs[0].Code)

	def.Transitions = def.Transitions[:1]
	assert.Empty(t, ValidateInvariants(def))
}

func TestForbiddenCyclesSelfLoop(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A"},
		Transitions: []fsm.Transition{
			{From: "A", To: "A", Action: "tick"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindForbiddenCycles, States: []string{"A"}},
		},
	}

	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCycleDetected, errs[0].Code)
}

func TestSelfTransitionsRequiredListed(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A", "B"},
		Transitions: []fsm.Transition{
			{From: "A", To: "A", Action: "refresh"},
			{From: "A", To: "B", Action: "go"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindSelfTransitionsRequired, States: []string{"A"}},
		},
	}
	assert.Empty(t, ValidateInvariants(def))

	def.Invariants[0].States = []string{"A", "B"}
	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingSelfTransition, errs[0].Code)
	assert.Contains(t, errs[0].Message, `"B"`)
}

// With an empty states list, the invariant covers every declared state;
// deleting any one self-loop fails for that specific state.
func TestSelfTransitionsRequiredAllStates(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A", "B", "C"},
		Transitions: []fsm.Transition{
			{From: "A", To: "A", Action: "a"},
			{From: "B", To: "B", Action: "b"},
			{From: "C", To: "C", Action: "c"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindSelfTransitionsRequired},
		},
	}
	assert.Empty(t, ValidateInvariants(def))

	// Drop B's self-loop: exactly B is reported.
	def.Transitions = []fsm.Transition{
		{From: "A", To: "A", Action: "a"},
		{From: "C", To: "C", Action: "c"},
	}
	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingSelfTransition, errs[0].Code)
	assert.Contains(t, errs[0].Message, `"B"`)
}

// An unrecognized kind always fails, regardless of its other fields.
func TestUnknownInvariantKind(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A", "B"},
		Transitions: []fsm.Transition{
			{From: "A", To: "B", Action: "go"},
		},
		Invariants: []fsm.Invariant{
			{Kind: "made_up_kind", States: []string{"A"}, Transitions: []fsm.TransitionRef{{From: "A", To: "B"}}},
		},
	}

	errs := ValidateInvariants(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownInvariantKind, errs[0].Code)
	assert.Equal(t, "invariants[0].kind", errs[0].Field)
}

func TestInvariantViolationsAggregate(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"A", "B"},
		Transitions: []fsm.Transition{
			{From: "A", To: "B", Action: "go"},
			{From: "B", To: "A", Action: "back"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindTerminalStates, States: []string{"B"}},
			{Kind: fsm.KindForbiddenCycles, States: []string{"A"}},
			{Kind: "bogus"},
		},
	}

	errs := ValidateInvariants(def)
	got := codes(errs)
	assert.Equal(t, []string{ErrTerminalStateHasOutbound, ErrCycleDetected, ErrUnknownInvariantKind}, got)
}

// End-to-end example from the lifecycle domain: a linear pipeline with a
// terminal Archived state validates; adding a revert edge out of Archived
// breaks the terminal invariant.
func TestLifecyclePipeline(t *testing.T) {
	def := &fsm.Definition{
		States: []string{"Draft", "Approved", "Active", "Archived"},
		Transitions: []fsm.Transition{
			{From: "Draft", To: "Approved", Action: "approve"},
			{From: "Approved", To: "Active", Action: "activate"},
			{From: "Active", To: "Archived", Action: "close"},
		},
		Invariants: []fsm.Invariant{
			{Kind: fsm.KindTerminalStates, States: []string{"Archived"}},
		},
	}

	assert.Empty(t, Validate(def))

	def.Transitions = append(def.Transitions,
		fsm.Transition{From: "Archived", To: "Draft", Action: "revert"})
	errs := Validate(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrTerminalStateHasOutbound, errs[0].Code)
	assert.Contains(t, errs[0].Message, "Archived")
}
