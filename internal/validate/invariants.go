package validate

import (
	"fmt"

	"github.com/statevet/statevet/internal/fsm"
)

// ValidateInvariants evaluates every declared invariant against the
// definition's transition graph and returns every violation found. Success
// means all invariants of all kinds hold simultaneously.
//
// An unrecognized kind is itself a violation (ErrUnknownInvariantKind): an
// invariant this engine cannot check must never be mistaken for a satisfied
// one.
//
// The definition must already have passed ValidateStructure.
func ValidateInvariants(def *fsm.Definition) []ValidationError {
	g := NewGraph(def.Transitions)

	var errs []ValidationError
	for i, inv := range def.Invariants {
		switch inv.Kind {
		case fsm.KindTerminalStates:
			errs = append(errs, checkTerminalStates(g, i, inv)...)
		case fsm.KindRequiredTransitions:
			errs = append(errs, checkRequiredTransitions(g, i, inv)...)
		case fsm.KindForbiddenTransitions:
			errs = append(errs, checkForbiddenTransitions(g, i, inv)...)
		case fsm.KindForbiddenCycles:
			errs = append(errs, checkForbiddenCycles(g, i, inv)...)
		case fsm.KindSelfTransitionsRequired:
			errs = append(errs, checkSelfTransitions(g, i, inv, def.States)...)
		default:
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("invariants[%d].kind", i),
				Message: fmt.Sprintf("unknown invariant kind %q", inv.Kind),
				Code:    ErrUnknownInvariantKind,
			})
		}
	}
	return errs
}

// checkTerminalStates requires every listed state to have zero outbound
// transitions.
func checkTerminalStates(g *Graph, idx int, inv fsm.Invariant) []ValidationError {
	var errs []ValidationError
	for j, s := range inv.States {
		if n := g.OutDegree(s); n > 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("invariants[%d].states[%d]", idx, j),
				Message: fmt.Sprintf("terminal state %q has %d outbound transition(s)", s, n),
				Code:    ErrTerminalStateHasOutbound,
			})
		}
	}
	return errs
}

// checkRequiredTransitions requires every listed ref to match an existing
// transition.
func checkRequiredTransitions(g *Graph, idx int, inv fsm.Invariant) []ValidationError {
	var errs []ValidationError
	for j, ref := range inv.Transitions {
		if !g.HasEdge(ref.From, ref.To, ref.Action) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("invariants[%d].transitions[%d]", idx, j),
				Message: fmt.Sprintf("required transition %s is missing", refString(ref)),
				Code:    ErrMissingRequiredTransition,
			})
		}
	}
	return errs
}

// checkForbiddenTransitions requires that no listed ref matches an existing
// transition.
func checkForbiddenTransitions(g *Graph, idx int, inv fsm.Invariant) []ValidationError {
	var errs []ValidationError
	for j, ref := range inv.Transitions {
		if g.HasEdge(ref.From, ref.To, ref.Action) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("invariants[%d].transitions[%d]", idx, j),
				Message: fmt.Sprintf("forbidden transition %s is present", refString(ref)),
				Code:    ErrForbiddenTransitionPresent,
			})
		}
	}
	return errs
}

// checkForbiddenCycles requires that no listed state lies on a cycle.
func checkForbiddenCycles(g *Graph, idx int, inv fsm.Invariant) []ValidationError {
	var errs []ValidationError
	for j, s := range inv.States {
		if g.OnCycle(s) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("invariants[%d].states[%d]", idx, j),
				Message: fmt.Sprintf("state %q lies on a cycle", s),
				Code:    ErrCycleDetected,
			})
		}
	}
	return errs
}

// checkSelfTransitions requires a from==to transition on every listed state,
// or on every declared state when the invariant lists none.
func checkSelfTransitions(g *Graph, idx int, inv fsm.Invariant, declared []string) []ValidationError {
	states := inv.States
	if len(states) == 0 {
		states = declared
	}

	var errs []ValidationError
	for _, s := range states {
		if !g.HasEdge(s, s, "") {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("invariants[%d]", idx),
				Message: fmt.Sprintf("state %q has no self-transition", s),
				Code:    ErrMissingSelfTransition,
			})
		}
	}
	return errs
}

func refString(ref fsm.TransitionRef) string {
	if ref.Action != "" {
		return fmt.Sprintf("%s->%s (action %q)", ref.From, ref.To, ref.Action)
	}
	return fmt.Sprintf("%s->%s", ref.From, ref.To)
}
