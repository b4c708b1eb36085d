package fsm

// Supported invariant kinds. Any other kind fails validation closed
// (validate.ErrUnknownInvariantKind); there is no silent pass-through.
const (
	KindTerminalStates          = "terminal_states"
	KindRequiredTransitions     = "required_transitions"
	KindForbiddenTransitions    = "forbidden_transitions"
	KindForbiddenCycles         = "forbidden_cycles"
	KindSelfTransitionsRequired = "self_transitions_required"
)

// Definition is a declarative FSM definition as parsed from a document.
//
// States are unique string identifiers. Transitions form a directed
// multigraph over them: parallel edges between the same pair of states are
// permitted and are distinguished by their action label.
type Definition struct {
	States      []string     `json:"states"`
	Transitions []Transition `json:"transitions"`
	Defaults    *Defaults    `json:"defaults,omitempty"`
	Invariants  []Invariant  `json:"invariants,omitempty"`
}

// Transition is one directed edge in the definition's graph.
// Guard is an opaque string; this module never evaluates it.
type Transition struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	Action   string    `json:"action"`
	Guard    string    `json:"guard,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Metadata carries optional documentation attached to a transition.
type Metadata struct {
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// Defaults holds definition-wide defaults.
type Defaults struct {
	InitialState string `json:"initialState,omitempty"`
}

// Invariant is a declarative, checkable constraint over the whole definition.
// Which of States/Transitions is meaningful depends on Kind.
type Invariant struct {
	Kind        string          `json:"kind"`
	States      []string        `json:"states,omitempty"`
	Transitions []TransitionRef `json:"transitions,omitempty"`
	Description string          `json:"description,omitempty"`
}

// TransitionRef names a transition by endpoints and, optionally, action.
// An empty Action matches any transition between From and To.
type TransitionRef struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Action string `json:"action,omitempty"`
}

// IsDeclared reports whether state appears in the definition's state list.
func (d *Definition) IsDeclared(state string) bool {
	for _, s := range d.States {
		if s == state {
			return true
		}
	}
	return false
}

// TransitionsFrom returns the transitions whose From endpoint equals state,
// in declaration order. The result is a fresh slice; mutating it does not
// affect the definition.
func (d *Definition) TransitionsFrom(state string) []Transition {
	var out []Transition
	for _, t := range d.Transitions {
		if t.From == state {
			out = append(out, t)
		}
	}
	return out
}

// InitialState returns the declared default initial state, or "" if the
// definition does not declare one.
func (d *Definition) InitialState() string {
	if d.Defaults == nil {
		return ""
	}
	return d.Defaults.InitialState
}
