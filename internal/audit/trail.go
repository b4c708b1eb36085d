// Package audit checks recorded state transitions against an FSM definition
// and against per-entity history continuity.
//
// A trail is an append-only sequence of entries; entries for different
// entities may interleave freely in trail order and are checked
// independently. Each entity is modeled as a tiny machine that starts with no
// history and thereafter must chain from_state to the previous to_state.
// Terminality is an invariant concern, not a continuity one: a trail may end
// anywhere.
//
// Record mutates the trail and must be serialized per trail instance by the
// caller. Verify is read-only.
package audit

import "github.com/statevet/statevet/internal/fsm"

// Entry is one recorded transition. Immutable once created; timestamps are
// opaque caller-supplied integers (this package never reads a clock).
type Entry struct {
	EntityID  string `json:"entity_id"`
	Actor     string `json:"actor"`
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	Metadata  string `json:"metadata,omitempty"`
}

// Trail is an append-only ordered sequence of entries.
type Trail struct {
	entries []Entry
	// last maps entity id to its most recent to_state, maintained on append
	// so Record is O(1) in trail length.
	last map[string]string
}

// NewTrail returns an empty trail.
func NewTrail() *Trail {
	return &Trail{last: make(map[string]string)}
}

// FromEntries builds a trail over existing entries, e.g. reloaded from
// storage. The entries are NOT checked here; call Verify. Subsequent Record
// calls continue each entity's history from its last entry.
func FromEntries(entries []Entry) *Trail {
	t := &Trail{
		entries: append([]Entry(nil), entries...),
		last:    make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		t.last[e.EntityID] = e.ToState
	}
	return t
}

// Entries returns the recorded entries in insertion order. The returned slice
// is shared with the trail; callers must treat it as read-only.
func (t *Trail) Entries() []Entry {
	return t.entries
}

// Len returns the number of recorded entries.
func (t *Trail) Len() int {
	return len(t.entries)
}

// Record appends entry after checking it. With a non-nil definition the
// entry's (from, action, to) triple must match a declared transition; in all
// cases the entry must continue its entity's history (or, for a first entry,
// start from the definition's declared initial state if there is one).
//
// On failure the trail is unchanged; the append is all-or-nothing.
func (t *Trail) Record(def *fsm.Definition, entry Entry) error {
	prev, seen := t.last[entry.EntityID]
	if err := checkEntry(def, entry, len(t.entries), prev, seen); err != nil {
		return err
	}
	t.entries = append(t.entries, entry)
	t.last[entry.EntityID] = entry.ToState
	return nil
}

// Verify re-walks the whole trail grouped by entity in insertion order,
// re-applying the Record rule from a fresh no-history start per entity.
// Returns the first violation, identified by entity id and trail position.
// Repeated calls on an unmodified trail yield identical results.
func (t *Trail) Verify(def *fsm.Definition) error {
	return Verify(t.entries, def)
}

// Verify checks a raw entry sequence, e.g. one assembled without incremental
// Record calls. Definition may be nil for a continuity-only check.
func Verify(entries []Entry, def *fsm.Definition) error {
	last := make(map[string]string)
	for i, e := range entries {
		prev, seen := last[e.EntityID]
		if err := checkEntry(def, e, i, prev, seen); err != nil {
			return err
		}
		last[e.EntityID] = e.ToState
	}
	return nil
}

// checkEntry applies the two rejection rules for an entry at the given trail
// position: the transition must be declared (when a definition is supplied),
// and from_state must chain onto the entity's history.
func checkEntry(def *fsm.Definition, e Entry, pos int, prev string, seen bool) *TransitionError {
	if def != nil && !declaresTransition(def, e) {
		return &TransitionError{
			Code:     ErrUndeclaredTransition,
			EntityID: e.EntityID,
			Position: pos,
			From:     e.FromState,
			To:       e.ToState,
			Action:   e.Action,
			Message:  "transition not declared by definition",
		}
	}

	switch {
	case seen:
		if e.FromState != prev {
			return &TransitionError{
				Code:     ErrInvalidStateTransition,
				EntityID: e.EntityID,
				Position: pos,
				From:     e.FromState,
				To:       e.ToState,
				Action:   e.Action,
				Message:  "from_state does not match last recorded state " + quoted(prev),
			}
		}
	case def != nil && def.InitialState() != "":
		if initial := def.InitialState(); e.FromState != initial {
			return &TransitionError{
				Code:     ErrInvalidStateTransition,
				EntityID: e.EntityID,
				Position: pos,
				From:     e.FromState,
				To:       e.ToState,
				Action:   e.Action,
				Message:  "first entry must start from initial state " + quoted(initial),
			}
		}
	}
	return nil
}

func declaresTransition(def *fsm.Definition, e Entry) bool {
	for _, t := range def.Transitions {
		if t.From == e.FromState && t.To == e.ToState && t.Action == e.Action {
			return true
		}
	}
	return false
}

func quoted(s string) string {
	return `"` + s + `"`
}
