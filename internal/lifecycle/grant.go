// Package lifecycle ships reference definitions for the grant and proposal
// pipelines, plus thin wrappers that drive them through an audit trail. The
// wrappers contain no transition logic of their own: every move goes through
// Trail.Record against the declared definition, so a wrapper can never take
// a step the validator would reject.
package lifecycle

import (
	"github.com/statevet/statevet/internal/audit"
	"github.com/statevet/statevet/internal/fsm"
)

// Grant states.
const (
	GrantPending   = "Pending"
	GrantApproved  = "Approved"
	GrantActive    = "Active"
	GrantSuspended = "Suspended"
	GrantCompleted = "Completed"
	GrantCancelled = "Cancelled"
	GrantRejected  = "Rejected"
	GrantExpired   = "Expired"
	GrantArchived  = "Archived"
)

// Grant actions.
const (
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionActivate = "activate"
	ActionSuspend  = "suspend"
	ActionResume   = "resume"
	ActionComplete = "complete"
	ActionCancel   = "cancel"
	ActionExpire   = "expire"
	ActionArchive  = "archive"
)

// GrantDefinition returns the grant pipeline: review from Pending, funding
// through Active with suspension, and a single Archived sink that nothing
// leaves.
func GrantDefinition() *fsm.Definition {
	return &fsm.Definition{
		States: []string{
			GrantPending, GrantApproved, GrantActive, GrantSuspended,
			GrantCompleted, GrantCancelled, GrantRejected, GrantExpired,
			GrantArchived,
		},
		Transitions: []fsm.Transition{
			{From: GrantPending, To: GrantApproved, Action: ActionApprove},
			{From: GrantPending, To: GrantRejected, Action: ActionReject},
			{From: GrantPending, To: GrantCancelled, Action: ActionCancel},
			{From: GrantPending, To: GrantExpired, Action: ActionExpire},
			{From: GrantApproved, To: GrantActive, Action: ActionActivate},
			{From: GrantApproved, To: GrantCancelled, Action: ActionCancel},
			{From: GrantApproved, To: GrantExpired, Action: ActionExpire},
			{From: GrantActive, To: GrantSuspended, Action: ActionSuspend},
			{From: GrantActive, To: GrantCompleted, Action: ActionComplete},
			{From: GrantActive, To: GrantCancelled, Action: ActionCancel},
			{From: GrantSuspended, To: GrantActive, Action: ActionResume},
			{From: GrantSuspended, To: GrantCancelled, Action: ActionCancel},
			{From: GrantCompleted, To: GrantArchived, Action: ActionArchive},
			{From: GrantCancelled, To: GrantArchived, Action: ActionArchive},
			{From: GrantRejected, To: GrantArchived, Action: ActionArchive},
			{From: GrantExpired, To: GrantArchived, Action: ActionArchive},
		},
		Defaults: &fsm.Defaults{InitialState: GrantPending},
		Invariants: []fsm.Invariant{
			{
				Kind:        fsm.KindTerminalStates,
				States:      []string{GrantArchived},
				Description: "archived grants never move again",
			},
			{
				Kind: fsm.KindRequiredTransitions,
				Transitions: []fsm.TransitionRef{
					{From: GrantPending, To: GrantApproved, Action: ActionApprove},
					{From: GrantPending, To: GrantRejected, Action: ActionReject},
				},
				Description: "review must be able to approve or reject",
			},
			{
				Kind: fsm.KindForbiddenTransitions,
				Transitions: []fsm.TransitionRef{
					{From: GrantRejected, To: GrantActive},
					{From: GrantPending, To: GrantActive},
				},
				Description: "funding requires an approval step",
			},
		},
	}
}

var grantDefinition = GrantDefinition()

// Grant drives one grant entity through the pipeline. Not safe for
// concurrent use; the underlying trail's rules apply.
type Grant struct {
	ID    string
	state string
	trail *audit.Trail
}

// NewGrant starts a grant in the pipeline's initial state, recording into
// the given trail. The entity must have no prior entries in the trail.
func NewGrant(id string, trail *audit.Trail) *Grant {
	return &Grant{ID: id, state: grantDefinition.InitialState(), trail: trail}
}

// ResumeGrant rebuilds a grant's position from its history in the trail.
func ResumeGrant(id string, trail *audit.Trail) *Grant {
	state := grantDefinition.InitialState()
	for _, e := range trail.Entries() {
		if e.EntityID == id {
			state = e.ToState
		}
	}
	return &Grant{ID: id, state: state, trail: trail}
}

// State returns the grant's current state.
func (g *Grant) State() string {
	return g.state
}

func (g *Grant) apply(actor, to, action string, ts int64) error {
	entry := audit.Entry{
		EntityID:  g.ID,
		Actor:     actor,
		FromState: g.state,
		ToState:   to,
		Action:    action,
		Timestamp: ts,
	}
	if err := g.trail.Record(grantDefinition, entry); err != nil {
		return err
	}
	g.state = to
	return nil
}

// Approve moves Pending to Approved.
func (g *Grant) Approve(actor string, ts int64) error {
	return g.apply(actor, GrantApproved, ActionApprove, ts)
}

// Reject moves Pending to Rejected.
func (g *Grant) Reject(actor string, ts int64) error {
	return g.apply(actor, GrantRejected, ActionReject, ts)
}

// Activate moves Approved to Active.
func (g *Grant) Activate(actor string, ts int64) error {
	return g.apply(actor, GrantActive, ActionActivate, ts)
}

// Suspend moves Active to Suspended.
func (g *Grant) Suspend(actor string, ts int64) error {
	return g.apply(actor, GrantSuspended, ActionSuspend, ts)
}

// Resume moves Suspended back to Active.
func (g *Grant) Resume(actor string, ts int64) error {
	return g.apply(actor, GrantActive, ActionResume, ts)
}

// Complete moves Active to Completed.
func (g *Grant) Complete(actor string, ts int64) error {
	return g.apply(actor, GrantCompleted, ActionComplete, ts)
}

// Cancel moves any pre-terminal working state to Cancelled.
func (g *Grant) Cancel(actor string, ts int64) error {
	return g.apply(actor, GrantCancelled, ActionCancel, ts)
}

// Expire moves Pending or Approved to Expired.
func (g *Grant) Expire(actor string, ts int64) error {
	return g.apply(actor, GrantExpired, ActionExpire, ts)
}

// Archive moves a settled grant to the Archived sink.
func (g *Grant) Archive(actor string, ts int64) error {
	return g.apply(actor, GrantArchived, ActionArchive, ts)
}
