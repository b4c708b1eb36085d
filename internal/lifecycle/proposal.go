package lifecycle

import (
	"github.com/statevet/statevet/internal/audit"
	"github.com/statevet/statevet/internal/fsm"
)

// Proposal states. Rejected proposals may be resubmitted for another review
// round; everything else funnels into Archived.
const (
	ProposalDraft             = "Draft"
	ProposalUnderReview       = "UnderReview"
	ProposalApproved          = "Approved"
	ProposalRejected          = "Rejected"
	ProposalVoting            = "Voting"
	ProposalInProgress        = "InProgress"
	ProposalPaused            = "Paused"
	ProposalCompleted         = "Completed"
	ProposalExecuted          = "Executed"
	ProposalCommercialization = "Commercialization"
	ProposalResubmitted       = "Resubmitted"
	ProposalExpired           = "Expired"
	ProposalArchived          = "Archived"
)

// Proposal actions not shared with the grant pipeline.
const (
	ActionSubmit        = "submit"
	ActionOpenVoting    = "open-voting"
	ActionPass          = "pass"
	ActionFail          = "fail"
	ActionPause         = "pause"
	ActionExecute       = "execute"
	ActionCommercialize = "commercialize"
	ActionResubmit      = "resubmit"
	ActionRereview      = "rereview"
)

// ProposalDefinition returns the proposal pipeline: review, voting,
// execution, and a resubmission loop out of Rejected. Archived is the only
// terminal state; Draft is never revisited, which the forbidden-cycle
// invariant pins down.
func ProposalDefinition() *fsm.Definition {
	return &fsm.Definition{
		States: []string{
			ProposalDraft, ProposalUnderReview, ProposalApproved,
			ProposalRejected, ProposalVoting, ProposalInProgress,
			ProposalPaused, ProposalCompleted, ProposalExecuted,
			ProposalCommercialization, ProposalResubmitted, ProposalExpired,
			ProposalArchived,
		},
		Transitions: []fsm.Transition{
			{From: ProposalDraft, To: ProposalUnderReview, Action: ActionSubmit},
			{From: ProposalDraft, To: ProposalExpired, Action: ActionExpire},
			{From: ProposalUnderReview, To: ProposalApproved, Action: ActionApprove},
			{From: ProposalUnderReview, To: ProposalRejected, Action: ActionReject},
			{From: ProposalUnderReview, To: ProposalExpired, Action: ActionExpire},
			{From: ProposalApproved, To: ProposalVoting, Action: ActionOpenVoting},
			{From: ProposalVoting, To: ProposalInProgress, Action: ActionPass},
			{From: ProposalVoting, To: ProposalRejected, Action: ActionFail},
			{From: ProposalVoting, To: ProposalExpired, Action: ActionExpire},
			{From: ProposalInProgress, To: ProposalPaused, Action: ActionPause},
			{From: ProposalPaused, To: ProposalInProgress, Action: ActionResume},
			{From: ProposalInProgress, To: ProposalCompleted, Action: ActionComplete},
			{From: ProposalCompleted, To: ProposalExecuted, Action: ActionExecute},
			{From: ProposalExecuted, To: ProposalCommercialization, Action: ActionCommercialize},
			{From: ProposalRejected, To: ProposalResubmitted, Action: ActionResubmit},
			{From: ProposalResubmitted, To: ProposalUnderReview, Action: ActionRereview},
			{From: ProposalCompleted, To: ProposalArchived, Action: ActionArchive},
			{From: ProposalExecuted, To: ProposalArchived, Action: ActionArchive},
			{From: ProposalCommercialization, To: ProposalArchived, Action: ActionArchive},
			{From: ProposalRejected, To: ProposalArchived, Action: ActionArchive},
			{From: ProposalExpired, To: ProposalArchived, Action: ActionArchive},
		},
		Defaults: &fsm.Defaults{InitialState: ProposalDraft},
		Invariants: []fsm.Invariant{
			{
				Kind:        fsm.KindTerminalStates,
				States:      []string{ProposalArchived},
				Description: "archived proposals never move again",
			},
			{
				Kind:        fsm.KindForbiddenCycles,
				States:      []string{ProposalDraft},
				Description: "a proposal is drafted exactly once",
			},
			{
				Kind: fsm.KindForbiddenTransitions,
				Transitions: []fsm.TransitionRef{
					{From: ProposalRejected, To: ProposalInProgress},
					{From: ProposalDraft, To: ProposalVoting},
				},
				Description: "voting and development require review first",
			},
		},
	}
}

var proposalDefinition = ProposalDefinition()

// Proposal drives one proposal entity through the pipeline.
type Proposal struct {
	ID    string
	state string
	trail *audit.Trail
}

// NewProposal starts a proposal in Draft, recording into the given trail.
func NewProposal(id string, trail *audit.Trail) *Proposal {
	return &Proposal{ID: id, state: proposalDefinition.InitialState(), trail: trail}
}

// ResumeProposal rebuilds a proposal's position from its trail history.
func ResumeProposal(id string, trail *audit.Trail) *Proposal {
	state := proposalDefinition.InitialState()
	for _, e := range trail.Entries() {
		if e.EntityID == id {
			state = e.ToState
		}
	}
	return &Proposal{ID: id, state: state, trail: trail}
}

// State returns the proposal's current state.
func (p *Proposal) State() string {
	return p.state
}

func (p *Proposal) apply(actor, to, action string, ts int64) error {
	entry := audit.Entry{
		EntityID:  p.ID,
		Actor:     actor,
		FromState: p.state,
		ToState:   to,
		Action:    action,
		Timestamp: ts,
	}
	if err := p.trail.Record(proposalDefinition, entry); err != nil {
		return err
	}
	p.state = to
	return nil
}

// Submit moves Draft to UnderReview.
func (p *Proposal) Submit(actor string, ts int64) error {
	return p.apply(actor, ProposalUnderReview, ActionSubmit, ts)
}

// Approve moves UnderReview to Approved.
func (p *Proposal) Approve(actor string, ts int64) error {
	return p.apply(actor, ProposalApproved, ActionApprove, ts)
}

// Reject moves UnderReview or Voting to Rejected.
func (p *Proposal) Reject(actor string, ts int64) error {
	if p.state == ProposalVoting {
		return p.apply(actor, ProposalRejected, ActionFail, ts)
	}
	return p.apply(actor, ProposalRejected, ActionReject, ts)
}

// OpenVoting moves Approved to Voting.
func (p *Proposal) OpenVoting(actor string, ts int64) error {
	return p.apply(actor, ProposalVoting, ActionOpenVoting, ts)
}

// Pass moves Voting to InProgress.
func (p *Proposal) Pass(actor string, ts int64) error {
	return p.apply(actor, ProposalInProgress, ActionPass, ts)
}

// Pause moves InProgress to Paused.
func (p *Proposal) Pause(actor string, ts int64) error {
	return p.apply(actor, ProposalPaused, ActionPause, ts)
}

// Resume moves Paused back to InProgress.
func (p *Proposal) Resume(actor string, ts int64) error {
	return p.apply(actor, ProposalInProgress, ActionResume, ts)
}

// Complete moves InProgress to Completed.
func (p *Proposal) Complete(actor string, ts int64) error {
	return p.apply(actor, ProposalCompleted, ActionComplete, ts)
}

// Execute moves Completed to Executed.
func (p *Proposal) Execute(actor string, ts int64) error {
	return p.apply(actor, ProposalExecuted, ActionExecute, ts)
}

// Commercialize moves Executed to Commercialization.
func (p *Proposal) Commercialize(actor string, ts int64) error {
	return p.apply(actor, ProposalCommercialization, ActionCommercialize, ts)
}

// Resubmit moves Rejected to Resubmitted.
func (p *Proposal) Resubmit(actor string, ts int64) error {
	return p.apply(actor, ProposalResubmitted, ActionResubmit, ts)
}

// Rereview moves Resubmitted back to UnderReview.
func (p *Proposal) Rereview(actor string, ts int64) error {
	return p.apply(actor, ProposalUnderReview, ActionRereview, ts)
}

// Expire moves Draft, UnderReview, or Voting to Expired.
func (p *Proposal) Expire(actor string, ts int64) error {
	return p.apply(actor, ProposalExpired, ActionExpire, ts)
}

// Archive moves a settled proposal to the Archived sink.
func (p *Proposal) Archive(actor string, ts int64) error {
	return p.apply(actor, ProposalArchived, ActionArchive, ts)
}
