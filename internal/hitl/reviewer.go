// Package hitl implements the human-in-the-loop review gate: an escalated
// run pauses for a compliance officer to approve, edit, or reject the draft
// response, with an annotated automatic fallback for non-interactive runs.
package hitl

import (
	"context"
	"errors"

	"github.com/meridian-grc/riskflow/internal/model"
)

// Action is the reviewer's decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionEdit    Action = "edit"
	ActionReject  Action = "reject"
	// ActionPolicyHold is recorded when automatic approval was requested for
	// a CRITICAL-tier case without the operator opt-in.
	ActionPolicyHold Action = "auto_policy_hold"
)

// Decision sources. A system-generated decision is always distinguishable
// from a human one in the audit record.
const (
	SourceHuman  = "human"
	SourceSystem = "system"
)

// Decision is the outcome of one review.
type Decision struct {
	Action         Action
	Notes          string
	EditedResponse string
	Source         string
}

// ErrNoReviewer indicates no interactive reviewer is attached to the run;
// the caller falls back to automatic review.
var ErrNoReviewer = errors.New("hitl: no interactive reviewer attached")

// Reviewer collects a decision for an escalated run. Implementations receive
// the state (scrubbed and masked) and the draft response under review.
type Reviewer interface {
	Review(ctx context.Context, s *model.RequestState, draft string) (Decision, error)
}

// AutoReviewer approves escalations without human input, annotating the
// decision as system-generated. CRITICAL-tier cases are held, not approved,
// unless the operator has explicitly opted in.
type AutoReviewer struct {
	// AllowCritical permits automatic approval of CRITICAL-tier cases. Off
	// by default; requires an explicit operator opt-in.
	AllowCritical bool
}

func (r *AutoReviewer) Review(_ context.Context, s *model.RequestState, _ string) (Decision, error) {
	if s.RiskTier == model.TierCritical && !r.AllowCritical {
		return Decision{
			Action: ActionPolicyHold,
			Notes:  "automatic approval of CRITICAL tier requires operator opt-in (hitl.allow_auto_critical)",
			Source: SourceSystem,
		}, nil
	}
	return Decision{
		Action: ActionApprove,
		Notes:  "auto-approved (non-interactive mode)",
		Source: SourceSystem,
	}, nil
}
