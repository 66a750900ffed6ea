package agentpool

import (
	"context"
)

// Strategy is a coordination algorithm over the pool's matching agents.
type Strategy interface {
	Name() string
	Coordinate(ctx context.Context, pool *Pool, task Task) (*Result, error)
}

// Installed strategies.
var (
	StrategyParallel  Strategy = parallelStrategy{}
	StrategyCommittee Strategy = committeeStrategy{}
)

// Result is the outcome of one coordination call. Results holds one entry per
// dispatched agent for the parallel strategy; Votes, Tally, and Decision are
// populated by the committee strategy.
type Result struct {
	Status   string         `json:"status"`
	Strategy string         `json:"strategy"`
	Results  []AgentOutcome `json:"results,omitempty"`

	Votes    map[string]Vote `json:"votes,omitempty"`
	Tally    *VoteTally      `json:"tally,omitempty"`
	Decision Vote            `json:"decision,omitempty"`
}

// AgentOutcome records one agent's independent result. Exactly one of Output
// and Error is set.
type AgentOutcome struct {
	Agent  string         `json:"agent"`
	Output map[string]any `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// VoteTally counts committee votes by kind.
type VoteTally struct {
	Approve int `json:"approve"`
	Reject  int `json:"reject"`
	Abstain int `json:"abstain"`
}

// Decide applies the committee decision rule: majority among non-abstain
// votes; a tie or an all-abstain committee yields abstain.
func (t VoteTally) Decide() Vote {
	switch {
	case t.Approve > t.Reject:
		return VoteApprove
	case t.Reject > t.Approve:
		return VoteReject
	default:
		return VoteAbstain
	}
}
