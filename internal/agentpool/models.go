// Package agentpool manages the registry of risk-analysis agents and the
// strategies that coordinate work across them.
package agentpool

import (
	"context"
	"time"
)

// Vote is a committee member's judgement on a task.
type Vote string

const (
	VoteApprove Vote = "approve"
	VoteReject  Vote = "reject"
	VoteAbstain Vote = "abstain"
)

// Agent is a worker that can execute coordination tasks. Implementations are
// domain agents or committee members; the pool only sees this surface.
type Agent interface {
	// Capabilities declares the agent's static profile. The pool owns load
	// accounting; CurrentLoad in the returned value is ignored on registration.
	Capabilities() Capabilities

	// Execute runs the task and returns an output payload.
	Execute(ctx context.Context, task Task) (map[string]any, error)

	// Vote judges the task for committee coordination.
	Vote(ctx context.Context, task Task) (Vote, error)
}

// Capabilities describes what an agent can do and how it has been performing.
// Load is mutated only by the pool as tasks start and finish.
type Capabilities struct {
	Name               string        `json:"name"`
	Specializations    []string      `json:"specializations"`
	MaxConcurrentTasks int           `json:"max_concurrent_tasks"`
	CurrentLoad        int           `json:"current_load"`
	SuccessRate        float64       `json:"success_rate"`
	AvgResponseTime    time.Duration `json:"avg_response_time"`
}

// AvailabilityScore ranks otherwise-equivalent agents in [0,1]: it decreases
// with load ratio, increases with success rate, and is penalized by response
// time relative to the baseline.
func (c Capabilities) AvailabilityScore(baseline time.Duration) float64 {
	if c.MaxConcurrentTasks <= 0 || c.CurrentLoad >= c.MaxConcurrentTasks {
		return 0
	}

	loadRatio := float64(c.CurrentLoad) / float64(c.MaxConcurrentTasks)

	penalty := 1.0
	if baseline > 0 && c.AvgResponseTime > 0 {
		penalty = float64(baseline) / float64(baseline+c.AvgResponseTime)
	}

	score := (1 - loadRatio) * c.SuccessRate * penalty
	return clamp01(score)
}

// Specializes reports whether the agent declares the given specialization tag.
func (c Capabilities) Specializes(tag string) bool {
	for _, s := range c.Specializations {
		if s == tag {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
