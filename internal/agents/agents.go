// Package agents ships in-process reference implementations of the five
// domain agents so the server runs end-to-end without external agent
// deployments. Events are fed in through each agent's Record method; the
// detection heuristics are deliberately simple and deterministic.
//
// Every agent also satisfies the pool's Agent interface so the built-ins can
// take part in coordination tasks and committee votes.
package agents

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fraudlens/internal/agentpool"
	"fraudlens/internal/coordinator"
	dErrors "fraudlens/pkg/domain-errors"
)

// base carries the lifecycle plumbing and pool profile shared by every
// built-in agent.
type base struct {
	name            string
	specializations []string
	logger          *slog.Logger

	mu          sync.RWMutex
	initialized bool
}

func newBase(name string, specializations []string, logger *slog.Logger) base {
	return base{name: name, specializations: specializations, logger: logger}
}

func (b *base) Name() string { return b.name }

// Initialize marks the agent ready. Idempotent.
func (b *base) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
	b.logger.InfoContext(ctx, "agent initialized", "agent", b.name)
	return nil
}

// Shutdown marks the agent stopped. Idempotent.
func (b *base) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	b.logger.InfoContext(ctx, "agent stopped", "agent", b.name)
	return nil
}

func (b *base) ready() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.initialized {
		return dErrors.New(dErrors.CodeUnavailable, b.name+" is not initialized")
	}
	return nil
}

// Capabilities declares the agent's pool profile.
func (b *base) Capabilities() agentpool.Capabilities {
	return agentpool.Capabilities{
		Name:               b.name,
		Specializations:    append([]string(nil), b.specializations...),
		MaxConcurrentTasks: 8,
		SuccessRate:        0.95,
		AvgResponseTime:    250 * time.Millisecond,
	}
}

// Vote applies the shared committee heuristic: a task carrying a high risk
// score in its input is rejected, a clearly low one approved, anything else
// abstained. Domain agents without an opinion on the input abstain.
func (b *base) Vote(ctx context.Context, task agentpool.Task) (agentpool.Vote, error) {
	if err := b.ready(); err != nil {
		return agentpool.VoteAbstain, err
	}

	score, ok := task.Input["risk_score"].(float64)
	if !ok {
		return agentpool.VoteAbstain, nil
	}
	switch {
	case score >= 0.7:
		return agentpool.VoteReject, nil
	case score <= 0.3:
		return agentpool.VoteApprove, nil
	default:
		return agentpool.VoteAbstain, nil
	}
}

// taskEntity extracts the entity a coordination task targets.
func taskEntity(task agentpool.Task) (string, error) {
	id, ok := task.Input["entity_id"].(string)
	if !ok || id == "" {
		return "", dErrors.New(dErrors.CodeValidation, "task input requires entity_id")
	}
	return id, nil
}

// taskTimeframe extracts the analysis window, defaulting to 30 days.
func taskTimeframe(task agentpool.Task) int {
	if days, ok := task.Input["timeframe_days"].(float64); ok && days > 0 {
		return int(days)
	}
	return 30
}

// cutoff is the oldest timestamp inside the timeframe window.
func cutoff(now time.Time, timeframeDays int) time.Time {
	return now.AddDate(0, 0, -timeframeDays)
}

var (
	_ coordinator.LocationAgent = (*Location)(nil)
	_ coordinator.NetworkAgent  = (*Network)(nil)
	_ coordinator.DeviceAgent   = (*Device)(nil)
	_ coordinator.BehaviorAgent = (*Behavior)(nil)
	_ coordinator.AnomalyAgent  = (*Anomaly)(nil)

	_ agentpool.Agent = (*Location)(nil)
	_ agentpool.Agent = (*Network)(nil)
	_ agentpool.Agent = (*Device)(nil)
	_ agentpool.Agent = (*Behavior)(nil)
	_ agentpool.Agent = (*Anomaly)(nil)
)
