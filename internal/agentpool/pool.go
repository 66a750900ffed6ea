package agentpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fraudlens/internal/agentpool/metrics"
	dErrors "fraudlens/pkg/domain-errors"
	"fraudlens/pkg/platform/sentinel"
)

// Config tunes dispatch behavior.
type Config struct {
	// AgentDeadline bounds each individual agent call.
	AgentDeadline time.Duration
	// ResponseTimeBaseline normalizes response times in availability ranking.
	ResponseTimeBaseline time.Duration
}

// Pool is the registry of available agents. It owns per-agent load accounting
// and is the only writer of the capability map; all mutation happens under
// the pool mutex so concurrent dispatches never race on load counters.
type Pool struct {
	mu         sync.RWMutex
	agents     map[string]*registration
	strategies map[string]Strategy

	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type registration struct {
	agent Agent
	caps  Capabilities
	load  int
}

// New constructs a pool with the parallel and committee strategies installed.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Pool {
	if cfg.AgentDeadline <= 0 {
		cfg.AgentDeadline = 10 * time.Second
	}
	if cfg.ResponseTimeBaseline <= 0 {
		cfg.ResponseTimeBaseline = 2 * time.Second
	}

	p := &Pool{
		agents:  make(map[string]*registration),
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
	p.strategies = map[string]Strategy{
		StrategyParallel.Name():  StrategyParallel,
		StrategyCommittee.Name(): StrategyCommittee,
	}
	return p
}

// Register adds or replaces an agent keyed by its declared name. Re-registering
// an existing name replaces the previous agent and resets its load.
func (p *Pool) Register(agent Agent) error {
	caps := agent.Capabilities()
	if caps.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "agent name is required")
	}
	if caps.MaxConcurrentTasks <= 0 {
		return dErrors.New(dErrors.CodeValidation, "max_concurrent_tasks must be positive")
	}
	if caps.SuccessRate < 0 || caps.SuccessRate > 1 {
		return dErrors.New(dErrors.CodeValidation, "success_rate must be within [0,1]")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.agents[caps.Name] = &registration{agent: agent, caps: caps}

	if p.logger != nil {
		p.logger.Info("agent registered",
			"agent", caps.Name,
			"specializations", caps.Specializations,
		)
	}
	return nil
}

// Unregister removes an agent by name. Removing an unknown agent is a no-op.
func (p *Pool) Unregister(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.agents, name)
}

// Snapshot returns the agent's capabilities with current load filled in.
func (p *Pool) Snapshot(name string) (Capabilities, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	reg, ok := p.agents[name]
	if !ok {
		return Capabilities{}, false
	}
	return reg.snapshot(), true
}

// Snapshots returns capability snapshots for every registered agent, sorted
// by name for deterministic enumeration.
func (p *Pool) Snapshots() []Capabilities {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Capabilities, 0, len(p.agents))
	for _, reg := range p.agents {
		out = append(out, reg.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *registration) snapshot() Capabilities {
	caps := r.caps
	caps.CurrentLoad = r.load
	caps.Specializations = append([]string(nil), r.caps.Specializations...)
	return caps
}

// Matching returns agents eligible for the task, ranked by availability score
// (ties broken by name so enumeration order stays deterministic).
func (p *Pool) Matching(task Task) []Agent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	type ranked struct {
		agent Agent
		name  string
		score float64
	}

	var eligible []ranked
	for _, reg := range p.agents {
		caps := reg.snapshot()
		if task.Matches(caps) {
			eligible = append(eligible, ranked{
				agent: reg.agent,
				name:  caps.Name,
				score: caps.AvailabilityScore(p.cfg.ResponseTimeBaseline),
			})
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].score != eligible[j].score {
			return eligible[i].score > eligible[j].score
		}
		return eligible[i].name < eligible[j].name
	})

	agents := make([]Agent, len(eligible))
	for i, e := range eligible {
		agents[i] = e.agent
	}
	return agents
}

// Coordinate runs the named strategy over the pool for the task.
func (p *Pool) Coordinate(ctx context.Context, strategyName string, task Task) (*Result, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	strategy, ok := p.strategies[strategyName]
	p.mu.RUnlock()
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("unknown coordination strategy: %s", strategyName))
	}

	start := time.Now()
	result, err := strategy.Coordinate(ctx, p, task)

	status := "completed"
	if err != nil {
		status = "error"
	}
	p.metrics.IncrementCoordination(strategy.Name(), status)
	p.metrics.ObserveCoordinationLatency(strategy.Name(), time.Since(start))

	return result, err
}

// Dispatch executes the task on one agent under the per-agent deadline with
// load accounting. An agent that outlives its deadline is abandoned: the
// result is a timeout entry while the goroutine drains in the background.
func (p *Pool) Dispatch(ctx context.Context, agent Agent, task Task) (map[string]any, error) {
	name := agent.Capabilities().Name
	p.adjustLoad(name, 1)
	defer p.adjustLoad(name, -1)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.AgentDeadline)
	defer cancel()

	start := time.Now()
	out, err := await(ctx, func(ctx context.Context) (map[string]any, error) {
		return agent.Execute(ctx, task)
	})
	p.metrics.ObserveDispatchLatency(name, time.Since(start))

	if err != nil {
		p.metrics.IncrementAgentFailure(name, failureKind(err))
	}
	return out, err
}

// RequestVote collects one committee vote under the per-agent deadline.
// A timed-out or failed agent abstains.
func (p *Pool) RequestVote(ctx context.Context, agent Agent, task Task) Vote {
	name := agent.Capabilities().Name
	p.adjustLoad(name, 1)
	defer p.adjustLoad(name, -1)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.AgentDeadline)
	defer cancel()

	start := time.Now()
	vote, err := await(ctx, func(ctx context.Context) (Vote, error) {
		return agent.Vote(ctx, task)
	})
	p.metrics.ObserveDispatchLatency(name, time.Since(start))

	if err != nil {
		p.metrics.IncrementAgentFailure(name, failureKind(err))
		if p.logger != nil {
			p.logger.WarnContext(ctx, "committee vote failed, counting as abstain",
				"agent", name,
				"task_id", task.ID,
				"error", err,
			)
		}
		return VoteAbstain
	}
	switch vote {
	case VoteApprove, VoteReject, VoteAbstain:
		return vote
	default:
		return VoteAbstain
	}
}

func (p *Pool) adjustLoad(name string, delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if reg, ok := p.agents[name]; ok {
		reg.load += delta
		if reg.load < 0 {
			reg.load = 0
		}
	}
}

// await runs fn in its own goroutine so a non-cooperative agent cannot stall
// the caller past the deadline.
func await[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(o.err, context.DeadlineExceeded) {
			var zero T
			return zero, fmt.Errorf("agent call: %w", sentinel.ErrTimeout)
		}
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("agent call: %w", sentinel.ErrTimeout)
		}
		return zero, ctx.Err()
	}
}

func failureKind(err error) string {
	if errors.Is(err, sentinel.ErrTimeout) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "error"
}
