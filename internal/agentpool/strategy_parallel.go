package agentpool

import (
	"context"
	"sync"
)

// parallelStrategy dispatches the task to every matching agent concurrently
// and records each outcome independently. One agent's failure or timeout
// never cancels its siblings; the result always carries exactly one entry per
// dispatched agent.
type parallelStrategy struct{}

func (parallelStrategy) Name() string { return "parallel" }

func (s parallelStrategy) Coordinate(ctx context.Context, pool *Pool, task Task) (*Result, error) {
	agents := pool.Matching(task)

	collector := &outcomeCollector{outcomes: make([]AgentOutcome, len(agents))}
	for i, agent := range agents {
		collector.wg.Add(1)
		go collector.dispatch(ctx, pool, agent, task, i)
	}
	collector.wg.Wait()

	return &Result{
		Status:   "completed",
		Strategy: s.Name(),
		Results:  collector.outcomes,
	}, nil
}

// outcomeCollector gathers per-agent outcomes with proper synchronization.
// Each goroutine writes only its own slot, so outcome order follows the
// ranked agent order regardless of completion order.
type outcomeCollector struct {
	outcomes []AgentOutcome
	wg       sync.WaitGroup
}

func (c *outcomeCollector) dispatch(ctx context.Context, pool *Pool, agent Agent, task Task, slot int) {
	defer c.wg.Done()

	name := agent.Capabilities().Name
	output, err := pool.Dispatch(ctx, agent, task)
	if err != nil {
		c.outcomes[slot] = AgentOutcome{Agent: name, Error: err.Error()}
		return
	}
	c.outcomes[slot] = AgentOutcome{Agent: name, Output: output}
}
