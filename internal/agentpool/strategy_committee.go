package agentpool

import (
	"context"
	"sync"
)

// committeeStrategy puts the task to a vote across every matching agent.
// Votes are collected concurrently under per-agent deadlines; an agent that
// errors or times out abstains rather than failing the committee.
type committeeStrategy struct{}

func (committeeStrategy) Name() string { return "committee" }

func (s committeeStrategy) Coordinate(ctx context.Context, pool *Pool, task Task) (*Result, error) {
	agents := pool.Matching(task)

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		votes = make(map[string]Vote, len(agents))
	)

	for _, agent := range agents {
		wg.Add(1)
		go func(agent Agent) {
			defer wg.Done()
			name := agent.Capabilities().Name
			vote := pool.RequestVote(ctx, agent, task)

			mu.Lock()
			votes[name] = vote
			mu.Unlock()
		}(agent)
	}
	wg.Wait()

	tally := &VoteTally{}
	for _, vote := range votes {
		switch vote {
		case VoteApprove:
			tally.Approve++
		case VoteReject:
			tally.Reject++
		default:
			tally.Abstain++
		}
	}

	return &Result{
		Status:   "completed",
		Strategy: s.Name(),
		Votes:    votes,
		Tally:    tally,
		Decision: tally.Decide(),
	}, nil
}
