package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fraudlens/internal/agentpool"
	"fraudlens/internal/risk"
)

// BehaviorEvent is one observed action by an entity.
type BehaviorEvent struct {
	Action    string    `json:"action"`
	Amount    float64   `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Behavior analyzes activity patterns for velocity spikes and off-hours
// bursts.
type Behavior struct {
	base

	mu     sync.RWMutex
	events map[string][]BehaviorEvent
}

// NewBehavior constructs the built-in behavior agent.
func NewBehavior(logger *slog.Logger) *Behavior {
	return &Behavior{
		base:   newBase("behavior-agent", []string{"behavior_analysis", "fraud_detection"}, logger),
		events: make(map[string][]BehaviorEvent),
	}
}

// Record feeds one action into the agent's history.
func (a *Behavior) Record(entityID string, ev BehaviorEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events[entityID] = append(a.events[entityID], ev)
}

// GetBehaviorData returns the entity's actions within the timeframe with
// per-action counts and night-time share.
func (a *Behavior) GetBehaviorData(ctx context.Context, entityID string, timeframeDays int) (map[string]any, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	oldest := cutoff(time.Now(), timeframeDays)
	counts := make(map[string]int)
	nightActions := 0
	var events []BehaviorEvent
	for _, ev := range a.events[entityID] {
		if !ev.Timestamp.After(oldest) {
			continue
		}
		events = append(events, ev)
		counts[ev.Action]++
		if h := ev.Timestamp.UTC().Hour(); h < 6 {
			nightActions++
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })

	return map[string]any{
		"entity_id":     entityID,
		"events":        events,
		"action_counts": counts,
		"night_actions": nightActions,
	}, nil
}

// DetectBehaviorAnomalies flags velocity spikes (many actions inside an
// hour) and night-dominant activity.
func (a *Behavior) DetectBehaviorAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	events, _ := data["events"].([]BehaviorEvent)
	nightActions, _ := data["night_actions"].(int)

	var out []risk.Assessment

	if burst := maxActionsPerHour(events); burst >= 20 {
		assessment, err := risk.NewAssessment(0.75, 0.8,
			[]string{fmt.Sprintf("velocity-spike:%d/h", burst)},
			a.name,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, assessment)
	}

	if len(events) >= 10 && nightActions*2 > len(events) {
		assessment, err := risk.NewAssessment(0.45, 0.6,
			[]string{fmt.Sprintf("night-dominant-activity:%d/%d", nightActions, len(events))},
			a.name,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, assessment)
	}

	return out, nil
}

// Execute serves pool coordination tasks by running retrieval + detection.
func (a *Behavior) Execute(ctx context.Context, task agentpool.Task) (map[string]any, error) {
	entityID, err := taskEntity(task)
	if err != nil {
		return nil, err
	}

	data, err := a.GetBehaviorData(ctx, entityID, taskTimeframe(task))
	if err != nil {
		return nil, err
	}
	assessments, err := a.DetectBehaviorAnomalies(ctx, entityID, data)
	if err != nil {
		return nil, err
	}
	return map[string]any{"assessments": assessments}, nil
}

// maxActionsPerHour slides a one-hour window over the sorted events.
func maxActionsPerHour(events []BehaviorEvent) int {
	best := 0
	start := 0
	for end := range events {
		for events[end].Timestamp.Sub(events[start].Timestamp) > time.Hour {
			start++
		}
		if n := end - start + 1; n > best {
			best = n
		}
	}
	return best
}
