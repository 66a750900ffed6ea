package agents

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sort"
	"sync"
	"time"

	"fraudlens/internal/agentpool"
	"fraudlens/internal/risk"
)

// NetworkEvent is one observed connection from an entity.
type NetworkEvent struct {
	IP        string    `json:"ip"`
	ASN       string    `json:"asn,omitempty"`
	IsProxy   bool      `json:"is_proxy"`
	Timestamp time.Time `json:"timestamp"`
}

// Network analyzes connection history for proxy churn and address spread.
type Network struct {
	base

	mu     sync.RWMutex
	events map[string][]NetworkEvent
}

// NewNetwork constructs the built-in network agent.
func NewNetwork(logger *slog.Logger) *Network {
	return &Network{
		base:   newBase("network-agent", []string{"network_analysis", "fraud_detection"}, logger),
		events: make(map[string][]NetworkEvent),
	}
}

// Record feeds one connection into the agent's history. Events with an
// unparseable address are dropped.
func (a *Network) Record(entityID string, ev NetworkEvent) error {
	if _, err := netip.ParseAddr(ev.IP); err != nil {
		return fmt.Errorf("invalid address %q: %w", ev.IP, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events[entityID] = append(a.events[entityID], ev)
	return nil
}

// GetNetworkData returns the entity's connections within the timeframe with
// distinct address and proxy counts.
func (a *Network) GetNetworkData(ctx context.Context, entityID string, timeframeDays int) (map[string]any, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	oldest := cutoff(time.Now(), timeframeDays)
	addrs := make(map[string]struct{})
	proxyCount := 0
	var events []NetworkEvent
	for _, ev := range a.events[entityID] {
		if !ev.Timestamp.After(oldest) {
			continue
		}
		events = append(events, ev)
		addrs[ev.IP] = struct{}{}
		if ev.IsProxy {
			proxyCount++
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })

	return map[string]any{
		"entity_id":      entityID,
		"events":         events,
		"distinct_ips":   len(addrs),
		"proxy_sessions": proxyCount,
	}, nil
}

// DetectNetworkAnomalies flags heavy proxy use and wide address spreads.
func (a *Network) DetectNetworkAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	events, _ := data["events"].([]NetworkEvent)
	proxySessions, _ := data["proxy_sessions"].(int)
	distinctIPs, _ := data["distinct_ips"].(int)

	var out []risk.Assessment

	if len(events) > 0 && proxySessions*2 > len(events) {
		assessment, err := risk.NewAssessment(0.7, 0.75,
			[]string{fmt.Sprintf("proxy-dominant-traffic:%d/%d", proxySessions, len(events))},
			a.name,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, assessment)
	}

	if distinctIPs >= 10 {
		assessment, err := risk.NewAssessment(0.6, 0.7,
			[]string{fmt.Sprintf("address-spread:%d", distinctIPs)},
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
func (a *Network) Execute(ctx context.Context, task agentpool.Task) (map[string]any, error) {
	entityID, err := taskEntity(task)
	if err != nil {
		return nil, err
	}

	data, err := a.GetNetworkData(ctx, entityID, taskTimeframe(task))
	if err != nil {
		return nil, err
	}
	assessments, err := a.DetectNetworkAnomalies(ctx, entityID, data)
	if err != nil {
		return nil, err
	}
	return map[string]any{"assessments": assessments}, nil
}
