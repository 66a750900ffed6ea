package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mssola/useragent"

	"fraudlens/internal/agentpool"
	"fraudlens/internal/risk"
)

// DeviceEvent is one observed session from a device, identified by its raw
// user-agent string.
type DeviceEvent struct {
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
}

// deviceProfile is one parsed fingerprint.
type deviceProfile struct {
	Browser  string `json:"browser"`
	OS       string `json:"os"`
	Mobile   bool   `json:"mobile"`
	Bot      bool   `json:"bot"`
	Sessions int    `json:"sessions"`
}

// Device fingerprints sessions from user-agent strings and flags bot traffic
// and fingerprint churn.
type Device struct {
	base

	mu     sync.RWMutex
	events map[string][]DeviceEvent
}

// NewDevice constructs the built-in device agent.
func NewDevice(logger *slog.Logger) *Device {
	return &Device{
		base:   newBase("device-agent", []string{"device_analysis", "fraud_detection"}, logger),
		events: make(map[string][]DeviceEvent),
	}
}

// Record feeds one session into the agent's history.
func (a *Device) Record(entityID string, ev DeviceEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events[entityID] = append(a.events[entityID], ev)
}

// GetDeviceData parses the entity's sessions within the timeframe into
// device fingerprints grouped by browser and OS.
func (a *Device) GetDeviceData(ctx context.Context, entityID string, timeframeDays int) (map[string]any, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	oldest := cutoff(time.Now(), timeframeDays)
	profiles := make(map[string]*deviceProfile)
	botSessions := 0
	total := 0
	for _, ev := range a.events[entityID] {
		if !ev.Timestamp.After(oldest) {
			continue
		}
		total++

		ua := useragent.New(ev.UserAgent)
		browser, _ := ua.Browser()
		key := browser + "/" + ua.OS()

		p, ok := profiles[key]
		if !ok {
			p = &deviceProfile{
				Browser: browser,
				OS:      ua.OS(),
				Mobile:  ua.Mobile(),
				Bot:     ua.Bot(),
			}
			profiles[key] = p
		}
		p.Sessions++
		if ua.Bot() {
			botSessions++
		}
	}

	keys := make([]string, 0, len(profiles))
	for k := range profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]deviceProfile, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, *profiles[k])
	}

	return map[string]any{
		"entity_id":    entityID,
		"devices":      ordered,
		"bot_sessions": botSessions,
		"sessions":     total,
	}, nil
}

// DetectDeviceAnomalies flags bot-driven sessions and fingerprint churn.
func (a *Device) DetectDeviceAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	devices, _ := data["devices"].([]deviceProfile)
	botSessions, _ := data["bot_sessions"].(int)

	var out []risk.Assessment

	if botSessions > 0 {
		assessment, err := risk.NewAssessment(0.8, 0.9,
			[]string{fmt.Sprintf("bot-traffic:%d", botSessions)},
			a.name,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, assessment)
	}

	if len(devices) >= 4 {
		factors := []string{"device-churn"}
		for _, d := range devices {
			factors = append(factors, d.Browser+"/"+d.OS)
		}
		assessment, err := risk.NewAssessment(0.55, 0.65, factors, a.name)
		if err != nil {
			return nil, err
		}
		out = append(out, assessment)
	}

	return out, nil
}

// Execute serves pool coordination tasks by running retrieval + detection.
func (a *Device) Execute(ctx context.Context, task agentpool.Task) (map[string]any, error) {
	entityID, err := taskEntity(task)
	if err != nil {
		return nil, err
	}

	data, err := a.GetDeviceData(ctx, entityID, taskTimeframe(task))
	if err != nil {
		return nil, err
	}
	assessments, err := a.DetectDeviceAnomalies(ctx, entityID, data)
	if err != nil {
		return nil, err
	}
	return map[string]any{"assessments": assessments}, nil
}
