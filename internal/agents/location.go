package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"fraudlens/internal/agentpool"
	"fraudlens/internal/risk"
)

// LocationEvent is one observed sighting of an entity at a position.
type LocationEvent struct {
	Country   string    `json:"country"`
	City      string    `json:"city,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Location analyzes geolocation history for impossible travel and unusual
// country mixes.
type Location struct {
	base

	mu     sync.RWMutex
	events map[string][]LocationEvent
}

// NewLocation constructs the built-in location agent.
func NewLocation(logger *slog.Logger) *Location {
	return &Location{
		base:   newBase("location-agent", []string{"location_analysis", "fraud_detection"}, logger),
		events: make(map[string][]LocationEvent),
	}
}

// Record feeds one sighting into the agent's history.
func (a *Location) Record(entityID string, ev LocationEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events[entityID] = append(a.events[entityID], ev)
}

// GetLocationData returns the entity's sightings within the timeframe,
// oldest first, with a country summary.
func (a *Location) GetLocationData(ctx context.Context, entityID string, timeframeDays int) (map[string]any, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	events := a.window(entityID, timeframeDays)
	countries := make(map[string]int)
	for _, ev := range events {
		countries[ev.Country]++
	}

	return map[string]any{
		"entity_id": entityID,
		"events":    events,
		"countries": countries,
	}, nil
}

// DetectLocationAnomalies flags impossible travel (consecutive sightings
// whose implied speed exceeds airliner speed) and unusually wide country
// spreads.
func (a *Location) DetectLocationAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	events, _ := data["events"].([]LocationEvent)
	var out []risk.Assessment

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		hours := cur.Timestamp.Sub(prev.Timestamp).Hours()
		if hours <= 0 {
			continue
		}
		if speed := haversineKm(prev, cur) / hours; speed > 950 {
			assessment, err := risk.NewAssessment(0.9, 0.85,
				[]string{fmt.Sprintf("impossible-travel:%s-%s", prev.Country, cur.Country)},
				a.name,
				risk.WithLocation(cur.Country),
				risk.WithTimestamp(cur.Timestamp),
			)
			if err != nil {
				return nil, err
			}
			out = append(out, assessment)
		}
	}

	countries, _ := data["countries"].(map[string]int)
	if len(countries) >= 3 {
		names := make([]string, 0, len(countries))
		for c := range countries {
			names = append(names, c)
		}
		sort.Strings(names)

		assessment, err := risk.NewAssessment(0.5, 0.6,
			append([]string{"multi-country-activity"}, names...),
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
func (a *Location) Execute(ctx context.Context, task agentpool.Task) (map[string]any, error) {
	entityID, err := taskEntity(task)
	if err != nil {
		return nil, err
	}

	data, err := a.GetLocationData(ctx, entityID, taskTimeframe(task))
	if err != nil {
		return nil, err
	}
	assessments, err := a.DetectLocationAnomalies(ctx, entityID, data)
	if err != nil {
		return nil, err
	}
	return map[string]any{"assessments": assessments}, nil
}

func (a *Location) window(entityID string, timeframeDays int) []LocationEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()

	oldest := cutoff(time.Now(), timeframeDays)
	var out []LocationEvent
	for _, ev := range a.events[entityID] {
		if ev.Timestamp.After(oldest) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// haversineKm is the great-circle distance between two sightings.
func haversineKm(a, b LocationEvent) float64 {
	const earthRadiusKm = 6371.0

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
