package agents

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fraudlens/internal/agentpool"
	"fraudlens/internal/coordinator"
	"fraudlens/internal/risk"
)

// Anomaly owns the cross-domain operations: baselines, risk aggregation, the
// false-positive filter, and legitimate-scenario detection.
type Anomaly struct {
	base

	// minRiskLevel is the false-positive floor: assessments below it are
	// dropped unless their confidence clears highConfidence.
	minRiskLevel   float64
	highConfidence float64
	locationWeight float64

	mu        sync.RWMutex
	samples   map[string]map[string][]float64
	scenarios map[string]map[string]struct{}
}

// NewAnomaly constructs the built-in anomaly agent.
func NewAnomaly(logger *slog.Logger) *Anomaly {
	return &Anomaly{
		base:           newBase("anomaly-agent", []string{"anomaly_detection", "risk_scoring", "decision"}, logger),
		minRiskLevel:   0.2,
		highConfidence: 0.9,
		locationWeight: 0.6,
		samples:        make(map[string]map[string][]float64),
		scenarios:      make(map[string]map[string]struct{}),
	}
}

// Observe feeds one metric sample into the entity's behavioral history.
func (a *Anomaly) Observe(entityID, metric string, value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.samples[entityID] == nil {
		a.samples[entityID] = make(map[string][]float64)
	}
	a.samples[entityID][metric] = append(a.samples[entityID][metric], value)
}

// RegisterScenario marks a known legitimate scenario for the entity, such as
// a declared travel plan.
func (a *Anomaly) RegisterScenario(entityID, scenario string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scenarios[entityID] == nil {
		a.scenarios[entityID] = make(map[string]struct{})
	}
	a.scenarios[entityID][scenario] = struct{}{}
}

// EstablishBaseline averages the entity's observed metrics into the profile
// every later detection is judged against.
func (a *Anomaly) EstablishBaseline(ctx context.Context, entityID string, timeframeDays int) (*coordinator.Baseline, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	metrics := make(map[string]float64)
	sampleSize := 0
	for metric, values := range a.samples[entityID] {
		if len(values) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		metrics[metric] = sum / float64(len(values))
		sampleSize += len(values)
	}

	return &coordinator.Baseline{
		EntityID:      entityID,
		TimeframeDays: timeframeDays,
		Metrics:       metrics,
		SampleSize:    sampleSize,
		EstablishedAt: time.Now(),
	}, nil
}

// CalculateRiskScore blends the dominant location signal with the entity's
// baseline depth. Thinner history means less certainty, so confidence scales
// with sample size.
func (a *Anomaly) CalculateRiskScore(ctx context.Context, entityID string, locationRisk float64, locationFactors []string) (risk.Assessment, error) {
	if err := a.ready(); err != nil {
		return risk.Assessment{}, err
	}

	a.mu.RLock()
	sampleSize := 0
	for _, values := range a.samples[entityID] {
		sampleSize += len(values)
	}
	a.mu.RUnlock()

	historyRisk := 0.5
	if sampleSize >= 50 {
		historyRisk = 0.2
	} else if sampleSize >= 10 {
		historyRisk = 0.35
	}

	level := a.locationWeight*locationRisk + (1-a.locationWeight)*historyRisk
	confidence := 0.5
	if sampleSize >= 10 {
		confidence = 0.75
	}
	if sampleSize >= 50 {
		confidence = 0.9
	}

	factors := append([]string{"cross-domain-aggregate"}, locationFactors...)
	return risk.NewAssessment(level, confidence, factors, a.name)
}

// FilterFalsePositives drops weak signals: anything under the risk floor is
// discarded unless its confidence is high enough to trust anyway. Order is
// preserved.
func (a *Anomaly) FilterFalsePositives(ctx context.Context, assessments []risk.Assessment) ([]risk.Assessment, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	var out []risk.Assessment
	for _, as := range assessments {
		if as.RiskLevel < a.minRiskLevel && as.Confidence < a.highConfidence {
			continue
		}
		out = append(out, as)
	}
	return out, nil
}

// DetectLegitimateScenarios reports whether a registered scenario explains
// the final assessment. Very high risk is never explained away.
func (a *Anomaly) DetectLegitimateScenarios(ctx context.Context, entityID string, final risk.Assessment) (bool, error) {
	if err := a.ready(); err != nil {
		return false, err
	}
	if final.RiskLevel >= 0.8 {
		return false, nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.scenarios[entityID]) > 0, nil
}

// Execute serves pool coordination tasks by establishing a baseline and
// reporting the registered scenarios.
func (a *Anomaly) Execute(ctx context.Context, task agentpool.Task) (map[string]any, error) {
	entityID, err := taskEntity(task)
	if err != nil {
		return nil, err
	}

	baseline, err := a.EstablishBaseline(ctx, entityID, taskTimeframe(task))
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	scenarios := make([]string, 0, len(a.scenarios[entityID]))
	for s := range a.scenarios[entityID] {
		scenarios = append(scenarios, s)
	}
	a.mu.RUnlock()
	sort.Strings(scenarios)

	return map[string]any{
		"baseline":  baseline,
		"scenarios": scenarios,
	}, nil
}
