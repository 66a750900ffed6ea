package coordinator

import (
	"time"

	"fraudlens/internal/risk"
)

// Baseline is the behavioral profile the anomaly agent establishes for an
// entity before any domain analysis runs. Detection results are judged
// relative to it.
type Baseline struct {
	EntityID      string             `json:"entity_id"`
	TimeframeDays int                `json:"timeframe_days"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	SampleSize    int                `json:"sample_size"`
	EstablishedAt time.Time          `json:"established_at"`
}

// AnalysisResult is the assembled outcome of one analyze-entity call.
type AnalysisResult struct {
	Timestamp       time.Time                 `json:"timestamp"`
	EntityID        string                    `json:"entity_id"`
	InvestigationID string                    `json:"investigation_id,omitempty"`
	Assessment      risk.Assessment           `json:"risk_assessment"`
	IsLegitimate    bool                      `json:"is_legitimate"`
	RiskFactors     []string                  `json:"risk_factors,omitempty"`
	DomainData      map[string]map[string]any `json:"domain_data,omitempty"`
	Baseline        *Baseline                 `json:"baseline,omitempty"`
	ReviewID        string                    `json:"review_id,omitempty"`
}

// DominantLocation reduces location-domain assessments to the single highest
// risk signal. On a tie the first-encountered maximum wins, so the outcome is
// deterministic for a fixed enumeration order. Returns false when the slice
// is empty.
func DominantLocation(assessments []risk.Assessment) (risk.Assessment, bool) {
	if len(assessments) == 0 {
		return risk.Assessment{}, false
	}
	dominant := assessments[0]
	for _, a := range assessments[1:] {
		if a.RiskLevel > dominant.RiskLevel {
			dominant = a
		}
	}
	return dominant, true
}
