package handler

import (
	"time"

	"fraudlens/internal/coordinator"
	"fraudlens/internal/risk"
)

// AnalyzeResponse is the HTTP response for POST /analysis/{entityID}.
type AnalyzeResponse struct {
	Timestamp       time.Time                 `json:"timestamp"`
	EntityID        string                    `json:"entity_id"`
	InvestigationID string                    `json:"investigation_id,omitempty"`
	Assessment      risk.Assessment           `json:"risk_assessment"`
	IsLegitimate    bool                      `json:"is_legitimate"`
	RiskFactors     []string                  `json:"risk_factors,omitempty"`
	DomainData      map[string]map[string]any `json:"domain_data,omitempty"`
	Baseline        *coordinator.Baseline     `json:"baseline,omitempty"`
	ReviewID        string                    `json:"review_id,omitempty"`
}

// FromAnalysisResult maps an analysis result to its response shape.
func FromAnalysisResult(r *coordinator.AnalysisResult) AnalyzeResponse {
	return AnalyzeResponse{
		Timestamp:       r.Timestamp,
		EntityID:        r.EntityID,
		InvestigationID: r.InvestigationID,
		Assessment:      r.Assessment,
		IsLegitimate:    r.IsLegitimate,
		RiskFactors:     r.RiskFactors,
		DomainData:      r.DomainData,
		Baseline:        r.Baseline,
		ReviewID:        r.ReviewID,
	}
}
