// Package risk holds the risk assessment domain type shared by agents, the
// coordinator, and the review pipeline.
package risk

import (
	"fmt"
	"time"

	dErrors "fraudlens/pkg/domain-errors"
)

// Assessment is one agent's judgement about an entity. Immutable once
// constructed; it belongs to the producing agent until merged into an
// investigation.
type Assessment struct {
	RiskLevel  float64   `json:"risk_level"`
	Confidence float64   `json:"confidence"`
	Factors    []string  `json:"risk_factors"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
	Location   string    `json:"location,omitempty"`
}

// NewAssessment validates all fields at construction time. Scores outside
// [0,1], an empty factor list, or an empty source are rejected immediately so
// invalid assessments never enter the pipeline.
func NewAssessment(riskLevel, confidence float64, factors []string, source string, opts ...Option) (Assessment, error) {
	if riskLevel < 0 || riskLevel > 1 {
		return Assessment{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("risk_level must be within [0,1], got %v", riskLevel))
	}
	if confidence < 0 || confidence > 1 {
		return Assessment{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("confidence must be within [0,1], got %v", confidence))
	}
	if len(factors) == 0 {
		return Assessment{}, dErrors.New(dErrors.CodeValidation, "risk_factors must not be empty")
	}
	for i, f := range factors {
		if f == "" {
			return Assessment{}, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("risk_factors[%d] must not be empty", i))
		}
	}
	if source == "" {
		return Assessment{}, dErrors.New(dErrors.CodeValidation, "source must not be empty")
	}

	a := Assessment{
		RiskLevel:  riskLevel,
		Confidence: confidence,
		Factors:    append([]string(nil), factors...),
		Source:     source,
		Timestamp:  time.Now(),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a, nil
}

// Option customizes optional assessment fields at construction.
type Option func(*Assessment)

// WithLocation attaches a location descriptor to the assessment.
func WithLocation(location string) Option {
	return func(a *Assessment) { a.Location = location }
}

// WithTimestamp overrides the construction timestamp. Used by agents that
// assess historical data points.
func WithTimestamp(t time.Time) Option {
	return func(a *Assessment) { a.Timestamp = t }
}
