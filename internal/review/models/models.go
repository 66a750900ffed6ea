// Package models defines human review requests and the typed investigation
// snapshot the escalation rules evaluate.
package models

import (
	"time"

	dErrors "fraudlens/pkg/domain-errors"
)

// Reason classifies why a case was escalated to a human.
type Reason string

const (
	ReasonHighRisk      Reason = "HIGH_RISK"
	ReasonLowConfidence Reason = "LOW_CONFIDENCE"
	ReasonManualRequest Reason = "MANUAL_REQUEST"
)

// Priority orders the review queue.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority parses a priority string, e.g. from a query parameter.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "priority must be HIGH, MEDIUM or LOW")
}

// Status is the review lifecycle. COMPLETED is terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// InvestigationSnapshot is the typed state the escalation rules and human
// responses operate on. Named fields, not a key-value bag, so a missing
// score is a zero value the rules can reason about rather than a silent nil.
type InvestigationSnapshot struct {
	CaseID             string  `json:"case_id"`
	RiskScore          float64 `json:"risk_score"`
	Confidence         float64 `json:"confidence"`
	Decision           string  `json:"decision,omitempty"`
	DecisionConfidence float64 `json:"decision_confidence,omitempty"`
}

// HumanReviewRequest is one escalated case. A request lives in exactly one
// queue: pending until processed, completed after.
type HumanReviewRequest struct {
	ReviewID    string                `json:"review_id"`
	CaseID      string                `json:"case_id"`
	Reason      Reason                `json:"reason"`
	Priority    Priority              `json:"priority"`
	Snapshot    InvestigationSnapshot `json:"snapshot"`
	Status      Status                `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	ReviewerID  string                `json:"reviewer_id,omitempty"`
}

// HumanResponse is a reviewer's verdict on an escalated case.
type HumanResponse struct {
	ReviewID   string  `json:"review_id"`
	ReviewerID string  `json:"reviewer_id"`
	Decision   string  `json:"decision"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
}

// Validate checks a response before processing.
func (r HumanResponse) Validate() error {
	if r.ReviewID == "" {
		return dErrors.New(dErrors.CodeValidation, "review_id is required")
	}
	if r.Decision == "" {
		return dErrors.New(dErrors.CodeValidation, "decision is required")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return dErrors.New(dErrors.CodeValidation, "confidence must be between 0 and 1")
	}
	return nil
}

// PriorityForReason derives the queue priority from the escalation reason.
func PriorityForReason(reason Reason) Priority {
	switch reason {
	case ReasonHighRisk, ReasonLowConfidence:
		return PriorityHigh
	case ReasonManualRequest:
		return PriorityMedium
	}
	return PriorityLow
}
