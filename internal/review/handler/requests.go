package handler

import (
	"strings"

	"fraudlens/internal/review/models"
	dErrors "fraudlens/pkg/domain-errors"
)

// TokenRequest is the HTTP request body for POST /auth/reviewer-token.
type TokenRequest struct {
	ReviewerID string `json:"reviewer_id"`
	APIKey     string `json:"api_key"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *TokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ReviewerID = strings.TrimSpace(r.ReviewerID)
	if r.ReviewerID == "" {
		return dErrors.New(dErrors.CodeValidation, "reviewer_id is required")
	}
	if r.APIKey == "" {
		return dErrors.New(dErrors.CodeValidation, "api_key is required")
	}
	return nil
}

// ResponseRequest is the HTTP request body for POST /reviews/{id}/response.
type ResponseRequest struct {
	Decision   string                 `json:"decision"`
	Confidence float64                `json:"confidence"`
	Notes      string                 `json:"notes,omitempty"`
	Snapshot   *models.InvestigationSnapshot `json:"snapshot,omitempty"`
}

// Validate validates the request.
func (r *ResponseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Decision = strings.TrimSpace(r.Decision)
	if r.Decision == "" {
		return dErrors.New(dErrors.CodeValidation, "decision is required")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return dErrors.New(dErrors.CodeValidation, "confidence must be between 0 and 1")
	}
	return nil
}
