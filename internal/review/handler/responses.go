package handler

import (
	"fraudlens/internal/review/models"
)

// TokenResponse is the HTTP response for POST /auth/reviewer-token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// PendingResponse is the HTTP response for GET /reviews/pending.
type PendingResponse struct {
	Reviews []*models.HumanReviewRequest `json:"reviews"`
}

// ProcessedResponse is the HTTP response for POST /reviews/{id}/response.
type ProcessedResponse struct {
	ReviewID string                        `json:"review_id"`
	Snapshot models.InvestigationSnapshot  `json:"snapshot"`
}
