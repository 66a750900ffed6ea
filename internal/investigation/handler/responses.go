package handler

import (
	"time"

	"fraudlens/internal/investigation/models"
)

// InvestigationResponse is the HTTP representation of an investigation.
type InvestigationResponse struct {
	InvestigationID string          `json:"investigation_id"`
	OwnerID         string          `json:"owner_id"`
	Stage           string          `json:"lifecycle_stage"`
	Status          string          `json:"status"`
	Settings        models.Settings `json:"settings"`
	Progress        models.Progress `json:"progress"`
	Results         *models.Results `json:"results,omitempty"`
	Version         int64           `json:"version"`
	ETag            string          `json:"etag,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FromInvestigation converts a domain record to an HTTP response.
func FromInvestigation(inv *models.Investigation, etag string) *InvestigationResponse {
	return &InvestigationResponse{
		InvestigationID: inv.ID,
		OwnerID:         inv.OwnerID,
		Stage:           string(inv.Stage),
		Status:          inv.Status,
		Settings:        inv.Settings,
		Progress:        inv.Progress,
		Results:         inv.Results,
		Version:         inv.Version,
		ETag:            etag,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

// ListResponse is the HTTP response for GET /investigations.
type ListResponse struct {
	Investigations []*InvestigationResponse `json:"investigations"`
}
