package handler

import (
	"fraudlens/internal/investigation/models"
	dErrors "fraudlens/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /investigations.
type CreateRequest struct {
	Settings *models.Settings `json:"settings,omitempty"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Settings != nil {
		return r.Settings.Validate()
	}
	return nil
}

// UpdateRequest is the HTTP request body for PATCH /investigations/{id}.
// The patch applies only if expected_version matches the stored version.
type UpdateRequest struct {
	ExpectedVersion int64        `json:"expected_version"`
	Patch           models.Patch `json:"patch"`
}

// Validate validates the request.
func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.ExpectedVersion < 1 {
		return dErrors.New(dErrors.CodeValidation, "expected_version must be at least 1")
	}
	if r.Patch.Stage != nil {
		switch *r.Patch.Stage {
		case models.StageCreated, models.StageSettings, models.StageInProgress,
			models.StageCompleted, models.StageError, models.StageCancelled:
		default:
			return dErrors.New(dErrors.CodeValidation, "unknown lifecycle_stage")
		}
	}
	if r.Patch.PercentComplete != nil && (*r.Patch.PercentComplete < 0 || *r.Patch.PercentComplete > 100) {
		return dErrors.New(dErrors.CodeValidation, "percent_complete must be between 0 and 100")
	}
	return nil
}
