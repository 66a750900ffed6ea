package handler

import (
	"fraudlens/internal/agentpool"
	dErrors "fraudlens/pkg/domain-errors"
)

// AnalyzeRequest is the HTTP request body for POST /analysis/{entityID}.
type AnalyzeRequest struct {
	TimeframeDays int `json:"timeframe_days"`
}

// Validate validates the request. A zero timeframe means the server default.
func (r *AnalyzeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.TimeframeDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "timeframe_days must not be negative")
	}
	if r.TimeframeDays > 365 {
		return dErrors.New(dErrors.CodeValidation, "timeframe_days must not exceed 365")
	}
	return nil
}

// CoordinateRequest is the HTTP request body for POST /coordinate.
type CoordinateRequest struct {
	Strategy             string         `json:"strategy"`
	TaskID               string         `json:"task_id"`
	TaskType             string         `json:"task_type"`
	Complexity           float64        `json:"complexity"`
	RequiredCapabilities []string       `json:"required_capabilities"`
	Input                map[string]any `json:"input,omitempty"`
}

// Validate validates the request. Task-level validation happens in the pool.
func (r *CoordinateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Strategy == "" {
		return dErrors.New(dErrors.CodeValidation, "strategy is required")
	}
	return nil
}

func (r *CoordinateRequest) toTask() agentpool.Task {
	return agentpool.Task{
		ID:                   r.TaskID,
		Type:                 r.TaskType,
		Complexity:           r.Complexity,
		RequiredCapabilities: r.RequiredCapabilities,
		Input:                r.Input,
	}
}
