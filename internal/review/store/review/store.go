// Package review persists human review requests across the pending and
// completed queues. A request lives in exactly one queue at a time.
package review

import (
	"context"
	"time"

	"fraudlens/internal/review/models"
)

// Store is the persistence port for review requests.
type Store interface {
	// AddPending stores a new PENDING request.
	AddPending(ctx context.Context, req *models.HumanReviewRequest) error

	// GetPending returns a pending request, or sentinel.ErrNotFound.
	GetPending(ctx context.Context, reviewID string) (*models.HumanReviewRequest, error)

	// ListPending returns pending requests, optionally filtered by priority.
	ListPending(ctx context.Context, priority *models.Priority) ([]*models.HumanReviewRequest, error)

	// Complete atomically moves the request from pending to completed. An id
	// already in the completed queue returns sentinel.ErrAlreadyUsed; an
	// unknown id returns sentinel.ErrNotFound.
	Complete(ctx context.Context, reviewID, reviewerID string, completedAt time.Time) (*models.HumanReviewRequest, error)

	// GetCompleted returns a completed request, or sentinel.ErrNotFound.
	GetCompleted(ctx context.Context, reviewID string) (*models.HumanReviewRequest, error)
}
