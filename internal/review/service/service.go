// Package service implements the human review manager: ordered escalation
// rules, the pending queue, and single-transition response processing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fraudlens/internal/audit"
	"fraudlens/internal/platform/config"
	"fraudlens/internal/review/models"
	reviewStore "fraudlens/internal/review/store/review"
	dErrors "fraudlens/pkg/domain-errors"
	"fraudlens/pkg/platform/sentinel"
	"fraudlens/pkg/requestcontext"
)

// Manager owns escalation decisions and the review queues.
type Manager struct {
	store      reviewStore.Store
	thresholds config.EscalationConfig
	logger     *slog.Logger
	auditor    audit.Publisher
}

// New constructs a Manager. Thresholds come from configuration; there are
// no built-in defaults because the rules are policy, not code.
func New(store reviewStore.Store, thresholds config.EscalationConfig, logger *slog.Logger, auditor audit.Publisher) *Manager {
	if auditor == nil {
		auditor = audit.NopPublisher{}
	}
	return &Manager{
		store:      store,
		thresholds: thresholds,
		logger:     logger,
		auditor:    auditor,
	}
}

// ShouldEscalate evaluates the ordered escalation rules: the high-risk rule
// first, then the low-confidence rule. The first match wins.
func (m *Manager) ShouldEscalate(snap models.InvestigationSnapshot) (bool, models.Reason) {
	if snap.RiskScore >= m.thresholds.HighRiskThreshold {
		return true, models.ReasonHighRisk
	}
	if snap.Confidence < m.thresholds.LowConfidenceThreshold {
		return true, models.ReasonLowConfidence
	}
	return false, ""
}

// RequestHumanReview creates a PENDING request for the case, with priority
// derived from the reason.
func (m *Manager) RequestHumanReview(ctx context.Context, snap models.InvestigationSnapshot, reason models.Reason) (*models.HumanReviewRequest, error) {
	if snap.CaseID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "case id is required")
	}

	req := &models.HumanReviewRequest{
		ReviewID:  uuid.NewString(),
		CaseID:    snap.CaseID,
		Reason:    reason,
		Priority:  models.PriorityForReason(reason),
		Snapshot:  snap,
		Status:    models.StatusPending,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := m.store.AddPending(ctx, req); err != nil {
		return nil, fmt.Errorf("add pending review: %w", err)
	}

	m.logger.InfoContext(ctx, "case escalated for human review",
		"review_id", req.ReviewID,
		"case_id", req.CaseID,
		"reason", reason,
		"priority", req.Priority,
		"risk_score", snap.RiskScore,
		"confidence", snap.Confidence,
	)
	_ = m.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionCaseEscalated,
		CaseID:    req.CaseID,
		Reason:    string(reason),
		RequestID: requestcontext.RequestID(ctx),
	})
	return req, nil
}

// ProcessHumanResponse moves the request from pending to completed and
// merges the reviewer's verdict into the snapshot. A review id can be
// processed exactly once; reprocessing is an error, not a silent no-op, so
// a double-submitting client learns its first submission already counted.
func (m *Manager) ProcessHumanResponse(ctx context.Context, resp models.HumanResponse, snap models.InvestigationSnapshot) (models.InvestigationSnapshot, error) {
	if err := resp.Validate(); err != nil {
		return snap, err
	}

	req, err := m.store.Complete(ctx, resp.ReviewID, resp.ReviewerID, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return snap, dErrors.Wrap(dErrors.CodeConflict, "review already processed", err)
		case errors.Is(err, sentinel.ErrNotFound):
			return snap, dErrors.New(dErrors.CodeNotFound, "review not found")
		default:
			return snap, fmt.Errorf("complete review: %w", err)
		}
	}

	snap.Decision = resp.Decision
	snap.DecisionConfidence = resp.Confidence

	m.logger.InfoContext(ctx, "human review processed",
		"review_id", req.ReviewID,
		"case_id", req.CaseID,
		"reviewer_id", resp.ReviewerID,
		"decision", resp.Decision,
	)
	_ = m.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionReviewCompleted,
		CaseID:    req.CaseID,
		ActorID:   resp.ReviewerID,
		Decision:  resp.Decision,
		RequestID: requestcontext.RequestID(ctx),
	})
	return snap, nil
}

// GetPendingReviews returns the pending queue, filtered by priority when one
// is supplied.
func (m *Manager) GetPendingReviews(ctx context.Context, priority *models.Priority) ([]*models.HumanReviewRequest, error) {
	out, err := m.store.ListPending(ctx, priority)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	return out, nil
}

// GetCompletedReview returns one completed review.
func (m *Manager) GetCompletedReview(ctx context.Context, reviewID string) (*models.HumanReviewRequest, error) {
	req, err := m.store.GetCompleted(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
		}
		return nil, fmt.Errorf("get completed review: %w", err)
	}
	return req, nil
}
