// Package handler exposes the review queue over HTTP. Queue endpoints
// require a reviewer JWT; the token endpoint exchanges a reviewer API key
// for one.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fraudlens/internal/review/models"
	dErrors "fraudlens/pkg/domain-errors"
	"fraudlens/pkg/platform/httputil"
	"fraudlens/pkg/platform/middleware/auth"
	"fraudlens/pkg/requestcontext"
)

// Manager defines the interface for review operations.
type Manager interface {
	ProcessHumanResponse(ctx context.Context, resp models.HumanResponse, snap models.InvestigationSnapshot) (models.InvestigationSnapshot, error)
	GetPendingReviews(ctx context.Context, priority *models.Priority) ([]*models.HumanReviewRequest, error)
	GetCompletedReview(ctx context.Context, reviewID string) (*models.HumanReviewRequest, error)
}

// Registry authenticates reviewer API keys.
type Registry interface {
	Authenticate(ctx context.Context, reviewerID, key string) (string, error)
}

// TokenIssuer mints reviewer JWTs.
type TokenIssuer interface {
	GenerateReviewerToken(reviewerID, role string, expiresIn time.Duration) (string, error)
}

// Handler wires review endpoints to the review manager.
type Handler struct {
	manager   Manager
	registry  Registry
	issuer    TokenIssuer
	validator auth.JWTValidator
	logger    *slog.Logger
	tokenTTL  time.Duration
}

// New constructs a review handler.
func New(manager Manager, registry Registry, issuer TokenIssuer, validator auth.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		manager:   manager,
		registry:  registry,
		issuer:    issuer,
		validator: validator,
		logger:    logger,
		tokenTTL:  30 * time.Minute,
	}
}

// Register mounts review endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/reviewer-token", h.HandleToken)

	r.Route("/reviews", func(r chi.Router) {
		r.Use(auth.RequireReviewer(h.validator, h.logger))
		r.Get("/pending", h.HandlePending)
		r.Get("/{reviewID}", h.HandleGetCompleted)
		r.Post("/{reviewID}/response", h.HandleResponse)
	})
}

// HandleToken handles POST /auth/reviewer-token.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	role, err := h.registry.Authenticate(ctx, req.ReviewerID, req.APIKey)
	if err != nil {
		h.logger.WarnContext(ctx, "reviewer authentication failed",
			"request_id", requestID,
			"reviewer_id", req.ReviewerID,
		)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.issuer.GenerateReviewerToken(req.ReviewerID, role, h.tokenTTL)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "could not issue token", err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
	})
}

// HandlePending handles GET /reviews/pending with an optional priority filter.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var priority *models.Priority
	if raw := r.URL.Query().Get("priority"); raw != "" {
		p, err := models.ParsePriority(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		priority = &p
	}

	reviews, err := h.manager.GetPendingReviews(ctx, priority)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PendingResponse{Reviews: reviews})
}

// HandleGetCompleted handles GET /reviews/{reviewID}.
func (h *Handler) HandleGetCompleted(w http.ResponseWriter, r *http.Request) {
	review, err := h.manager.GetCompletedReview(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

// HandleResponse handles POST /reviews/{reviewID}/response. The reviewer
// identity comes from the JWT, never from the body.
func (h *Handler) HandleResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewID := chi.URLParam(r, "reviewID")

	reviewerID := requestcontext.ReviewerID(ctx)
	if reviewerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ResponseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snap := models.InvestigationSnapshot{}
	if req.Snapshot != nil {
		snap = *req.Snapshot
	}

	updated, err := h.manager.ProcessHumanResponse(ctx, models.HumanResponse{
		ReviewID:   reviewID,
		ReviewerID: reviewerID,
		Decision:   req.Decision,
		Confidence: req.Confidence,
		Notes:      req.Notes,
	}, snap)
	if err != nil {
		h.logger.WarnContext(ctx, "review response rejected",
			"request_id", requestID,
			"review_id", reviewID,
			"reviewer_id", reviewerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ProcessedResponse{ReviewID: reviewID, Snapshot: updated})
}
