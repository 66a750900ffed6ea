// Package handler exposes investigation state over HTTP with ETag-validated
// conditional reads and version-guarded updates.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fraudlens/internal/investigation/models"
	dErrors "fraudlens/pkg/domain-errors"
	"fraudlens/pkg/platform/httputil"
	"fraudlens/pkg/requestcontext"
)

// Service defines the interface for investigation operations.
type Service interface {
	Create(ctx context.Context, ownerID string, settings *models.Settings) (*models.Investigation, error)
	Get(ctx context.Context, id string) (*models.Investigation, string, error)
	List(ctx context.Context, ownerID string) ([]*models.Investigation, error)
	Update(ctx context.Context, id string, expectedVersion int64, patch models.Patch) (*models.Investigation, error)
}

// Handler wires investigation endpoints to the investigation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an investigation handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts investigation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/investigations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{investigationID}", h.HandleGet)
		r.Patch("/{investigationID}", h.HandleUpdate)
	})
}

// HandleCreate handles POST /investigations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ownerID := requestcontext.ReviewerID(ctx)
	if ownerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inv, err := h.service.Create(ctx, ownerID, req.Settings)
	if err != nil {
		h.logger.ErrorContext(ctx, "investigation creation failed",
			"request_id", requestID,
			"owner_id", ownerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "investigation created",
		"request_id", requestID,
		"investigation_id", inv.ID,
		"stage", inv.Stage,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromInvestigation(inv, models.ComputeETag(inv)))
}

// HandleList handles GET /investigations.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := requestcontext.ReviewerID(ctx)
	if ownerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	investigations, err := h.service.List(ctx, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Investigations: make([]*InvestigationResponse, 0, len(investigations))}
	for _, inv := range investigations {
		resp.Investigations = append(resp.Investigations, FromInvestigation(inv, ""))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /investigations/{investigationID}. A matching
// If-None-Match header short-circuits to 304 without a body.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "investigationID")

	inv, etag, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("ETag", `"`+etag+`"`)
	if match := r.Header.Get("If-None-Match"); match != "" && trimETag(match) == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromInvestigation(inv, etag))
}

// HandleUpdate handles PATCH /investigations/{investigationID}. A stale
// expected_version yields 409 with both versions in the error details.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "investigationID")
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inv, err := h.service.Update(ctx, id, req.ExpectedVersion, req.Patch)
	if err != nil {
		h.logger.WarnContext(ctx, "investigation update rejected",
			"request_id", requestID,
			"investigation_id", id,
			"expected_version", req.ExpectedVersion,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "investigation updated",
		"request_id", requestID,
		"investigation_id", id,
		"version", inv.Version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromInvestigation(inv, models.ComputeETag(inv)))
}

// trimETag strips the quotes (and weak prefix) from a conditional header value.
func trimETag(v string) string {
	if len(v) >= 2 && v[0] == 'W' && v[1] == '/' {
		v = v[2:]
	}
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	return v
}
