// Package handler exposes entity analysis and pool coordination over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fraudlens/internal/agentpool"
	"fraudlens/internal/coordinator"
	dErrors "fraudlens/pkg/domain-errors"
	"fraudlens/pkg/platform/httputil"
	"fraudlens/pkg/requestcontext"
)

// Analyzer runs the analysis pipeline.
type Analyzer interface {
	AnalyzeEntity(ctx context.Context, ownerID, entityID string, timeframeDays int) (*coordinator.AnalysisResult, error)
}

// Coordinator runs a named strategy over the agent pool.
type Coordinator interface {
	Coordinate(ctx context.Context, strategyName string, task agentpool.Task) (*agentpool.Result, error)
}

// Handler wires analysis endpoints to the coordinator and the agent pool.
type Handler struct {
	analyzer    Analyzer
	coordinator Coordinator
	logger      *slog.Logger
}

// New constructs an analysis handler.
func New(analyzer Analyzer, coord Coordinator, logger *slog.Logger) *Handler {
	return &Handler{analyzer: analyzer, coordinator: coord, logger: logger}
}

// Register mounts analysis endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/analysis/{entityID}", h.HandleAnalyze)
	r.Post("/coordinate", h.HandleCoordinate)
}

// HandleAnalyze handles POST /analysis/{entityID}.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	entityID := chi.URLParam(r, "entityID")

	ownerID := requestcontext.ReviewerID(ctx)
	if ownerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[AnalyzeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.analyzer.AnalyzeEntity(ctx, ownerID, entityID, req.TimeframeDays)
	if err != nil {
		h.logger.ErrorContext(ctx, "entity analysis failed",
			"request_id", requestID,
			"entity_id", entityID,
			"error", err,
		)
		httputil.WriteError(w, analysisError(err))
		return
	}

	h.logger.InfoContext(ctx, "entity analysis completed",
		"request_id", requestID,
		"entity_id", entityID,
		"investigation_id", result.InvestigationID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromAnalysisResult(result))
}

// HandleCoordinate handles POST /coordinate.
func (h *Handler) HandleCoordinate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.ReviewerID(ctx) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CoordinateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.coordinator.Coordinate(ctx, req.Strategy, req.toTask())
	if err != nil {
		h.logger.ErrorContext(ctx, "coordination failed",
			"request_id", requestID,
			"strategy", req.Strategy,
			"task_id", req.TaskID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// analysisError maps a pipeline failure onto a coded domain error so the
// transport layer picks the right status. Aggregate agent failures surface
// as 502-adjacent unavailability rather than a bare 500.
func analysisError(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	var analysisErr *coordinator.AnalysisError
	if errors.As(err, &analysisErr) {
		return dErrors.Wrap(dErrors.CodeUnavailable, analysisErr.Error(), err)
	}
	return err
}
