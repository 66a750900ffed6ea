//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,SnapshotCache

// Package service implements investigation lifecycle operations on top of the
// state store: creation, cached reads with ETag support, and conflict-retried
// progress updates.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fraudlens/internal/investigation/cache"
	"fraudlens/internal/investigation/metrics"
	"fraudlens/internal/investigation/models"
	store "fraudlens/internal/investigation/store/investigation"
	dErrors "fraudlens/pkg/domain-errors"
	"fraudlens/pkg/platform/sentinel"
	"fraudlens/pkg/requestcontext"
)

// Store is the persistence port the service depends on.
type Store interface {
	Create(ctx context.Context, inv *models.Investigation) error
	Get(ctx context.Context, id string) (*models.Investigation, error)
	Update(ctx context.Context, id string, expectedVersion int64, patch models.Patch) (*models.Investigation, error)
	List(ctx context.Context, ownerID string) ([]*models.Investigation, error)
}

// SnapshotCache is the optional read-path cache port.
type SnapshotCache interface {
	Get(ctx context.Context, id string) (*cache.Snapshot, error)
	Put(ctx context.Context, inv *models.Investigation) error
	Invalidate(ctx context.Context, id string) error
}

// Service coordinates investigation state changes.
type Service struct {
	store   Store
	cache   SnapshotCache
	logger  *slog.Logger
	metrics *metrics.Metrics
	retries int
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the snapshot cache on the read path.
func WithCache(c SnapshotCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics enables metrics recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRetries sets how many times UpdateWithRetry re-reads after a conflict.
func WithRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// New constructs a Service.
func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  logger,
		retries: 3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create opens a new investigation for the owner. With settings provided the
// record starts at SETTINGS; without, at CREATED awaiting configuration.
func (s *Service) Create(ctx context.Context, ownerID string, settings *models.Settings) (*models.Investigation, error) {
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner id is required")
	}

	now := requestcontext.Now(ctx)
	inv := &models.Investigation{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Stage:     models.StageCreated,
		Status:    "created",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if settings != nil {
		settings.Normalize()
		if err := settings.Validate(); err != nil {
			return nil, err
		}
		inv.Settings = *settings
		inv.Stage = models.StageSettings
	}

	if err := s.store.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create investigation: %w", err)
	}

	s.logger.InfoContext(ctx, "investigation created",
		"investigation_id", inv.ID,
		"owner_id", ownerID,
		"stage", inv.Stage,
		"request_id", requestcontext.RequestID(ctx),
	)
	return inv, nil
}

// Get returns the investigation and its ETag, serving from the snapshot
// cache when a valid entry exists.
func (s *Service) Get(ctx context.Context, id string) (*models.Investigation, string, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveReadLatency(time.Since(start)) }()

	if s.cache != nil {
		snap, err := s.cache.Get(ctx, id)
		if err == nil {
			s.metrics.IncrementCacheLookup("hit")
			return snap.Investigation, snap.ETag, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "snapshot cache read failed", "investigation_id", id, "error", err)
		}
		s.metrics.IncrementCacheLookup("miss")
	}

	inv, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeNotFound, "investigation not found")
		}
		return nil, "", fmt.Errorf("get investigation: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, inv); err != nil {
			s.logger.WarnContext(ctx, "snapshot cache write failed", "investigation_id", id, "error", err)
		}
	}
	return inv, models.ComputeETag(inv), nil
}

// List returns the owner's investigations, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*models.Investigation, error) {
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner id is required")
	}
	out, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list investigations: %w", err)
	}
	return out, nil
}

// Update applies the patch against the version the caller observed. A stale
// version surfaces as a conflict for the caller to resolve; the service
// never falls back to overwriting.
func (s *Service) Update(ctx context.Context, id string, expectedVersion int64, patch models.Patch) (*models.Investigation, error) {
	if expectedVersion < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "expected version must be at least 1")
	}

	inv, err := s.store.Update(ctx, id, expectedVersion, patch)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			s.metrics.IncrementConflict()
			s.metrics.IncrementUpdate("conflict")
			return nil, conflictToDomain(err)
		case errors.Is(err, sentinel.ErrNotFound):
			s.metrics.IncrementUpdate("not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "investigation not found")
		default:
			s.metrics.IncrementUpdate("error")
			return nil, fmt.Errorf("update investigation: %w", err)
		}
	}

	s.metrics.IncrementUpdate("ok")
	s.invalidate(ctx, id)
	return inv, nil
}

// UpdateWithRetry applies the patch with a bounded read-retry loop: on each
// conflict it re-reads the current version and tries again. Used by agent
// workers whose patches commute (tool ledger upserts, finding appends).
func (s *Service) UpdateWithRetry(ctx context.Context, id string, patch models.Patch) (*models.Investigation, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "investigation not found")
		}
		return nil, fmt.Errorf("read before update: %w", err)
	}
	version := current.Version

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inv, err := s.store.Update(ctx, id, version, patch)
		if err == nil {
			s.metrics.IncrementUpdate("ok")
			s.metrics.ObserveRetries(attempt)
			s.invalidate(ctx, id)
			return inv, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementUpdate("error")
			return nil, fmt.Errorf("update investigation: %w", err)
		}

		s.metrics.IncrementConflict()
		lastErr = err
		if attempt == s.retries {
			break
		}

		fresh, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("re-read after conflict: %w", err)
		}
		version = fresh.Version
	}

	s.metrics.IncrementUpdate("retries_exhausted")
	s.logger.WarnContext(ctx, "update retries exhausted",
		"investigation_id", id,
		"retries", s.retries,
	)
	return nil, conflictToDomain(lastErr)
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "snapshot cache invalidation failed", "investigation_id", id, "error", err)
	}
}

// conflictToDomain maps a store conflict to a coded domain error carrying
// both versions so transports can expose them.
func conflictToDomain(err error) error {
	out := dErrors.Wrap(dErrors.CodeConflict, "investigation was modified concurrently", err)

	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		out = out.
			Add("current_version", conflict.CurrentVersion).
			Add("provided_version", conflict.ProvidedVersion)
	}
	return out
}
