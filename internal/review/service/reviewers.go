package service

import (
	"context"
	"log/slog"
	"sync"

	"fraudlens/internal/audit"
	"fraudlens/internal/review/secrets"
	dErrors "fraudlens/pkg/domain-errors"
	"fraudlens/pkg/requestcontext"
)

// Registry holds registered reviewers and their hashed API keys. Keys are
// exchanged for short-lived JWTs at the token endpoint; the plaintext key is
// returned exactly once, at registration.
type Registry struct {
	mu        sync.RWMutex
	reviewers map[string]reviewerRecord
	logger    *slog.Logger
	auditor   audit.Publisher
}

type reviewerRecord struct {
	keyHash string
	role    string
}

// NewRegistry creates an empty reviewer registry.
func NewRegistry(logger *slog.Logger, auditor audit.Publisher) *Registry {
	if auditor == nil {
		auditor = audit.NopPublisher{}
	}
	return &Registry{
		reviewers: make(map[string]reviewerRecord),
		logger:    logger,
		auditor:   auditor,
	}
}

// Register creates a reviewer and returns the generated API key.
func (r *Registry) Register(ctx context.Context, reviewerID, role string) (string, error) {
	if reviewerID == "" {
		return "", dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}

	key, err := secrets.Generate()
	if err != nil {
		return "", err
	}
	hash, err := secrets.Hash(key)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviewers[reviewerID]; ok {
		return "", dErrors.New(dErrors.CodeConflict, "reviewer already registered")
	}
	r.reviewers[reviewerID] = reviewerRecord{keyHash: hash, role: role}

	r.logger.InfoContext(ctx, "reviewer registered", "reviewer_id", reviewerID, "role", role)
	return key, nil
}

// Authenticate verifies the API key and returns the reviewer's role.
func (r *Registry) Authenticate(ctx context.Context, reviewerID, key string) (string, error) {
	r.mu.RLock()
	record, ok := r.reviewers[reviewerID]
	r.mu.RUnlock()

	if !ok || secrets.Verify(key, record.keyHash) != nil {
		_ = r.auditor.Emit(ctx, audit.Event{
			Action:    audit.ActionReviewerAuthFailed,
			ActorID:   reviewerID,
			RequestID: requestcontext.RequestID(ctx),
		})
		// Unknown reviewer and bad key are indistinguishable to the caller.
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid reviewer credentials")
	}
	return record.role, nil
}
