// Package investigation persists investigation records with optimistic
// concurrency: every update names the version it observed, and a mismatch is
// rejected with a ConflictError rather than overwritten.
package investigation

import (
	"context"
	"fmt"

	"fraudlens/internal/investigation/models"
	"fraudlens/pkg/platform/sentinel"
)

// Store is the persistence port for investigation records.
type Store interface {
	// Create persists a new record. The id must be unused.
	Create(ctx context.Context, inv *models.Investigation) error

	// Get returns a deep copy of the record, or sentinel.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Investigation, error)

	// Update applies the patch if and only if the stored version equals
	// expectedVersion, bumping the version by one. A mismatch returns a
	// ConflictError carrying both versions; the caller re-reads and retries.
	Update(ctx context.Context, id string, expectedVersion int64, patch models.Patch) (*models.Investigation, error)

	// List returns the owner's investigations, newest first.
	List(ctx context.Context, ownerID string) ([]*models.Investigation, error)
}

// ConflictError reports a version mismatch on update. It unwraps to
// sentinel.ErrConflict so callers can branch without knowing the store.
type ConflictError struct {
	InvestigationID string
	CurrentVersion  int64
	ProvidedVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("investigation %s: version conflict: stored %d, provided %d",
		e.InvestigationID, e.CurrentVersion, e.ProvidedVersion)
}

func (e *ConflictError) Is(target error) bool {
	return target == sentinel.ErrConflict
}
