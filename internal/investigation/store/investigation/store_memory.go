package investigation

import (
	"context"
	"sort"
	"sync"
	"time"

	"fraudlens/internal/investigation/models"
	"fraudlens/pkg/platform/sentinel"
)

// InMemoryStore keeps investigations in a mutex-guarded map. Single-process
// only; use PostgresStore when updates come from more than one instance.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.Investigation
	now     func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*models.Investigation),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Create(ctx context.Context, inv *models.Investigation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[inv.ID]; ok {
		return &ConflictError{InvestigationID: inv.ID, CurrentVersion: s.records[inv.ID].Version}
	}
	s.records[inv.ID] = inv.Clone()
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*models.Investigation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return inv.Clone(), nil
}

func (s *InMemoryStore) Update(ctx context.Context, id string, expectedVersion int64, patch models.Patch) (*models.Investigation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if inv.Version != expectedVersion {
		return nil, &ConflictError{
			InvestigationID: id,
			CurrentVersion:  inv.Version,
			ProvidedVersion: expectedVersion,
		}
	}

	next := inv.Clone()
	if err := next.Apply(patch, s.now()); err != nil {
		return nil, err
	}
	next.Version++

	s.records[id] = next
	return next.Clone(), nil
}

func (s *InMemoryStore) List(ctx context.Context, ownerID string) ([]*models.Investigation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Investigation, 0)
	for _, inv := range s.records {
		if inv.OwnerID == ownerID {
			out = append(out, inv.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
