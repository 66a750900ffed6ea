package review

import (
	"context"
	"sort"
	"sync"
	"time"

	"fraudlens/internal/review/models"
	"fraudlens/pkg/platform/sentinel"
)

// InMemoryStore keeps review requests in two mutex-guarded maps, one per
// queue. The single mutex makes the pending-to-completed move atomic.
type InMemoryStore struct {
	mu        sync.RWMutex
	pending   map[string]*models.HumanReviewRequest
	completed map[string]*models.HumanReviewRequest
}

// NewInMemoryStore creates an empty in-memory review store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		pending:   make(map[string]*models.HumanReviewRequest),
		completed: make(map[string]*models.HumanReviewRequest),
	}
}

func (s *InMemoryStore) AddPending(ctx context.Context, req *models.HumanReviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[req.ReviewID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.completed[req.ReviewID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	clone := *req
	s.pending[req.ReviewID] = &clone
	return nil
}

func (s *InMemoryStore) GetPending(ctx context.Context, reviewID string) (*models.HumanReviewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.pending[reviewID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *InMemoryStore) ListPending(ctx context.Context, priority *models.Priority) ([]*models.HumanReviewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.HumanReviewRequest, 0)
	for _, req := range s.pending {
		if priority != nil && req.Priority != *priority {
			continue
		}
		clone := *req
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ReviewID < out[j].ReviewID
	})
	return out, nil
}

func (s *InMemoryStore) Complete(ctx context.Context, reviewID, reviewerID string, completedAt time.Time) (*models.HumanReviewRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.completed[reviewID]; ok {
		return nil, sentinel.ErrAlreadyUsed
	}
	req, ok := s.pending[reviewID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	req.Status = models.StatusCompleted
	req.ReviewerID = reviewerID
	req.CompletedAt = &completedAt
	delete(s.pending, reviewID)
	s.completed[reviewID] = req

	clone := *req
	return &clone, nil
}

func (s *InMemoryStore) GetCompleted(ctx context.Context, reviewID string) (*models.HumanReviewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.completed[reviewID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *req
	return &clone, nil
}
