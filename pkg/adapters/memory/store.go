package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/flowrun/pkg/domain"
)

// RunStore implements ports.RunStore in memory.
// Results are retained for the lifetime of the process. Safe for concurrent use.
type RunStore struct {
	data map[string]*domain.RunResult
	mu   sync.RWMutex
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunResult),
	}
}

// Save records the result. Saving an existing run id fails with domain.ErrRunExists.
func (s *RunStore) Save(ctx context.Context, result *domain.RunResult) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := result.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[copied.RunID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrRunExists, copied.RunID)
	}
	s.data[copied.RunID] = copied
	return nil
}

// Get retrieves a result from memory.
func (s *RunStore) Get(ctx context.Context, runID string) (*domain.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.data[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}

	// Copy on read so callers can't mutate the stored result through the pointer
	return result.Clone(), nil
}

// List returns the stored run ids, sorted.
func (s *RunStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
