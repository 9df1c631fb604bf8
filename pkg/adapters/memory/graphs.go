package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/flowrun/pkg/domain"
)

// GraphStore implements ports.GraphStore using an in-memory map.
// Safe for concurrent use.
type GraphStore struct {
	graphs map[string]*domain.Graph
	mu     sync.RWMutex
}

// NewGraphStore creates an empty graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		graphs: make(map[string]*domain.Graph),
	}
}

// NewFromGraphs creates a graph store preloaded with the given graphs.
// This improves DX for tests.
func NewFromGraphs(graphs ...*domain.Graph) (*GraphStore, error) {
	s := NewGraphStore()
	for _, g := range graphs {
		if g == nil || g.ID == "" {
			return nil, fmt.Errorf("graph missing ID")
		}
		s.graphs[g.ID] = g.Clone()
	}
	return s, nil
}

// Save inserts or overwrites the graph.
func (s *GraphStore) Save(ctx context.Context, graph *domain.Graph) error {
	if graph == nil || graph.ID == "" {
		return fmt.Errorf("%w: graph missing ID", domain.ErrInvalidGraph)
	}
	copied := graph.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[copied.ID] = copied
	return nil
}

// Get retrieves a graph by id.
func (s *GraphStore) Get(ctx context.Context, id string) (*domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGraphNotFound, id)
	}
	return g.Clone(), nil
}

// List returns the stored graph ids, sorted.
func (s *GraphStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.graphs))
	for id := range s.graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
