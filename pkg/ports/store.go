package ports

import (
	"context"

	"github.com/aretw0/flowrun/pkg/domain"
)

// GraphStore defines the interface for keeping graph definitions.
// Stores do not validate edge endpoints.
type GraphStore interface {
	// Save inserts or overwrites the graph under graph.ID.
	Save(ctx context.Context, graph *domain.Graph) error

	// Get retrieves a graph by id.
	// Returns an error matching domain.ErrGraphNotFound if the id is unknown.
	Get(ctx context.Context, id string) (*domain.Graph, error)

	// List returns the ids of all stored graphs.
	List(ctx context.Context) ([]string, error)
}

// RunStore defines the interface for persisting run results.
// Results are immutable: a second Save with the same run id fails with domain.ErrRunExists.
type RunStore interface {
	// Save records a finished run.
	Save(ctx context.Context, result *domain.RunResult) error

	// Get retrieves a run by id.
	// Returns an error matching domain.ErrRunNotFound if the id is unknown.
	Get(ctx context.Context, runID string) (*domain.RunResult, error)

	// List returns the ids of all stored runs.
	List(ctx context.Context) ([]string, error)
}
