package ports

import (
	"context"

	"github.com/aretw0/flowrun/pkg/domain"
)

// Engine defines what transports (HTTP, MCP, CLI) need from the engine facade.
type Engine interface {
	// RegisterGraph stores a graph definition, overwriting any graph with the same id.
	RegisterGraph(ctx context.Context, graph *domain.Graph) error

	// Graph returns a registered graph definition.
	Graph(ctx context.Context, id string) (*domain.Graph, error)

	// Graphs returns the ids of all registered graphs.
	Graphs(ctx context.Context) ([]string, error)

	// Run executes a graph against an initial state and stores the result.
	Run(ctx context.Context, graphID string, initial domain.State) (*domain.RunResult, error)

	// GetRun returns a stored run result.
	GetRun(ctx context.Context, runID string) (*domain.RunResult, error)
}
