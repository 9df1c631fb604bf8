package flowrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/flowrun/internal/runtime"
	"github.com/aretw0/flowrun/internal/validator"
	"github.com/aretw0/flowrun/pkg/adapters/memory"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/ports"
	"github.com/aretw0/flowrun/pkg/registry"
)

// Engine is the high-level entry point for the flowrun library.
// It wraps the internal runtime together with the step registry and the stores.
type Engine struct {
	runtime  *runtime.Engine
	registry *registry.Registry
	graphs   ports.GraphStore
	runs     ports.RunStore
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	strict   bool
	idGen    func() string
}

var _ ports.Engine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry injects a step registry shared with other components.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithGraphStore replaces the default in-memory graph store.
func WithGraphStore(s ports.GraphStore) Option {
	return func(e *Engine) {
		e.graphs = s
	}
}

// WithRunStore replaces the default in-memory run store.
func WithRunStore(s ports.RunStore) Option {
	return func(e *Engine) {
		e.runs = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStrictGraphs makes RegisterGraph reject graphs with a missing start node
// or edges pointing at undefined nodes. By default such graphs are accepted and
// only fail if a run actually reaches the broken reference.
func WithStrictGraphs() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// WithIDGenerator replaces the run id generator. Intended for tests.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.idGen = fn
	}
}

// New initializes a new Engine. Without options it keeps graphs and runs in memory
// and starts with an empty registry.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		eng.registry = registry.NewRegistry()
	}
	if eng.graphs == nil {
		eng.graphs = memory.NewGraphStore()
	}
	if eng.runs == nil {
		eng.runs = memory.NewRunStore()
	}
	// Ensure logger is initialized so the runtime never receives nil
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	eng.runtime = runtime.NewEngine(eng.graphs, eng.runs, eng.registry,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithIDGenerator(eng.idGen),
	)
	return eng
}

// Registry returns the step registry used by the engine.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Register binds a step handler to name, replacing any previous binding.
func (e *Engine) Register(name string, handler registry.Handler) {
	e.registry.Register(name, handler)
}

// RegisterGraph stores a graph definition under its id, overwriting any previous one.
// A graph without an id or with a non-positive MaxSteps is always rejected with
// domain.ErrInvalidGraph; endpoint checks only apply with WithStrictGraphs.
func (e *Engine) RegisterGraph(ctx context.Context, graph *domain.Graph) error {
	if graph == nil || graph.ID == "" {
		return fmt.Errorf("%w: graph missing ID", domain.ErrInvalidGraph)
	}
	if graph.MaxSteps <= 0 {
		return fmt.Errorf("%w: graph %q: max_steps must be positive, got %d", domain.ErrInvalidGraph, graph.ID, graph.MaxSteps)
	}
	report := validator.ValidateGraph(graph, e.registry)
	for _, w := range report.Warnings {
		e.logger.Warn("graph warning", "graph_id", graph.ID, "warning", w)
	}
	if e.strict {
		if err := report.Err(); err != nil {
			return err
		}
	}
	if err := e.graphs.Save(ctx, graph); err != nil {
		return fmt.Errorf("failed to register graph %s: %w", graph.ID, err)
	}
	e.logger.Debug("graph registered", "graph_id", graph.ID, "nodes", len(graph.Nodes), "edges", len(graph.Edges))
	return nil
}

// Graph returns a registered graph definition.
func (e *Engine) Graph(ctx context.Context, id string) (*domain.Graph, error) {
	return e.graphs.Get(ctx, id)
}

// Graphs returns the ids of all registered graphs.
func (e *Engine) Graphs(ctx context.Context) ([]string, error) {
	return e.graphs.List(ctx)
}

// Run executes a registered graph against a copy of initial.
// Runs are all-or-nothing: on error no result is returned or stored.
func (e *Engine) Run(ctx context.Context, graphID string, initial domain.State) (*domain.RunResult, error) {
	return e.runtime.Run(ctx, graphID, initial)
}

// Execute runs a graph without registering it. The result is still stored.
func (e *Engine) Execute(ctx context.Context, graph *domain.Graph, initial domain.State) (*domain.RunResult, error) {
	return e.runtime.Execute(ctx, graph, initial)
}

// GetRun returns a stored run result.
func (e *Engine) GetRun(ctx context.Context, runID string) (*domain.RunResult, error) {
	return e.runtime.GetRun(ctx, runID)
}

// Runs returns the ids of all stored runs.
func (e *Engine) Runs(ctx context.Context) ([]string, error) {
	return e.runs.List(ctx)
}
