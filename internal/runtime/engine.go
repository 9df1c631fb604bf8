package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/ports"
	"github.com/aretw0/flowrun/pkg/registry"
	"github.com/aretw0/flowrun/pkg/schema"
	"github.com/google/uuid"
)

// Engine executes registered graphs step by step against a shared state.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	graphs   ports.GraphStore
	runs     ports.RunStore
	steps    *registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	newRunID func() string
	now      func() time.Time
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator replaces the run id generator.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// NewRunID returns a random 32-character lowercase hex id.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewEngine creates a new engine with dependencies.
func NewEngine(graphs ports.GraphStore, runs ports.RunStore, steps *registry.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		graphs:   graphs,
		runs:     runs,
		steps:    steps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newRunID: NewRunID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run loads graphID and executes it against a copy of initial.
// The result is stored in the run store before being returned.
// On any error no result is produced and nothing is stored.
func (e *Engine) Run(ctx context.Context, graphID string, initial domain.State) (*domain.RunResult, error) {
	graph, err := e.graphs.Get(ctx, graphID)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, graph, initial)
}

// Execute runs an already loaded graph. The graph does not need to be registered.
func (e *Engine) Execute(ctx context.Context, graph *domain.Graph, initial domain.State) (*domain.RunResult, error) {
	if graph.MaxSteps <= 0 {
		return nil, fmt.Errorf("%w: graph %q: max_steps must be positive, got %d", domain.ErrInvalidGraph, graph.ID, graph.MaxSteps)
	}
	if len(graph.StateSchema) > 0 {
		s, err := schema.ParseTypeMap(graph.StateSchema)
		if err != nil {
			return nil, fmt.Errorf("graph %q: invalid state schema: %w", graph.ID, err)
		}
		if err := schema.Validate(s, initial); err != nil {
			return nil, err
		}
	}

	runID := e.newRunID()
	logger := e.logger.With("graph_id", graph.ID, "run_id", runID)
	e.emitRunStart(ctx, graph.ID, runID)

	result, err := e.loop(ctx, graph, runID, initial.Clone(), logger)
	if err != nil {
		logger.Error("run failed", "err", err)
		e.emitRunComplete(ctx, graph.ID, runID, nil, err)
		return nil, err
	}

	if err := e.runs.Save(ctx, result); err != nil {
		err = fmt.Errorf("failed to store run %s: %w", runID, err)
		e.emitRunComplete(ctx, graph.ID, runID, nil, err)
		return nil, err
	}

	logger.Info("run completed", "step", result.Steps, "terminated_by", string(result.TerminatedBy))
	e.emitRunComplete(ctx, graph.ID, runID, result, nil)
	return result, nil
}

// GetRun returns a stored run result.
func (e *Engine) GetRun(ctx context.Context, runID string) (*domain.RunResult, error) {
	return e.runs.Get(ctx, runID)
}

func (e *Engine) loop(ctx context.Context, graph *domain.Graph, runID string, state domain.State, logger *slog.Logger) (*domain.RunResult, error) {
	budget := graph.MaxSteps
	current := graph.StartNode
	steps := 0
	var log []domain.LogEntry

	for current != "" && steps < budget {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s interrupted before step %d: %w", runID, steps+1, err)
		}
		steps++

		// 1. Resolve the node, then its handler
		node, ok := graph.Nodes[current]
		if !ok {
			return nil, &domain.NodeNotFoundError{GraphID: graph.ID, NodeID: current}
		}
		handler, err := e.steps.Resolve(node.StepType)
		if err != nil {
			var notFound *domain.StepTypeNotFoundError
			if errors.As(err, &notFound) {
				notFound.GraphID, notFound.NodeID = graph.ID, current
			}
			return nil, err
		}

		// 2. Dispatch
		e.emitNodeEnter(ctx, graph.ID, runID, current, node.StepType, steps)
		logger.Debug("executing step", "node_id", current, "step_type", node.StepType, "step", steps)

		next, err := handler(ctx, state)
		if err != nil {
			stepErr := &domain.StepError{GraphID: graph.ID, NodeID: current, StepType: node.StepType, Step: steps, Err: err}
			e.emitNodeLeave(ctx, graph.ID, runID, current, node.StepType, steps, stepErr)
			return nil, stepErr
		}
		if next == nil {
			next = domain.State{}
		}
		state = next
		e.emitNodeLeave(ctx, graph.ID, runID, current, node.StepType, steps, nil)

		// 3. Log a snapshot isolated from later mutations
		log = append(log, domain.LogEntry{Node: current, State: state.Clone()})

		// 4. First matching edge wins
		to, ok := graph.Next(current, state)
		if !ok {
			current = ""
			break
		}
		current = to
	}

	terminated := domain.TerminatedNatural
	if current != "" {
		terminated = domain.TerminatedMaxSteps
		logger.Warn("step budget exhausted", "step", steps, "node_id", current)
	}

	return &domain.RunResult{
		RunID:        runID,
		GraphID:      graph.ID,
		FinalState:   state.Clone(),
		Log:          log,
		Steps:        steps,
		TerminatedBy: terminated,
	}, nil
}
