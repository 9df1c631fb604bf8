package runtime_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/aretw0/flowrun/internal/runtime"
	"github.com/aretw0/flowrun/pkg/adapters/memory"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine *runtime.Engine
	graphs *memory.GraphStore
	runs   *memory.RunStore
	steps  *registry.Registry
}

func newFixture(t *testing.T, opts ...runtime.EngineOption) *fixture {
	t.Helper()
	f := &fixture{
		graphs: memory.NewGraphStore(),
		runs:   memory.NewRunStore(),
		steps:  registry.NewRegistry(),
	}
	f.engine = runtime.NewEngine(f.graphs, f.runs, f.steps, opts...)
	return f
}

func (f *fixture) register(t *testing.T, g *domain.Graph) {
	t.Helper()
	require.NoError(t, f.graphs.Save(context.Background(), g))
}

// counter increments "count" and appends its node label to "trace".
func counter(label string) registry.Handler {
	return registry.Pure(func(s domain.State) domain.State {
		n, _ := s.Number("count")
		s["count"] = domain.Number(n + 1)
		trace, _ := s["trace"].AsList()
		s["trace"] = domain.List(append(trace, domain.String(label))...)
		return s
	})
}

func TestEngine_SingleNodeNoEdges(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("count", counter("only"))
	f.register(t, &domain.Graph{
		ID:        "single",
		StartNode: "only",
		Nodes:     map[string]domain.Node{"only": {ID: "only", StepType: "count"}},
		MaxSteps:  10,
	})

	res, err := f.engine.Run(context.Background(), "single", domain.State{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Steps)
	assert.Len(t, res.Log, 1)
	assert.Equal(t, "only", res.Log[0].Node)
	assert.Equal(t, domain.TerminatedNatural, res.TerminatedBy)
	assert.True(t, res.FinalState["count"].Equal(domain.Int(1)))
}

func TestEngine_CycleHitsStepBudget(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("work", registry.Pure(func(s domain.State) domain.State {
		s["done"] = domain.Bool(false)
		return s
	}))
	f.steps.Register("count", counter("check"))
	f.register(t, &domain.Graph{
		ID:        "cycle",
		StartNode: "work",
		Nodes: map[string]domain.Node{
			"work":  {ID: "work", StepType: "work"},
			"check": {ID: "check", StepType: "count"},
		},
		Edges: []domain.Edge{
			{From: "work", To: "check"},
			{From: "check", To: "work", ConditionKey: "done", ConditionValue: domain.Bool(false)},
		},
		MaxSteps: 5,
	})

	res, err := f.engine.Run(context.Background(), "cycle", nil)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Steps)
	assert.Equal(t, []string{"work", "check", "work", "check", "work"}, res.Nodes())
	assert.Equal(t, domain.TerminatedMaxSteps, res.TerminatedBy)
}

func TestEngine_UnregisteredStepType(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("count", counter("a"))
	f.register(t, &domain.Graph{
		ID:        "broken",
		StartNode: "a",
		Nodes: map[string]domain.Node{
			"a": {ID: "a", StepType: "count"},
			"b": {ID: "b", StepType: "ghost"},
		},
		Edges:    []domain.Edge{{From: "a", To: "b"}},
		MaxSteps: 5,
	})

	var entered []string
	f.engine = runtime.NewEngine(f.graphs, f.runs, f.steps, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
	}))

	res, err := f.engine.Run(context.Background(), "broken", domain.State{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrStepTypeNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var typed *domain.StepTypeNotFoundError
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, "b", typed.NodeID)
	assert.Equal(t, "ghost", typed.StepType)
	assert.Equal(t, []string{"a"}, entered, "the unresolved node is never dispatched")

	ids, _ := f.runs.List(context.Background())
	assert.Empty(t, ids, "failed runs are not stored")
}

func TestEngine_DanglingEdgeFailsLazily(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("count", counter("a"))
	f.register(t, &domain.Graph{
		ID:        "dangling",
		MaxSteps:  10,
		StartNode: "a",
		Nodes:     map[string]domain.Node{"a": {ID: "a", StepType: "count"}},
		Edges: []domain.Edge{
			{From: "a", To: "missing", ConditionKey: "go", ConditionValue: domain.Bool(true)},
		},
	})

	// Never reaches the dangling edge
	res, err := f.engine.Run(context.Background(), "dangling", domain.State{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Steps)

	_, err = f.engine.Run(context.Background(), "dangling", domain.State{"go": domain.Bool(true)})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	var typed *domain.NodeNotFoundError
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, "missing", typed.NodeID)
}

func TestEngine_UnknownGraph(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Run(context.Background(), "nope", domain.State{})
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_HandlerErrorAbortsRun(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	f.steps.Register("count", counter("a"))
	f.steps.Register("fail", func(ctx context.Context, s domain.State) (domain.State, error) {
		return nil, boom
	})
	f.register(t, &domain.Graph{
		ID:        "failing",
		MaxSteps:  10,
		StartNode: "a",
		Nodes: map[string]domain.Node{
			"a": {ID: "a", StepType: "count"},
			"b": {ID: "b", StepType: "fail"},
		},
		Edges: []domain.Edge{{From: "a", To: "b"}},
	})

	res, err := f.engine.Run(context.Background(), "failing", domain.State{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 2, stepErr.Step)
	assert.Equal(t, "b", stepErr.NodeID)

	ids, _ := f.runs.List(context.Background())
	assert.Empty(t, ids)
}

func TestEngine_NilStateBecomesEmpty(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("wipe", registry.Pure(func(domain.State) domain.State { return nil }))
	f.register(t, &domain.Graph{
		ID:        "wipe",
		MaxSteps:  10,
		StartNode: "a",
		Nodes:     map[string]domain.Node{"a": {ID: "a", StepType: "wipe"}},
	})

	res, err := f.engine.Run(context.Background(), "wipe", domain.State{"x": domain.Int(1)})
	require.NoError(t, err)
	assert.NotNil(t, res.FinalState)
	assert.Empty(t, res.FinalState)
}

func TestEngine_SnapshotIsolation(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("count", counter("n"))
	f.register(t, &domain.Graph{
		ID:        "loop",
		StartNode: "n",
		Nodes:     map[string]domain.Node{"n": {ID: "n", StepType: "count"}},
		Edges:     []domain.Edge{{From: "n", To: "n"}},
		MaxSteps:  3,
	})

	initial := domain.State{"count": domain.Int(0)}
	res, err := f.engine.Run(context.Background(), "loop", initial)
	require.NoError(t, err)

	require.Len(t, res.Log, 3)
	for i, entry := range res.Log {
		assert.True(t, entry.State["count"].Equal(domain.Int(i+1)), "snapshot %d", i)
		trace, _ := entry.State["trace"].AsList()
		assert.Len(t, trace, i+1)
	}
	assert.True(t, initial["count"].Equal(domain.Int(0)), "caller's initial state is untouched")
}

func TestEngine_DeterministicEdgeChoice(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("route", registry.Pure(func(s domain.State) domain.State { return s }))
	f.steps.Register("count", counter("x"))
	f.register(t, &domain.Graph{
		ID:        "router",
		MaxSteps:  10,
		StartNode: "r",
		Nodes: map[string]domain.Node{
			"r": {ID: "r", StepType: "route"},
			"b": {ID: "b", StepType: "count"},
			"c": {ID: "c", StepType: "count"},
		},
		Edges: []domain.Edge{
			{From: "r", To: "c", ConditionKey: "k", ConditionValue: domain.String("c")},
			{From: "r", To: "b"},
			{From: "r", To: "c"},
		},
	})

	for i := 0; i < 5; i++ {
		res, err := f.engine.Run(context.Background(), "router", domain.State{"k": domain.String("z")})
		require.NoError(t, err)
		assert.Equal(t, []string{"r", "b"}, res.Nodes())

		res, err = f.engine.Run(context.Background(), "router", domain.State{"k": domain.String("c")})
		require.NoError(t, err)
		assert.Equal(t, []string{"r", "c"}, res.Nodes())
	}
}

func TestEngine_DistinctRunIDsAndLookup(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("count", counter("a"))
	f.register(t, &domain.Graph{
		ID:        "g",
		MaxSteps:  10,
		StartNode: "a",
		Nodes:     map[string]domain.Node{"a": {ID: "a", StepType: "count"}},
	})

	hex32 := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		res, err := f.engine.Run(context.Background(), "g", domain.State{})
		require.NoError(t, err)
		assert.Regexp(t, hex32, res.RunID)
		assert.False(t, seen[res.RunID], "duplicate run id %s", res.RunID)
		seen[res.RunID] = true

		first, err := f.engine.GetRun(context.Background(), res.RunID)
		require.NoError(t, err)
		second, err := f.engine.GetRun(context.Background(), res.RunID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.True(t, res.FinalState.Equal(first.FinalState))
	}

	_, err := f.engine.GetRun(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var events []string
	hooks := domain.LifecycleHooks{
		OnRunStart:  func(_ context.Context, e *domain.RunEvent) { events = append(events, "start") },
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { events = append(events, "enter:"+e.NodeID) },
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) { events = append(events, "leave:"+e.NodeID) },
		OnRunComplete: func(_ context.Context, e *domain.RunEvent) {
			events = append(events, "complete:"+string(e.TerminatedBy))
		},
	}
	f := newFixture(t, runtime.WithLifecycleHooks(hooks), runtime.WithIDGenerator(func() string { return "fixed" }))
	f.steps.Register("count", counter("x"))
	f.register(t, &domain.Graph{
		ID:        "g",
		MaxSteps:  10,
		StartNode: "a",
		Nodes: map[string]domain.Node{
			"a": {ID: "a", StepType: "count"},
			"b": {ID: "b", StepType: "count"},
		},
		Edges: []domain.Edge{{From: "a", To: "b"}},
	})

	res, err := f.engine.Run(context.Background(), "g", domain.State{})
	require.NoError(t, err)
	assert.Equal(t, "fixed", res.RunID)
	assert.Equal(t, []string{"start", "enter:a", "leave:a", "enter:b", "leave:b", "complete:natural"}, events)
}

func TestEngine_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t)
	f.steps.Register("stop", registry.Pure(func(s domain.State) domain.State {
		cancel()
		return s
	}))
	f.register(t, &domain.Graph{
		ID:        "g",
		StartNode: "a",
		Nodes:     map[string]domain.Node{"a": {ID: "a", StepType: "stop"}},
		Edges:     []domain.Edge{{From: "a", To: "a"}},
		MaxSteps:  10,
	})

	res, err := f.engine.Run(ctx, "g", domain.State{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_StateSchema(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("count", counter("a"))
	f.register(t, &domain.Graph{
		ID:          "typed",
		MaxSteps:    10,
		StartNode:   "a",
		Nodes:       map[string]domain.Node{"a": {ID: "a", StepType: "count"}},
		StateSchema: map[string]string{"code": "string"},
	})

	_, err := f.engine.Run(context.Background(), "typed", domain.State{"code": domain.Int(1)})
	assert.ErrorContains(t, err, `field "code"`)

	res, err := f.engine.Run(context.Background(), "typed", domain.State{"code": domain.String("x")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Steps)
}

func TestEngine_Execute_UnregisteredGraph(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("count", counter("a"))
	g := &domain.Graph{
		ID:        "adhoc",
		MaxSteps:  10,
		StartNode: "a",
		Nodes:     map[string]domain.Node{"a": {ID: "a", StepType: "count"}},
	}

	res, err := f.engine.Execute(context.Background(), g, nil)
	require.NoError(t, err)
	stored, err := f.engine.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "adhoc", stored.GraphID)
}

func TestEngine_NodeAddressedByKey(t *testing.T) {
	var entered []string
	f := newFixture(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
	}))
	f.steps.Register("count", counter("x"))
	f.register(t, &domain.Graph{
		ID:        "keyed",
		MaxSteps:  10,
		StartNode: "a",
		Nodes: map[string]domain.Node{
			"a": {ID: "first", StepType: "count"},
			"b": {ID: "b", StepType: "count"},
		},
		Edges: []domain.Edge{{From: "a", To: "b"}},
	})

	res, err := f.engine.Run(context.Background(), "keyed", domain.State{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Nodes())
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, domain.TerminatedNatural, res.TerminatedBy)
	assert.Equal(t, []string{"a", "b"}, entered)
}

func TestEngine_StepErrorNamesNodeKey(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("fail", func(context.Context, domain.State) (domain.State, error) { return nil, errors.New("boom") })
	f.register(t, &domain.Graph{
		ID:        "keyed",
		MaxSteps:  10,
		StartNode: "a",
		Nodes:     map[string]domain.Node{"a": {ID: "first", StepType: "fail"}},
	})

	_, err := f.engine.Run(context.Background(), "keyed", domain.State{})
	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "a", stepErr.NodeID)
}

func TestEngine_NonPositiveMaxSteps(t *testing.T) {
	f := newFixture(t)
	f.steps.Register("count", counter("a"))
	for _, n := range []int{0, -2} {
		g := &domain.Graph{
			ID:        "loop",
			MaxSteps:  n,
			StartNode: "a",
			Nodes:     map[string]domain.Node{"a": {ID: "a", StepType: "count"}},
			Edges:     []domain.Edge{{From: "a", To: "a"}},
		}
		res, err := f.engine.Execute(context.Background(), g, nil)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, domain.ErrInvalidGraph, "max_steps=%d", n)
	}
	ids, _ := f.runs.List(context.Background())
	assert.Empty(t, ids)
}
