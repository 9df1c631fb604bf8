package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGraphStoreContract runs a suite of tests to verify that a GraphStore implementation
// adheres to the defined interface contract.
func RunGraphStoreContract(t *testing.T, store GraphStore) {
	ctx := context.Background()
	graphID := "contract-graph-" + time.Now().Format("20060102150405.000000")

	newGraph := func(id, stepType string) *domain.Graph {
		return &domain.Graph{
			ID:        id,
			StartNode: "a",
			Nodes: map[string]domain.Node{
				"a": {ID: "a", StepType: stepType},
			},
			Edges: []domain.Edge{
				{From: "a", To: "a", ConditionKey: "again", ConditionValue: domain.Bool(true)},
				{From: "a", To: "nowhere"},
			},
			MaxSteps: 7,
		}
	}

	t.Run("Save and Get", func(t *testing.T) {
		g := newGraph(graphID, "noop")
		require.NoError(t, store.Save(ctx, g), "Save should not return error")

		loaded, err := store.Get(ctx, graphID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, graphID, loaded.ID)
		assert.Equal(t, "a", loaded.StartNode)
		assert.Equal(t, 7, loaded.MaxSteps)
		assert.Equal(t, "noop", loaded.Nodes["a"].StepType)
		require.Len(t, loaded.Edges, 2)
		assert.Equal(t, "again", loaded.Edges[0].ConditionKey)
		assert.True(t, loaded.Edges[0].ConditionValue.Equal(domain.Bool(true)))
		assert.False(t, loaded.Edges[1].Conditional())
		assert.Equal(t, "nowhere", loaded.Edges[1].To, "dangling edges are stored as-is")
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newGraph(graphID, "first")))
		require.NoError(t, store.Save(ctx, newGraph(graphID, "second")))

		loaded, err := store.Get(ctx, graphID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Nodes["a"].StepType)
	})

	t.Run("Stored Copy Is Isolated", func(t *testing.T) {
		g := newGraph(graphID, "noop")
		require.NoError(t, store.Save(ctx, g))
		g.Nodes["a"] = domain.Node{ID: "a", StepType: "mutated"}

		loaded, err := store.Get(ctx, graphID)
		require.NoError(t, err)
		assert.Equal(t, "noop", loaded.Nodes["a"].StepType)

		loaded.StartNode = "mutated"
		again, err := store.Get(ctx, graphID)
		require.NoError(t, err)
		assert.Equal(t, "a", again.StartNode)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+graphID)
		assert.ErrorIs(t, err, domain.ErrGraphNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id2 := graphID + "-2"
		require.NoError(t, store.Save(ctx, newGraph(id2, "noop")))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, graphID)
		assert.Contains(t, ids, id2)
	})
}

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405.000000")

	newResult := func(id string) *domain.RunResult {
		return &domain.RunResult{
			RunID:   id,
			GraphID: "g",
			FinalState: domain.State{
				"foo":   domain.String("bar"),
				"count": domain.Int(42),
				"done":  domain.Bool(true),
			},
			Log: []domain.LogEntry{
				{Node: "a", State: domain.State{"foo": domain.String("bar")}},
				{Node: "b", State: domain.State{"foo": domain.String("bar"), "count": domain.Int(42), "done": domain.Bool(true)}},
			},
			Steps:        2,
			TerminatedBy: domain.TerminatedNatural,
		}
	}

	t.Run("Save and Get", func(t *testing.T) {
		want := newResult(runID)
		require.NoError(t, store.Save(ctx, want), "Save should not return error")

		got, err := store.Get(ctx, runID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, runID, got.RunID)
		assert.Equal(t, "g", got.GraphID)
		assert.Equal(t, 2, got.Steps)
		assert.Equal(t, domain.TerminatedNatural, got.TerminatedBy)
		assert.True(t, want.FinalState.Equal(got.FinalState), "final state should round-trip structurally")
		require.Len(t, got.Log, 2)
		assert.Equal(t, []string{"a", "b"}, got.Nodes())
		assert.True(t, want.Log[1].State.Equal(got.Log[1].State))
	})

	t.Run("Idempotent Get", func(t *testing.T) {
		first, err := store.Get(ctx, runID)
		require.NoError(t, err)
		second, err := store.Get(ctx, runID)
		require.NoError(t, err)
		assert.True(t, first.FinalState.Equal(second.FinalState))

		first.FinalState["foo"] = domain.String("mutated")
		third, err := store.Get(ctx, runID)
		require.NoError(t, err)
		assert.True(t, third.FinalState["foo"].Equal(domain.String("bar")), "returned results must be copies")
	})

	t.Run("Append Only", func(t *testing.T) {
		err := store.Save(ctx, newResult(runID))
		assert.ErrorIs(t, err, domain.ErrRunExists)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, newResult(id2)))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, runID)
		assert.Contains(t, ids, id2)
	})
}
