package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/flowrun"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/workflows/codereview"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng := flowrun.New()
	require.NoError(t, codereview.Install(context.Background(), eng))
	return NewServer(eng)
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestListAndGetGraph(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleListGraphs(ctx, call("list_graphs", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `["code_review"]`, text(t, res))

	res, err = s.handleGetGraph(ctx, call("get_graph", map[string]any{"graph_id": "code_review"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	var def map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &def))
	assert.Equal(t, "extract_functions", def["start_node"])
	assert.Equal(t, float64(codereview.MaxSteps), def["max_steps"])

	res, err = s.handleGetGraph(ctx, call("get_graph", map[string]any{"graph_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetGraph(ctx, call("get_graph", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError, "graph_id is required")
}

func TestRunGraphAndGetRun(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	for name, initial := range map[string]any{
		"object": map[string]any{"code": "def f():\n    return 1\n"},
		"string": `{"code": "def f():\n    return 1\n"}`,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := s.handleRunGraph(ctx, call("run_graph", map[string]any{
				"graph_id":      "code_review",
				"initial_state": initial,
			}))
			require.NoError(t, err)
			require.False(t, res.IsError, text(t, res))

			var run domain.RunResult
			require.NoError(t, json.Unmarshal([]byte(text(t, res)), &run))
			assert.Equal(t, domain.TerminatedNatural, run.TerminatedBy)
			assert.Equal(t, 5, run.Steps)

			res, err = s.handleGetRun(ctx, call("get_run", map[string]any{"run_id": run.RunID}))
			require.NoError(t, err)
			var stored domain.RunResult
			require.NoError(t, json.Unmarshal([]byte(text(t, res)), &stored))
			assert.True(t, run.FinalState.Equal(stored.FinalState))
		})
	}
}

func TestRunGraph_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleRunGraph(ctx, call("run_graph", map[string]any{"graph_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleRunGraph(ctx, call("run_graph", map[string]any{"graph_id": "code_review", "initial_state": "[1, 2]"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetRun(ctx, call("get_run", map[string]any{"run_id": "unknown"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestParseState(t *testing.T) {
	s, err := parseState(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = parseState("  ")
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = parseState("null")
	require.NoError(t, err)
	assert.NotNil(t, s)

	s, err = parseState(map[string]any{"n": 1.0})
	require.NoError(t, err)
	assert.True(t, s["n"].Equal(domain.Int(1)))

	_, err = parseState(42)
	assert.Error(t, err)
}
