package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/flowrun/pkg/adapters/file"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAML(t *testing.T) {
	g, err := file.Load(filepath.Join("testdata", "review.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "review", g.ID)
	assert.Equal(t, "extract", g.StartNode)
	assert.Equal(t, 10, g.MaxSteps)
	assert.Equal(t, map[string]string{"code": "string"}, g.StateSchema)
	assert.Equal(t, domain.Node{ID: "extract", StepType: "extract_functions"}, g.Nodes["extract"])
	assert.Equal(t, "evaluate_quality", g.Nodes["evaluate"].StepType, "tool is an alias of step_type")

	require.Len(t, g.Edges, 2)
	assert.Equal(t, domain.Edge{From: "extract", To: "evaluate"}, g.Edges[0])
	assert.Equal(t, "evaluate", g.Edges[1].From)
	assert.True(t, g.Edges[1].ConditionValue.Equal(domain.Bool(false)))
}

func TestLoad_JSON(t *testing.T) {
	g, err := file.Load(filepath.Join("testdata", "review.json"))
	require.NoError(t, err)

	assert.Equal(t, "review_json", g.ID)
	assert.Equal(t, domain.DefaultMaxSteps, g.MaxSteps)
	assert.True(t, g.Edges[1].ConditionValue.Equal(domain.Number(0.5)))
}

func TestLoad_HCL(t *testing.T) {
	g, err := file.Load(filepath.Join("testdata", "review.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "review_hcl", g.ID)
	assert.Equal(t, 5, g.MaxSteps)
	assert.Equal(t, map[string]string{"code": "string"}, g.StateSchema)
	assert.Len(t, g.Nodes, 2)

	want := domain.List(domain.String("a"), domain.Map(map[string]domain.Value{"b": domain.Int(1)}))
	assert.True(t, g.Edges[1].ConditionValue.Equal(want), "got %s", g.Edges[1].ConditionValue)
	assert.False(t, g.Edges[0].Conditional())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "absent.yaml")},
		{"unsupported extension", write("g.toml", "id = 'x'")},
		{"malformed yaml", write("bad.yaml", "id: [")},
		{"unknown field", write("typo.yaml", "id: g\nstart: a\n")},
		{"malformed json", write("bad.json", "{")},
		{"hcl missing id", write("noid.hcl", `start_node = "a"`)},
		{"hcl duplicate node", write("dup.hcl", "id = \"g\"\nnode \"a\" {}\nnode \"a\" {}\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := file.Load(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	graphs, err := file.LoadDir("testdata")
	require.NoError(t, err)

	ids := make([]string, len(graphs))
	for i, g := range graphs {
		ids[i] = g.ID
	}
	// Sorted by file name: review.hcl, review.json, review.yaml
	assert.Equal(t, []string{"review_hcl", "review_json", "review"}, ids)
}

func TestSupported(t *testing.T) {
	assert.True(t, file.Supported("a.YML"))
	assert.True(t, file.Supported("dir/a.hcl"))
	assert.False(t, file.Supported("README.txt"))
}
