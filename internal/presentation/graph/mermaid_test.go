package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/flowrun/internal/presentation/graph"
	"github.com/aretw0/flowrun/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		graph    *domain.Graph
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Start Node Shape",
			graph: &domain.Graph{
				StartNode: "begin",
				Nodes: map[string]domain.Node{
					"begin": {ID: "begin", StepType: "begin"},
					"next":  {ID: "next", StepType: "work"},
				},
			},
			contains: []string{
				`begin(("begin"))`,
				`next["next <br/> work"]`,
			},
		},
		{
			name: "ID Sanitization",
			graph: &domain.Graph{
				Nodes: map[string]domain.Node{
					"path/to/file.md": {ID: "path/to/file.md"},
					"hyphen-ated":     {ID: "hyphen-ated"},
				},
			},
			contains: []string{
				`path_to_file_md["path/to/file.md"]`,
				`hyphen_ated["hyphen-ated"]`,
			},
		},
		{
			name: "Conditional Edge Escaping",
			graph: &domain.Graph{
				StartNode: "A",
				Nodes: map[string]domain.Node{
					"A": {ID: "A"},
					"B": {ID: "B"},
				},
				Edges: []domain.Edge{
					{From: "A", To: "B", ConditionKey: "input", ConditionValue: domain.String("yes")},
					{From: "B", To: "A"},
				},
			},
			contains: []string{
				`A -- "input == 'yes'" --> B`,
				`B --> A`,
			},
			excludes: []string{"classDef missing"},
		},
		{
			name: "Missing Endpoints",
			graph: &domain.Graph{
				StartNode: "ghost_start",
				Nodes:     map[string]domain.Node{"A": {ID: "A"}},
				Edges:     []domain.Edge{{From: "A", To: "nowhere"}},
			},
			contains: []string{
				"classDef missing",
				"class ghost_start missing;",
				"class nowhere missing;",
			},
		},
		{
			name: "Run Overlay",
			graph: &domain.Graph{
				StartNode: "A",
				Nodes:     map[string]domain.Node{"A": {ID: "A"}, "B": {ID: "B"}},
				Edges:     []domain.Edge{{From: "A", To: "B"}},
			},
			overlay: graph.OverlayFromRun(&domain.RunResult{
				Log: []domain.LogEntry{{Node: "A"}, {Node: "B"}, {Node: "B"}},
			}),
			contains: []string{
				"class A visited;",
				"class B visited;",
				"class B current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.graph, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("GenerateMermaid() should start with the flowchart header, got %q", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
			if n := strings.Count(got, "class B visited;"); n > 1 {
				t.Errorf("visited nodes should be deduplicated, found %d", n)
			}
		})
	}
}
