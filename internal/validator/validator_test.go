package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/flowrun/pkg/domain"
)

type stepSet map[string]bool

func (s stepSet) Has(name string) bool { return s[name] }

func TestValidateGraph(t *testing.T) {
	// Scenario A: Valid Graph
	// start -> a -> b (end)
	valid := &domain.Graph{
		ID:        "valid",
		StartNode: "start",
		MaxSteps:  10,
		Nodes: map[string]domain.Node{
			"start": {ID: "start", StepType: "t"},
			"a":     {ID: "a", StepType: "t"},
			"b":     {ID: "b", StepType: "t"},
		},
		Edges: []domain.Edge{
			{From: "start", To: "a"},
			{From: "a", To: "b"},
		},
	}

	report := ValidateGraph(valid, stepSet{"t": true})
	if err := report.Err(); err != nil {
		t.Errorf("Scenario A (Valid) failed: %v", err)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Scenario A expected no warnings, got %v", report.Warnings)
	}

	// Scenario B: Broken Link
	// start -> ghost
	broken := &domain.Graph{
		ID:        "broken",
		StartNode: "start",
		Nodes:     map[string]domain.Node{"start": {ID: "start", StepType: "t"}},
		Edges:     []domain.Edge{{From: "start", To: "ghost_node"}},
	}

	err := ValidateGraph(broken, nil).Err()
	if err == nil {
		t.Fatal("Scenario B (Broken) should have failed, but got nil")
	}
	if !strings.Contains(err.Error(), "missing target node 'ghost_node'") {
		t.Errorf("Expected missing target error, got: %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidGraph) {
		t.Errorf("Expected ErrInvalidGraph, got: %v", err)
	}
}

func TestValidateGraph_MissingStart(t *testing.T) {
	g := &domain.Graph{
		ID:        "g",
		StartNode: "nowhere",
		Nodes:     map[string]domain.Node{"a": {ID: "a", StepType: "t"}},
	}

	report := ValidateGraph(g, nil)
	if report.OK() {
		t.Fatal("expected missing start node to be an error")
	}
	if !strings.Contains(report.Err().Error(), "start node 'nowhere' not found") {
		t.Errorf("unexpected error: %v", report.Err())
	}
}

func TestValidateGraph_Warnings(t *testing.T) {
	g := &domain.Graph{
		ID:        "g",
		StartNode: "a",
		MaxSteps:  10,
		Nodes: map[string]domain.Node{
			"a":      {ID: "a", StepType: "known"},
			"island": {ID: "island", StepType: "unknown"},
		},
	}

	report := ValidateGraph(g, stepSet{"known": true})
	if !report.OK() {
		t.Fatalf("expected no errors, got %v", report.Errors)
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], "unregistered step type 'unknown'") {
		t.Errorf("unexpected warning: %s", report.Warnings[0])
	}
	if !strings.Contains(report.Warnings[1], "'island' is unreachable") {
		t.Errorf("unexpected warning: %s", report.Warnings[1])
	}
}

func TestValidateGraph_StructuralErrors(t *testing.T) {
	g := &domain.Graph{
		StartNode:   "a",
		MaxSteps:    -1,
		Nodes:       map[string]domain.Node{"a": {ID: "b"}},
		StateSchema: map[string]string{"x": "blob"},
	}

	report := ValidateGraph(g, nil)
	joined := strings.Join(report.Errors, "\n")
	for _, want := range []string{"graph id is empty", "max_steps", "invalid state schema", "declared under key", "no step type"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected error containing %q in:\n%s", want, joined)
		}
	}
}

func TestValidateGraph_ZeroMaxSteps(t *testing.T) {
	g := &domain.Graph{
		ID:        "g",
		StartNode: "a",
		Nodes:     map[string]domain.Node{"a": {ID: "a", StepType: "t"}},
	}

	report := ValidateGraph(g, nil)
	if report.OK() {
		t.Fatal("expected max_steps=0 to be an error")
	}
	if !strings.Contains(report.Err().Error(), "max_steps must be positive, got 0") {
		t.Errorf("unexpected error: %v", report.Err())
	}
}
