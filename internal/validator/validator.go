package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/schema"
)

// StepTypes reports which step types are registered.
type StepTypes interface {
	Has(name string) bool
}

// Report collects the problems found in a graph.
// Errors make a graph unusable; warnings are reported but tolerated.
type Report struct {
	GraphID  string
	Errors   []string
	Warnings []string
}

// OK reports whether no errors were found.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Err returns the report as an *Error, or nil when there are no errors.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{GraphID: r.GraphID, Problems: r.Errors}
}

// Error is returned when eager validation rejects a graph.
type Error struct {
	GraphID  string
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("graph %q: found %d errors:\n- %s", e.GraphID, len(e.Problems), strings.Join(e.Problems, "\n- "))
}

func (e *Error) Unwrap() error { return domain.ErrInvalidGraph }

// ValidateGraph checks for a missing start node, broken links and unreachable nodes.
// When steps is non-nil, node step types missing from it are reported as warnings,
// since handlers may still be registered before the first run.
func ValidateGraph(g *domain.Graph, steps StepTypes) *Report {
	r := &Report{GraphID: g.ID}

	if g.ID == "" {
		r.Errors = append(r.Errors, "graph id is empty")
	}
	if g.MaxSteps <= 0 {
		r.Errors = append(r.Errors, fmt.Sprintf("max_steps must be positive, got %d", g.MaxSteps))
	}
	if len(g.StateSchema) > 0 {
		if _, err := schema.ParseTypeMap(g.StateSchema); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("invalid state schema: %v", err))
		}
	}

	for _, id := range g.NodeIDs() {
		n := g.Nodes[id]
		if n.ID != "" && n.ID != id {
			r.Errors = append(r.Errors, fmt.Sprintf("node '%s' is declared under key '%s'", n.ID, id))
		}
		if n.StepType == "" {
			r.Errors = append(r.Errors, fmt.Sprintf("node '%s' has no step type", id))
		} else if steps != nil && !steps.Has(n.StepType) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("node '%s' uses unregistered step type '%s'", id, n.StepType))
		}
	}

	for i, e := range g.Edges {
		if _, ok := g.Nodes[e.From]; !ok {
			r.Errors = append(r.Errors, fmt.Sprintf("edge %d: missing source node '%s'", i, e.From))
		}
		if _, ok := g.Nodes[e.To]; !ok {
			r.Errors = append(r.Errors, fmt.Sprintf("edge %d: missing target node '%s'", i, e.To))
		}
	}

	if _, ok := g.Nodes[g.StartNode]; !ok {
		r.Errors = append(r.Errors, fmt.Sprintf("start node '%s' not found", g.StartNode))
		return r
	}

	// Crawl from the start node
	visited := map[string]bool{}
	queue := []string{g.StartNode}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, e := range g.Outgoing(current) {
			if _, ok := g.Nodes[e.To]; ok && !visited[e.To] {
				queue = append(queue, e.To)
			}
		}
	}

	for _, id := range g.NodeIDs() {
		if !visited[id] {
			r.Warnings = append(r.Warnings, fmt.Sprintf("node '%s' is unreachable from '%s'", id, g.StartNode))
		}
	}

	return r
}
