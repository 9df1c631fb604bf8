// Package dto holds the wire shape of graph definitions shared by the HTTP API,
// the MCP server and graph files.
package dto

import (
	"fmt"

	"github.com/aretw0/flowrun/pkg/domain"
)

// GraphDefinition is the external representation of a graph.
// Tags cover JSON bodies and map-decoded YAML/JSON files.
type GraphDefinition struct {
	ID          string                    `json:"id" mapstructure:"id"`
	StartNode   string                    `json:"start_node" mapstructure:"start_node"`
	Nodes       map[string]NodeDefinition `json:"nodes" mapstructure:"nodes"`
	Edges       []EdgeDefinition          `json:"edges" mapstructure:"edges"`
	MaxSteps    *int                      `json:"max_steps,omitempty" mapstructure:"max_steps"`
	StateSchema map[string]string         `json:"state_schema,omitempty" mapstructure:"state_schema"`
}

// NodeDefinition binds a node to a step type. Tool is accepted as an alias of StepType.
type NodeDefinition struct {
	ID       string `json:"id,omitempty" mapstructure:"id"`
	StepType string `json:"step_type,omitempty" mapstructure:"step_type"`
	Tool     string `json:"tool,omitempty" mapstructure:"tool"`
}

// EdgeDefinition connects two nodes. The short keys "from"/"to" are accepted in files.
type EdgeDefinition struct {
	FromNode       string `json:"from_node" mapstructure:"from_node"`
	From           string `json:"from,omitempty" mapstructure:"from"`
	ToNode         string `json:"to_node" mapstructure:"to_node"`
	To             string `json:"to,omitempty" mapstructure:"to"`
	ConditionKey   string `json:"condition_key,omitempty" mapstructure:"condition_key"`
	ConditionValue any    `json:"condition_value,omitempty" mapstructure:"condition_value"`
}

// ToDomain converts the definition into a graph.
// Node ids default to their map key and must match it when given. An absent
// max_steps defaults to domain.DefaultMaxSteps; an explicit one must be positive.
func (d *GraphDefinition) ToDomain() (*domain.Graph, error) {
	g := &domain.Graph{
		ID:          d.ID,
		StartNode:   d.StartNode,
		Nodes:       make(map[string]domain.Node, len(d.Nodes)),
		Edges:       make([]domain.Edge, 0, len(d.Edges)),
		MaxSteps:    domain.DefaultMaxSteps,
		StateSchema: d.StateSchema,
	}
	if d.MaxSteps != nil {
		if *d.MaxSteps <= 0 {
			return nil, fmt.Errorf("%w: max_steps must be positive, got %d", domain.ErrInvalidGraph, *d.MaxSteps)
		}
		g.MaxSteps = *d.MaxSteps
	}

	for key, n := range d.Nodes {
		if n.ID != "" && n.ID != key {
			return nil, fmt.Errorf("%w: node %q is declared under key %q", domain.ErrInvalidGraph, n.ID, key)
		}
		id := key
		stepType := n.StepType
		if stepType == "" {
			stepType = n.Tool
		}
		g.Nodes[key] = domain.Node{ID: id, StepType: stepType}
	}

	for i, e := range d.Edges {
		edge := domain.Edge{
			From:         firstNonEmpty(e.FromNode, e.From),
			To:           firstNonEmpty(e.ToNode, e.To),
			ConditionKey: e.ConditionKey,
		}
		if e.ConditionKey != "" {
			v, err := domain.FromAny(e.ConditionValue)
			if err != nil {
				return nil, fmt.Errorf("edge %d: condition_value: %w", i, err)
			}
			edge.ConditionValue = v
		}
		g.Edges = append(g.Edges, edge)
	}
	return g, nil
}

// FromDomain converts a graph into its external representation.
func FromDomain(g *domain.Graph) GraphDefinition {
	maxSteps := g.MaxSteps
	d := GraphDefinition{
		ID:          g.ID,
		StartNode:   g.StartNode,
		Nodes:       make(map[string]NodeDefinition, len(g.Nodes)),
		Edges:       make([]EdgeDefinition, 0, len(g.Edges)),
		MaxSteps:    &maxSteps,
		StateSchema: g.StateSchema,
	}
	for key, n := range g.Nodes {
		d.Nodes[key] = NodeDefinition{ID: n.ID, StepType: n.StepType}
	}
	for _, e := range g.Edges {
		def := EdgeDefinition{FromNode: e.From, ToNode: e.To, ConditionKey: e.ConditionKey}
		if e.Conditional() {
			def.ConditionValue = e.ConditionValue.Any()
		}
		d.Edges = append(d.Edges, def)
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
