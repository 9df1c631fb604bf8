package domain

import (
	"sort"
)

// DefaultMaxSteps is the step budget applied when a graph definition omits max_steps.
const DefaultMaxSteps = 50

// Node is a named position in the graph bound to a registered step type.
type Node struct {
	ID       string `json:"id" yaml:"id"`
	StepType string `json:"step_type" yaml:"step_type"`
}

// Edge connects two nodes. An edge without ConditionKey is unconditional.
// A conditional edge fires only when ConditionKey is present in the state and
// its value is structurally equal to ConditionValue.
type Edge struct {
	From           string `json:"from"`
	To             string `json:"to"`
	ConditionKey   string `json:"condition_key,omitempty"`
	ConditionValue Value  `json:"condition_value"`
}

// Conditional reports whether the edge is guarded by a state condition.
func (e Edge) Conditional() bool {
	return e.ConditionKey != ""
}

// Matches reports whether the edge fires for the given state.
// An absent key never matches, even when ConditionValue is null.
func (e Edge) Matches(s State) bool {
	if !e.Conditional() {
		return true
	}
	v, ok := s[e.ConditionKey]
	if !ok {
		return false
	}
	return v.Equal(e.ConditionValue)
}

// Graph is a workflow definition. It is treated as immutable once registered.
type Graph struct {
	ID        string          `json:"id"`
	StartNode string          `json:"start_node"`
	Nodes     map[string]Node `json:"nodes"`
	Edges     []Edge          `json:"edges"`
	MaxSteps  int             `json:"max_steps"`

	// StateSchema optionally declares expected types for keys of the initial state.
	// Values are type names understood by the schema package (e.g. "string", "[number]").
	StateSchema map[string]string `json:"state_schema,omitempty"`
}

// Next returns the target of the first edge leaving from whose condition matches s.
// The boolean is false when no edge matches, which ends the run.
func (g *Graph) Next(from string, s State) (string, bool) {
	for _, e := range g.Edges {
		if e.From != from {
			continue
		}
		if e.Matches(s) {
			return e.To, true
		}
	}
	return "", false
}

// Outgoing returns the edges leaving node id in declaration order.
func (g *Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// NodeIDs returns the node ids in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		ID:        g.ID,
		StartNode: g.StartNode,
		MaxSteps:  g.MaxSteps,
		Nodes:     make(map[string]Node, len(g.Nodes)),
		Edges:     make([]Edge, len(g.Edges)),
	}
	for k, n := range g.Nodes {
		out.Nodes[k] = n
	}
	for i, e := range g.Edges {
		e.ConditionValue = e.ConditionValue.Clone()
		out.Edges[i] = e
	}
	if g.StateSchema != nil {
		out.StateSchema = make(map[string]string, len(g.StateSchema))
		for k, v := range g.StateSchema {
			out.StateSchema[k] = v
		}
	}
	return out
}
