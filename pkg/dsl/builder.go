package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowrun/internal/validator"
	"github.com/aretw0/flowrun/pkg/domain"
)

// Builder manages the graph construction.
// Edges keep the order in which they were added, which is the order the engine tries them.
type Builder struct {
	id       string
	start    string
	maxSteps int
	nodes    map[string]*NodeBuilder
	order    []string
	edges    []domain.Edge
	schema   map[string]string
	errs     []error
}

// New creates a new graph builder.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Start sets the entry node. Defaults to the first node added.
func (b *Builder) Start(nodeID string) *Builder {
	b.start = nodeID
	return b
}

// MaxSteps sets the step budget. Defaults to domain.DefaultMaxSteps.
func (b *Builder) MaxSteps(n int) *Builder {
	b.maxSteps = n
	return b
}

// Node adds a node bound to stepType.
func (b *Builder) Node(id, stepType string) *Builder {
	b.Add(id).Step(stepType)
	return b
}

// Edge adds an unconditional edge.
func (b *Builder) Edge(from, to string) *Builder {
	b.edges = append(b.edges, domain.Edge{From: from, To: to})
	return b
}

// When adds an edge that fires when state[key] equals value.
// value may be a domain.Value or any native value accepted by domain.FromAny.
func (b *Builder) When(from, to, key string, value any) *Builder {
	v, err := domain.FromAny(value)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("edge %s -> %s: %w", from, to, err))
		return b
	}
	b.edges = append(b.edges, domain.Edge{From: from, To: to, ConditionKey: key, ConditionValue: v})
	return b
}

// Expect declares the type of an initial state key (e.g. "string", "[string]").
func (b *Builder) Expect(key, typeName string) *Builder {
	if b.schema == nil {
		b.schema = make(map[string]string)
	}
	b.schema[key] = typeName
	return b
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build compiles the graph. Graphs with dangling edges or a missing start node are rejected.
func (b *Builder) Build() (*domain.Graph, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("failed to build graph %s: %w", b.id, errors.Join(b.errs...))
	}

	g := &domain.Graph{
		ID:          b.id,
		StartNode:   b.start,
		Nodes:       make(map[string]domain.Node, len(b.nodes)),
		Edges:       append([]domain.Edge(nil), b.edges...),
		MaxSteps:    b.maxSteps,
		StateSchema: b.schema,
	}
	if g.StartNode == "" && len(b.order) > 0 {
		g.StartNode = b.order[0]
	}
	if g.MaxSteps == 0 {
		g.MaxSteps = domain.DefaultMaxSteps
	}
	for id, nb := range b.nodes {
		g.Nodes[id] = nb.node
	}

	if err := validator.ValidateGraph(g, nil).Err(); err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// MustBuild is like Build but panics on error. Intended for static definitions.
func (b *Builder) MustBuild() *domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
