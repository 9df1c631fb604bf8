package dsl

import "github.com/aretw0/flowrun/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node and its outgoing edges.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Step binds the node to a registered step type.
func (n *NodeBuilder) Step(stepType string) *NodeBuilder {
	n.node.StepType = stepType
	return n
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.builder.Edge(n.node.ID, target)
	return n
}

// When adds a conditional edge to the target node.
func (n *NodeBuilder) When(key string, value any, target string) *NodeBuilder {
	n.builder.When(n.node.ID, target, key, value)
	return n
}

// Done returns to the graph builder.
func (n *NodeBuilder) Done() *Builder {
	return n.builder
}
