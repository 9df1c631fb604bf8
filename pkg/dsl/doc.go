/*
Package dsl provides a fluent builder for constructing flowrun graphs in Go.

It is an alternative to YAML, JSON or HCL graph files when graphs are
generated dynamically, written in tests, or shipped with the binary.

Example usage:

	g, err := dsl.New("review").
		Start("extract").
		MaxSteps(20).
		Node("extract", "extract_functions").
		Node("evaluate", "evaluate_quality").
		Edge("extract", "evaluate").
		When("evaluate", "extract", "done", false).
		Build()

The same graph can be written node by node:

	b := dsl.New("review")
	b.Add("extract").Step("extract_functions").Go("evaluate")
	b.Add("evaluate").Step("evaluate_quality").When("done", false, "extract")
	g, err := b.Build()

Edges keep insertion order, which is the order the engine tries them in.
Build rejects dangling edges and a missing start node.
*/
package dsl
