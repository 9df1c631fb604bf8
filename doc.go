/*
Package flowrun is a graph workflow engine: it runs a directed graph of named
steps against a shared state, following conditional edges until no edge
matches or the graph's step budget is spent.

Graphs are data. A node names a step type, step types are handlers registered
by name, and edges are tried in declaration order with the first match
winning. Workflows loop on purpose (e.g. "retry until the quality threshold is
met"), so there is no cycle detection; max_steps is what guarantees every run
halts.

# Usage

	eng := flowrun.New()
	eng.Register("greet", registry.Pure(func(s domain.State) domain.State {
		name, _ := s.String("name")
		s["greeting"] = domain.String("hello " + name)
		return s
	}))

	g, _ := dsl.New("hello").Start("greet").Node("greet", "greet").Build()
	_ = eng.RegisterGraph(ctx, g)

	res, err := eng.Run(ctx, "hello", domain.State{"name": domain.String("ada")})
	if err != nil {
		// not found, handler failure or cancellation: no result is stored
	}
	fmt.Println(res.RunID, res.FinalState["greeting"])

Results are immutable and can be fetched again with GetRun. Storage defaults to
memory; see WithGraphStore and WithRunStore for the Redis adapters.
*/
package flowrun
