/*
Package domain contains the core models of the flowrun engine.

It defines the graph (nodes and ordered, optionally conditional edges), the
dynamically-typed state that flows through it, and the immutable run result
produced by an execution. The package is kept free of I/O and persistence so
that adapters and the runtime can share it.

# Key Entities

  - Value: Tagged union (null, bool, number, string, list, map) with structural equality.
  - State: The key/value blob passed from step to step.
  - Graph: Start node, nodes, ordered edges and the step budget.
  - RunResult: Final state plus the execution log of one run.
*/
package domain
