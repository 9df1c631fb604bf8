/*
Package ports defines the driven ports (interfaces) for the flowrun engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with in-memory or Redis-backed storage and letting transports
(HTTP, MCP, CLI) drive any engine implementation.

# Key Interfaces

  - GraphStore: Keeps registered graph definitions by id.
  - RunStore: Keeps immutable run results by run id (append-only).
  - Engine: What the transports need from the engine facade.
*/
package ports
