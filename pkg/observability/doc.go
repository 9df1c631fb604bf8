/*
Package observability provides lifecycle hooks for monitoring the flowrun engine.

It includes Prometheus metrics fed by run and node events, a slog-based audit
hook, and Combine for attaching several hook sets to one engine.
*/
package observability
