// Package engine provides the dispatch core of the stub server.
//
// # Architecture
//
//	configuration client ──► api.Server ──► api.API ──┬──► registry (parse/serialize)
//	                                                  └──► Manager (rules, bindings)
//	test traffic ──► Handler ──► Manager.Dispatch ──► Rule.Match / Response.Build
//
// A Manager holds rules in insertion order and at most one Response per
// rule. Dispatch walks the rules in that order and returns the reply of the
// first rule that matches and has a response bound. Rules without a
// response are skipped. A rule whose predicate or builder returns an error,
// panics or exceeds the optional match timeout is skipped as well, so one
// broken plugin never blocks the others or fails the request.
//
// # Observability
//
// The Manager reports what it does to an injected Observer instead of
// logging directly. LogObserver writes to slog, metrics.Collector exports
// Prometheus series, and MultiObserver combines them.
package engine
