// Package metrics exposes Manager activity as Prometheus metrics.
//
// Collector implements engine.Observer and owns its own prometheus.Registry,
// so several servers can run in one process without colliding on the
// default registry. Served metrics:
//
//   - loosed_rules: gauge of rules currently held
//   - loosed_rules_added_total{kind}: rules created
//   - loosed_rules_removed_total: rules removed
//   - loosed_responses_set_total{kind}: responses bound
//   - loosed_dispatch_total{outcome}: dispatched requests, outcome is
//     "matched" or "missed"
//   - loosed_rule_failures_total{stage}: predicate or builder failures
//   - loosed_rule_unbound_total: matches skipped for lack of a response
//   - loosed_request_duration_seconds{code,method}: dynamic route latency
//
// Handler serves the registry in the Prometheus exposition format.
package metrics
