/*
Package observability turns engine lifecycle hooks into Prometheus metrics
and structured log records.

Metrics are registered on a caller supplied prometheus.Registerer, so tests
and embedders can keep them off the global registry. Chain combines several
LifecycleHooks values into one.
*/
package observability
