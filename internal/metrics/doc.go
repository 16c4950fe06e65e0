// Package metrics defines the Prometheus measures exported by pibench.
//
// Every [Measures] owns its own registry, so several servers (and tests) can
// run in one process without colliding on the global default registry.
package metrics
