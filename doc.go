// Package pibench serves an approximation of π over HTTP.
//
// Every GET request, whatever its path, is answered with the Leibniz series
// summed to the number of terms given in the iterations query parameter
// (default 1). The response is a plain-text decimal:
//
//	$ curl 'http://localhost:3000/?iterations=1'
//	4.0
//
// # Quick Start
//
//	pb, _ := pibench.New(pibench.WithPort(3000))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	pb.Start(ctx) // blocks until context is cancelled
//
// # Request Policy
//
//   - iterations absent or blank: 1 term
//   - iterations zero or negative: 0.0
//   - iterations not an integer: 400 Bad Request
//   - iterations above [WithMaxIterations]: 400 Bad Request
//   - repeated iterations: the first non-blank value wins
//   - pairs are separated by & or ;
//   - surrounding whitespace and digit-grouping underscores (1_000) are accepted
//
// # Architecture
//
//   - internal/leibniz: the series and its formatting
//   - internal/server: listener lifecycle, pi handler, middleware
//   - internal/metrics: Prometheus measures, served when [WithMetricsPort] is set
//   - internal/bench: the runner behind "pibench bench"
//   - config: YAML configuration for the pibench binary
package pibench
