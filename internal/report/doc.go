// Package report aggregates a simulator run into a summary document.
//
// A Collector plugs into the kernel as an event sink and tallies event
// types while sampling join waits and cascade durations. The runner
// adds per-scenario results as workloads finish. Build assembles the
// final Report with gonum-computed latency statistics, ready for sonic
// encoding to disk or the telemetry endpoint.
//
// Key Components:
//   - Collector: event sink accumulating tallies and latency samples
//   - Stats: count/mean/stddev/quantile summary of one sample set
//   - Report: the full run document (scenarios, tallies, stats, trace)
package report
