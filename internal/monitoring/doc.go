// Package monitoring provides Prometheus metrics for the kernel.
//
// One Metrics instance covers one kernel: lifecycle counters (creates,
// exits, joins by outcome, descriptor frees by path, cascades), live-state
// gauges fed from the descriptor arenas, wait/duration histograms, and the
// HTTP/WebSocket metrics of the introspection surface. Every instance owns
// its registry; scrape it through Handler.
package monitoring
