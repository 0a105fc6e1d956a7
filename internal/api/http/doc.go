// Package http serves the simulator's introspection API: health,
// process and thread snapshots, and the loaded scenario catalog.
//
// Every route is a read-only view over kernel observers; mutation goes
// through workloads, never through the API.
package http
