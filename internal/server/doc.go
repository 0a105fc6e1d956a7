// Package server wires configuration, middleware, handlers, and the
// event stream into the simulator's HTTP server.
package server
