// Package middleware provides gin middleware for the simulator's
// introspection API: CORS and per-client rate limiting.
package middleware
