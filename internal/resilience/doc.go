// Package resilience provides a circuit breaker guarding calls to
// external collectors, so a dead endpoint cannot stall a simulator run.
package resilience
