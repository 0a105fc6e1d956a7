// Package telemetry delivers run reports to an optional external
// collector over HTTP, behind a circuit breaker.
package telemetry
