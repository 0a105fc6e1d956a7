// Command kernelsim boots a teaching kernel, runs workload manifests
// against its thread lifecycle, and serves an introspection API while
// doing so.
//
// Configuration comes from the environment (see internal/config), with
// flags overriding the common knobs:
//
//	kernelsim -manifests ./manifests -trace run.trace.gz -serve
//
// The run report is printed to stdout when all scenarios finish; the
// exit status is the number of failed scenarios.
package main
