// Package logging provides structured logging for every kernel component.
//
// It is a thin wrapper over zap: JSON output in production, colored
// console output in development, with Named children per subsystem
// ("kernel", "sched", "server"). Components receive a *Logger and attach
// structured fields (pid, tid, flow) rather than formatting strings.
package logging
