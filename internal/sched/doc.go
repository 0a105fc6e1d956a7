// Package sched provides the cooperative scheduling core the kernel runs on.
//
// The original single-flow model is kept by construction: every flow is a
// goroutine that executes kernel code only while holding the one kernel
// lock, releasing it at explicit blocking points (condition waits, yields,
// flow exit). At most one flow mutates kernel state at a time, so
// descriptor and collection updates between blocking points are atomic to
// every observer.
//
// Key Components:
//   - Core: the kernel lock, condition variables bound to it, and flow
//     accounting
//   - Flow: one schedulable execution, created suspended and released by
//     Ready
//   - ExitCurrent: terminal exit of the calling flow; never returns
//
// A flow body must end through ExitCurrent. Observers outside the flow
// plane (servers, tests) take the lock explicitly around reads.
package sched
