// Package workload turns manifest entries into kernel load.
//
// Each workload runs as its own child process under the caller's
// environment, so a misbehaving workload ends at its process boundary
// and the runner collects its exit status like any parent reaping a
// child. Builtin kinds exercise the lifecycle surface directly;
// the script kind evaluates a JavaScript program (goja) with spawn,
// join, detach, exit, yield, and log bound to the kernel.
//
// Key Components:
//   - Runner: executes workloads sequentially, reaping each one
//   - Builtin kinds: join-fanin, detach-race, tree
//   - Script kind: sandboxed goja program driving the kernel surface
//
// A workload's exit status is its verdict: 0 means every operation
// behaved as the kind expects.
package workload
