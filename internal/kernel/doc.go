// Package kernel implements thread and process lifecycle management.
//
// Every process owns a collection of thread descriptors; threads are
// created, joined, detached, and exited through an Env, the execution
// context a flow receives when it starts. When the last thread of a
// process exits, the termination cascade reparents its children to the
// root process, hands its zombies over, notifies the parent, releases
// descriptors and owned resources, and marks the process ZOMBIE. Parents
// collect dead children with WaitChild.
//
// Key Components:
//   - Kernel: descriptor arenas, pid registry, metrics, event emission
//   - Env: per-flow execution context carrying current process and thread
//   - Thread operations: CreateThread, Self, Join, Detach, Exit
//   - Process operations: Spawn, WaitChild, ExitProcess
//   - Stream operations: Open, Install, Close, Dup over fd slots
//
// All state changes happen under the scheduling core's kernel lock;
// blocking operations release it only inside condition waits. Thread and
// process identifiers are generation-tagged arena handles, so a stale
// identifier fails instead of aliasing a reused slot.
//
// The snapshot observers (Counts, Processes, Process) take the kernel
// lock and are for callers outside the kernel. Task code already runs
// under the lock and must not call them.
//
// Example Usage:
//
//	k := kernel.New(kernel.Config{Logger: logger})
//	status := k.Run(func(env *kernel.Env, args []byte) int {
//	    tid := env.CreateThread(worker, nil)
//	    v, err := env.Join(tid)
//	    if err != nil {
//	        return 1
//	    }
//	    return v
//	}, nil)
package kernel
