package kernel

import (
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/arena"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/monitoring"
)

// CreateThread starts an additional thread in the calling process and
// returns its descriptor handle. The new thread runs task on its own
// flow; its return value becomes the thread's exit value.
func (e *Env) CreateThread(task Task, args []byte) arena.Handle {
	k := e.k

	th, t := k.newThreadLocked(e.proc, task, args)
	k.procs.Get(e.proc).threadCount++

	k.emit(Event{Type: EventThreadCreated, PID: e.pid, TID: th.String()})
	k.log.Debug("Thread created",
		zap.Int32("pid", int32(e.pid)),
		zap.String("tid", th.String()))

	sub := &Env{k: k, proc: e.proc, pid: e.pid, thread: th}
	k.launchLocked(sub, th, t, false)
	return th
}

// Join blocks until the thread named by tid exits and returns its exit
// value. Only threads of the calling process can be joined. Join fails
// without blocking on an unknown or stale handle, on the caller's own
// handle, and on a detached target; it fails after blocking when the
// target detaches mid-wait.
//
// The last joiner to collect the value also retires the descriptor.
func (e *Env) Join(tid arena.Handle) (int, error) {
	k := e.k

	t := k.threads.Get(tid)
	if t == nil || t.proc != e.proc {
		k.metrics.RecordJoin(monitoring.JoinNoThread, 0)
		return 0, ErrNoSuchThread
	}
	if tid == e.thread {
		k.metrics.RecordJoin(monitoring.JoinSelf, 0)
		return 0, ErrJoinSelf
	}
	if t.detached {
		k.metrics.RecordJoin(monitoring.JoinDetached, 0)
		return 0, ErrDetached
	}

	t.refcount++
	var waited time.Duration
	if !t.exited && !t.detached {
		start := time.Now()
		for !t.exited && !t.detached {
			t.exitCond.Wait()
		}
		waited = time.Since(start)
	}
	t.refcount--

	if t.detached {
		k.metrics.RecordJoin(monitoring.JoinDetached, waited)
		return 0, ErrDetached
	}

	exitval := t.exitval
	if k.threads.Get(tid) != nil && t.refcount == baselineRefs {
		k.procs.Get(t.proc).threads.Remove(tid)
		k.threads.Free(tid)
		k.metrics.RecordFree(monitoring.FreeByJoiner)
		k.metrics.SetThreadsLive(k.threads.Live())
		k.emit(Event{Type: EventDescriptorFreed, PID: e.pid, TID: tid.String(), Outcome: monitoring.FreeByJoiner})
	}

	k.metrics.RecordJoin(monitoring.JoinOK, waited)
	k.emit(Event{Type: EventThreadJoined, PID: e.pid, TID: tid.String(), Value: exitval, Elapsed: waited})
	k.log.Debug("Thread joined",
		zap.Int32("pid", int32(e.pid)),
		zap.String("tid", tid.String()),
		zap.Int("exitval", exitval),
		zap.Duration("waited", waited))
	return exitval, nil
}

// Detach marks the thread named by tid as unjoinable and wakes every
// blocked joiner, which then fail with ErrDetached. Detaching an already
// detached thread succeeds; detaching oneself is allowed. Detach fails
// on an unknown or stale handle and on a thread that already exited.
func (e *Env) Detach(tid arena.Handle) error {
	k := e.k

	t := k.threads.Get(tid)
	if t == nil || t.proc != e.proc {
		return ErrNoSuchThread
	}
	if t.exited {
		return ErrAlreadyExited
	}

	t.detached = true
	t.exitCond.Broadcast()

	k.metrics.RecordThreadDetached()
	k.emit(Event{Type: EventThreadDetached, PID: e.pid, TID: tid.String()})
	k.log.Debug("Thread detached",
		zap.Int32("pid", int32(e.pid)),
		zap.String("tid", tid.String()))
	return nil
}

// Exit ends the calling thread with the given exit value, waking every
// joiner. When this was the process's last live thread, the process
// termination cascade runs before the flow is released. Exit does not
// return.
func (e *Env) Exit(rv int) {
	k := e.k

	t := k.threads.Get(e.thread)
	t.exitval = rv
	t.exited = true
	t.exitCond.Broadcast()

	k.metrics.RecordThreadExited()
	k.emit(Event{Type: EventThreadExited, PID: e.pid, TID: e.thread.String(), Value: rv})
	k.log.Debug("Thread exited",
		zap.Int32("pid", int32(e.pid)),
		zap.String("tid", e.thread.String()),
		zap.Int("exitval", rv))

	p := k.procs.Get(e.proc)
	p.threadCount--
	if p.threadCount == 0 {
		k.cascadeLocked(e.proc)
	}

	k.core.ExitCurrent()
}
