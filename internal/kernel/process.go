package kernel

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/stream"
)

// Spawn creates a child process of the caller running task as its main
// thread and returns the child's pid. The child inherits the caller's
// open streams (shared, reference counted) and receives a private copy
// of args.
func (e *Env) Spawn(task Task, args []byte) PID {
	k := e.k

	ch := k.newProcessLocked(e.proc, args)
	c := k.procs.Get(ch)

	parent := k.procs.Get(e.proc)
	for fd, f := range parent.streams {
		if f != nil {
			f.Incref()
			c.streams[fd] = f
		}
	}

	pid := c.pid
	k.emit(Event{Type: EventProcessSpawned, PID: pid, PPID: e.pid})
	k.log.Debug("Process spawned",
		zap.Int32("pid", int32(pid)),
		zap.Int32("parent", int32(e.pid)))

	k.startMainLocked(ch, task)
	return pid
}

// WaitChild blocks until one of the caller's children terminates, then
// collects it: the zombie's pid and exit status are returned and its
// descriptor slot is reclaimed. Children are collected oldest death
// first. WaitChild fails with ErrNoChildren when the caller has neither
// live nor zombie children.
func (e *Env) WaitChild() (PID, int, error) {
	k := e.k
	p := k.procs.Get(e.proc)

	for {
		if p.children.Empty() {
			return 0, 0, ErrNoChildren
		}
		if zh, ok := p.zombies.PopFront(); ok {
			z := k.procs.Get(zh)
			pid, status := z.pid, z.exitval

			p.children.Remove(zh)
			delete(k.byPID, pid)
			k.procs.Free(zh)

			k.metrics.RecordProcessReaped()
			k.metrics.SetProcessesLive(k.procs.Live())
			k.emit(Event{Type: EventProcessReaped, PID: pid, PPID: e.pid, Value: status})
			k.log.Debug("Child reaped",
				zap.Int32("pid", int32(pid)),
				zap.Int32("parent", int32(e.pid)),
				zap.Int("status", status))
			return pid, status, nil
		}
		p.childExit.Wait()
	}
}

// ExitProcess ends the calling process with the given exit status: the
// status is recorded for the reaping parent and the calling thread
// exits. Other threads of the process keep running; the termination
// cascade fires when the last of them exits. The root process first
// collects every remaining child. ExitProcess does not return.
func (e *Env) ExitProcess(status int) {
	k := e.k

	if e.pid == RootPID {
		for {
			if _, _, err := e.WaitChild(); err != nil {
				break
			}
		}
	}

	k.procs.Get(e.proc).exitval = status
	k.log.Debug("Process exiting",
		zap.Int32("pid", int32(e.pid)),
		zap.Int("status", status))
	e.Exit(status)
}

// ============================================================================
// Stream table
// ============================================================================

// Install places f into the lowest free fd slot of the calling process
// and returns the fd. The slot takes ownership of one reference; the
// caller must not Decref what it handed over. Fails with ErrFdTableFull
// when every slot is occupied.
func (e *Env) Install(f *stream.File) (int, error) {
	k := e.k
	p := k.procs.Get(e.proc)

	for fd := range p.streams {
		if p.streams[fd] == nil {
			p.streams[fd] = f
			k.openStreams++
			k.metrics.SetStreamsOpen(k.openStreams)
			k.emit(Event{Type: EventStreamOpened, PID: e.pid, FD: fd, Name: f.Name()})
			return fd, nil
		}
	}
	return 0, ErrFdTableFull
}

// Open creates a named stream object and installs it.
func (e *Env) Open(name string) (int, error) {
	f := stream.New(name)
	fd, err := e.Install(f)
	if err != nil {
		f.Decref()
		return 0, err
	}
	return fd, nil
}

// Close releases the fd slot. The underlying object closes when its
// last slot is released, here or in a process sharing it.
func (e *Env) Close(fd int) error {
	k := e.k
	p := k.procs.Get(e.proc)

	if fd < 0 || fd >= MaxStreams || p.streams[fd] == nil {
		return ErrBadFd
	}

	f := p.streams[fd]
	p.streams[fd] = nil
	if f.Decref() {
		k.openStreams--
		k.metrics.SetStreamsOpen(k.openStreams)
		k.emit(Event{Type: EventStreamClosed, PID: e.pid, FD: fd, Name: f.Name()})
	}
	return nil
}

// Dup shares the object at fd into the lowest free slot and returns the
// new fd. Both slots release independently.
func (e *Env) Dup(fd int) (int, error) {
	k := e.k
	p := k.procs.Get(e.proc)

	if fd < 0 || fd >= MaxStreams || p.streams[fd] == nil {
		return 0, ErrBadFd
	}

	for nfd := range p.streams {
		if p.streams[nfd] == nil {
			p.streams[fd].Incref()
			p.streams[nfd] = p.streams[fd]
			return nfd, nil
		}
	}
	return 0, ErrFdTableFull
}
