package kernel

import (
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/arena"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/monitoring"
)

// cascadeLocked tears a process down after its last thread exits:
// surviving children are handed to the root process, the parent is
// notified of the death, every remaining thread descriptor is
// reclaimed, the argument buffer and stream table are released, and
// the process parks as a zombie until its parent collects it.
func (k *Kernel) cascadeLocked(ph arena.Handle) {
	start := time.Now()
	p := k.procs.Get(ph)

	var ppid PID
	if ph != k.root {
		root := k.procs.Get(k.root)
		for {
			ch, ok := p.children.PopFront()
			if !ok {
				break
			}
			k.procs.Get(ch).parent = k.root
			root.children.PushBack(ch)
		}
		root.zombies.Splice(&p.zombies)
		root.childExit.Broadcast()

		parent := k.procs.Get(p.parent)
		ppid = parent.pid
		parent.zombies.PushBack(ph)
		parent.childExit.Broadcast()
	}

	if !p.children.Empty() || !p.zombies.Empty() {
		panic("kernel: exiting process still holds children")
	}

	freed := 0
	for {
		th, ok := p.threads.PopFront()
		if !ok {
			break
		}
		k.threads.Free(th)
		k.metrics.RecordFree(monitoring.FreeByCascade)
		k.emit(Event{Type: EventDescriptorFreed, PID: p.pid, TID: th.String(), Outcome: monitoring.FreeByCascade})
		freed++
	}
	k.metrics.SetThreadsLive(k.threads.Live())

	p.args = nil
	for fd, f := range p.streams {
		if f == nil {
			continue
		}
		p.streams[fd] = nil
		if f.Decref() {
			k.openStreams--
			k.metrics.SetStreamsOpen(k.openStreams)
			k.emit(Event{Type: EventStreamClosed, PID: p.pid, FD: fd, Name: f.Name()})
		}
	}

	p.main = arena.Zero
	p.state = StateZombie

	elapsed := time.Since(start)
	k.metrics.RecordCascade(elapsed)
	k.emit(Event{Type: EventCascade, PID: p.pid, PPID: ppid, Value: freed, Elapsed: elapsed})
	k.log.Debug("Process torn down",
		zap.Int32("pid", int32(p.pid)),
		zap.Int("descriptors_freed", freed),
		zap.Duration("elapsed", elapsed))
}
