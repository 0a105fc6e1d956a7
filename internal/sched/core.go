package sched

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
)

// FlowID identifies one schedulable execution for logging and accounting.
type FlowID uint64

// Core owns the kernel lock and the set of live flows.
//
// Flow accounting lives under its own small mutex, independent of the
// kernel lock, so retirement works no matter how a flow goroutine ends.
type Core struct {
	mu sync.Mutex // the kernel lock

	flowmu sync.Mutex
	idle   *sync.Cond
	live   int
	nextID FlowID

	log *logging.Logger
}

// New creates a scheduling core. The logger may be nil.
func New(log *logging.Logger) *Core {
	c := &Core{log: log}
	c.idle = sync.NewCond(&c.flowmu)
	return c
}

// Lock acquires the kernel lock.
func (c *Core) Lock() { c.mu.Lock() }

// Unlock releases the kernel lock.
func (c *Core) Unlock() { c.mu.Unlock() }

// NewCond returns a condition variable bound to the kernel lock. Waiting
// on it is a blocking point: the lock is released while suspended and
// reacquired before Wait returns.
func (c *Core) NewCond() *sync.Cond { return sync.NewCond(&c.mu) }

// Yield releases the kernel lock long enough for other runnable flows to
// take it, then reacquires it. It is a blocking point with no state
// change of its own.
func (c *Core) Yield() {
	c.mu.Unlock()
	runtime.Gosched()
	c.mu.Lock()
}

// Flow is one schedulable execution. It starts suspended; Ready releases
// it to run its body under the kernel lock.
type Flow struct {
	ID   FlowID
	core *Core
	gate chan struct{}
}

// Spawn creates a suspended flow that will run body under the kernel
// lock once readied. The body must terminate through ExitCurrent;
// returning from it is a kernel bug.
func (c *Core) Spawn(body func()) *Flow {
	c.flowmu.Lock()
	c.nextID++
	id := c.nextID
	c.live++
	c.flowmu.Unlock()

	f := &Flow{ID: id, core: c, gate: make(chan struct{})}
	go func() {
		defer c.retire(id)
		<-f.gate
		c.mu.Lock()
		body()
		panic("sched: flow returned without exiting")
	}()

	if c.log != nil {
		c.log.Debug("Flow spawned", zap.Uint64("flow", uint64(id)))
	}
	return f
}

// Ready releases the flow to run. It must be called exactly once.
func (f *Flow) Ready() { close(f.gate) }

// ExitCurrent ends the calling flow. The kernel lock must be held on
// entry and is released; the call never returns.
func (c *Core) ExitCurrent() {
	c.mu.Unlock()
	runtime.Goexit()
}

// LiveFlows returns the number of flows spawned but not yet retired.
func (c *Core) LiveFlows() int {
	c.flowmu.Lock()
	defer c.flowmu.Unlock()
	return c.live
}

// WaitIdle blocks until every spawned flow has retired.
func (c *Core) WaitIdle() {
	c.flowmu.Lock()
	for c.live > 0 {
		c.idle.Wait()
	}
	c.flowmu.Unlock()
}

func (c *Core) retire(id FlowID) {
	c.flowmu.Lock()
	c.live--
	c.idle.Broadcast()
	c.flowmu.Unlock()

	if c.log != nil {
		c.log.Debug("Flow retired", zap.Uint64("flow", uint64(id)))
	}
}
