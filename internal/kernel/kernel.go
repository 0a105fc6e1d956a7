package kernel

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/arena"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/monitoring"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/sched"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/stream"
)

// PID identifies a process. Pids are allocated monotonically and never
// reused; pid 1 is the root process.
type PID int32

// RootPID is the pid of the root process, created at boot.
const RootPID PID = 1

// MaxStreams is the number of fd slots per process.
const MaxStreams = 16

// baselineRefs is a descriptor's reference count with no joiner
// registered: the owning process's own hold.
const baselineRefs = 1

// ProcState is the lifecycle state of a process.
type ProcState int32

const (
	// StateAlive means the process still has running threads.
	StateAlive ProcState = iota
	// StateZombie means the termination cascade has run; the process
	// waits for its parent to collect it.
	StateZombie
)

// String returns the state name.
func (s ProcState) String() string {
	switch s {
	case StateAlive:
		return "ALIVE"
	case StateZombie:
		return "ZOMBIE"
	default:
		return "UNKNOWN"
	}
}

// Task is a thread entry point. It runs on its own flow under the kernel
// lock and its return value becomes the thread's exit value (the process
// exit status, for a main thread).
type Task func(env *Env, args []byte) int

// Link roles inside the thread arena.
const roleThread = 0

// Link roles inside the process arena.
const (
	roleChild  = 0
	roleZombie = 1
)

// ptcb is the per-thread descriptor: join/detach/exit bookkeeping, owned
// by the process's descriptor collection for its whole reachable life.
type ptcb struct {
	task Task
	args []byte

	exited   bool
	detached bool
	exitval  int

	// refcount counts parties holding an interest in this descriptor:
	// the owner's baseline plus one per blocked or bookkeeping joiner.
	refcount int

	exitCond *sync.Cond
	proc     arena.Handle
	flow     sched.FlowID
}

// pcb is the per-process descriptor.
type pcb struct {
	pid   PID
	state ProcState

	threadCount int
	threads     arena.List[ptcb]
	main        arena.Handle

	parent    arena.Handle
	children  arena.List[pcb]
	zombies   arena.List[pcb]
	childExit *sync.Cond

	streams [MaxStreams]*stream.File
	args    []byte
	exitval int
}

// Config carries the kernel's collaborators. Zero fields get quiet
// defaults.
type Config struct {
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
	Sinks   []EventSink
}

// Kernel owns the descriptor arenas, the pid registry, and the
// scheduling core. One Kernel is one booted machine.
type Kernel struct {
	bootID  string
	log     *logging.Logger
	metrics *monitoring.Metrics
	sinks   []EventSink

	core    *sched.Core
	threads *arena.Arena[ptcb]
	procs   *arena.Arena[pcb]

	byPID   map[PID]arena.Handle
	nextPID PID
	root    arena.Handle

	openStreams int
	seq         uint64
	booted      bool
}

// New creates a kernel. It does not run anything until Boot.
func New(cfg Config) *Kernel {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}

	k := &Kernel{
		bootID:  uuid.NewString(),
		log:     log.Named("kernel"),
		metrics: metrics,
		sinks:   cfg.Sinks,
		threads: arena.New[ptcb](1),
		procs:   arena.New[pcb](2),
		byPID:   make(map[PID]arena.Handle),
	}
	k.core = sched.New(log.Named("sched"))
	return k
}

// BootID returns the unique identifier of this kernel instance.
func (k *Kernel) BootID() string { return k.bootID }

// Metrics exposes the kernel's metrics collector.
func (k *Kernel) Metrics() *monitoring.Metrics { return k.metrics }

// Boot creates the root process (pid 1) running main and releases it.
// Booting twice panics.
func (k *Kernel) Boot(main Task, args []byte) PID {
	k.core.Lock()
	defer k.core.Unlock()

	if k.booted {
		panic("kernel: boot called twice")
	}
	k.booted = true

	ph := k.newProcessLocked(arena.Zero, args)
	k.root = ph

	k.emit(Event{Type: EventBoot, PID: RootPID, Name: k.bootID})
	k.log.Info("Kernel booted",
		zap.String("boot_id", k.bootID),
		zap.Int32("root_pid", int32(RootPID)))

	k.startMainLocked(ph, main)
	return RootPID
}

// WaitIdle blocks until every flow has retired.
func (k *Kernel) WaitIdle() { k.core.WaitIdle() }

// Run boots the kernel, waits for all flows to finish, and returns the
// root process's exit status.
func (k *Kernel) Run(main Task, args []byte) int {
	k.Boot(main, args)
	k.WaitIdle()

	k.core.Lock()
	defer k.core.Unlock()
	return k.procs.Get(k.root).exitval
}

// ============================================================================
// Execution context
// ============================================================================

// Env is the execution context of one flow: the kernel it runs in plus
// its current process and thread. Every lifecycle operation takes its
// subjects from here; there is no ambient current-process lookup.
type Env struct {
	k      *Kernel
	proc   arena.Handle
	pid    PID
	thread arena.Handle
}

// PID returns the calling process's pid.
func (e *Env) PID() PID { return e.pid }

// Self returns the calling thread's descriptor handle.
func (e *Env) Self() arena.Handle { return e.thread }

// Yield gives other runnable flows a turn.
func (e *Env) Yield() { e.k.core.Yield() }

// ============================================================================
// Internal construction
// ============================================================================

// newProcessLocked allocates a pcb under parent (Zero for the root),
// copies the argument buffer, and registers the pid.
func (k *Kernel) newProcessLocked(parent arena.Handle, args []byte) arena.Handle {
	ph, p := k.procs.Alloc()

	k.nextPID++
	p.pid = k.nextPID
	p.state = StateAlive
	p.parent = parent
	p.threads = arena.NewList(k.threads, roleThread)
	p.children = arena.NewList(k.procs, roleChild)
	p.zombies = arena.NewList(k.procs, roleZombie)
	p.childExit = k.core.NewCond()
	if len(args) > 0 {
		p.args = append([]byte(nil), args...)
	}

	k.byPID[p.pid] = ph
	if !parent.IsZero() {
		k.procs.Get(parent).children.PushBack(ph)
	}

	k.metrics.RecordProcessSpawned()
	k.metrics.SetProcessesLive(k.procs.Live())
	return ph
}

// newThreadLocked allocates a descriptor owned by the process, with the
// baseline reference and its own exit condition. Thread accounting is
// the caller's job.
func (k *Kernel) newThreadLocked(ph arena.Handle, task Task, args []byte) (arena.Handle, *ptcb) {
	th, t := k.threads.Alloc()
	t.task = task
	if len(args) > 0 {
		t.args = append([]byte(nil), args...)
	}
	t.refcount = baselineRefs
	t.exitCond = k.core.NewCond()
	t.proc = ph

	k.procs.Get(ph).threads.PushBack(th)

	k.metrics.RecordThreadCreated()
	k.metrics.SetThreadsLive(k.threads.Live())
	return th, t
}

// startMainLocked installs the main thread of a fresh process and
// releases its flow.
func (k *Kernel) startMainLocked(ph arena.Handle, main Task) {
	p := k.procs.Get(ph)
	th, t := k.newThreadLocked(ph, main, p.args)
	p.main = th
	p.threadCount = 1

	env := &Env{k: k, proc: ph, pid: p.pid, thread: th}
	k.launchLocked(env, th, t, true)
}

// launchLocked binds a flow to the descriptor and readies it. The flow
// consumes the descriptor's entry point and argument copy at start.
func (k *Kernel) launchLocked(env *Env, th arena.Handle, t *ptcb, isMain bool) {
	f := k.core.Spawn(func() {
		t := k.threads.Get(th)
		task, args := t.task, t.args
		t.task, t.args = nil, nil

		rv := task(env, args)
		if isMain {
			env.ExitProcess(rv)
		}
		env.Exit(rv)
	})
	t.flow = f.ID
	f.Ready()
}

// emit stamps and fans the event out to every sink.
func (k *Kernel) emit(ev Event) {
	k.seq++
	ev.Seq = k.seq
	ev.Time = time.Now()
	for _, s := range k.sinks {
		s.Record(ev)
	}
}

// ============================================================================
// Observers
// ============================================================================

// ThreadInfo is the observer view of one thread descriptor.
type ThreadInfo struct {
	TID      string `json:"tid"`
	Exited   bool   `json:"exited"`
	Detached bool   `json:"detached"`
	ExitVal  int    `json:"exitval"`
	Refcount int    `json:"refcount"`
	Flow     uint64 `json:"flow"`
}

// StreamInfo is the observer view of one occupied fd slot.
type StreamInfo struct {
	FD   int    `json:"fd"`
	Name string `json:"name"`
	Refs int    `json:"refs"`
}

// ProcessInfo is the observer view of one process.
type ProcessInfo struct {
	PID         PID          `json:"pid"`
	Parent      PID          `json:"parent"`
	State       string       `json:"state"`
	ThreadCount int          `json:"thread_count"`
	ExitStatus  int          `json:"exit_status"`
	Children    []PID        `json:"children"`
	Zombies     []PID        `json:"zombies"`
	Threads     []ThreadInfo `json:"threads"`
	Streams     []StreamInfo `json:"streams"`
}

// Counts is a point-in-time census of kernel state.
type Counts struct {
	ThreadsLive   int `json:"threads_live"`
	ProcessesLive int `json:"processes_live"`
	StreamsOpen   int `json:"streams_open"`
	FlowsLive     int `json:"flows_live"`
}

// Counts returns the current census.
func (k *Kernel) Counts() Counts {
	k.core.Lock()
	defer k.core.Unlock()
	return Counts{
		ThreadsLive:   k.threads.Live(),
		ProcessesLive: k.procs.Live(),
		StreamsOpen:   k.openStreams,
		FlowsLive:     k.core.LiveFlows(),
	}
}

// Processes snapshots every registered process, ordered by pid.
func (k *Kernel) Processes() []ProcessInfo {
	k.core.Lock()
	defer k.core.Unlock()

	out := make([]ProcessInfo, 0, len(k.byPID))
	for _, ph := range k.byPID {
		out = append(out, k.infoLocked(ph))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Process snapshots one process by pid.
func (k *Kernel) Process(pid PID) (ProcessInfo, error) {
	k.core.Lock()
	defer k.core.Unlock()

	ph, ok := k.byPID[pid]
	if !ok {
		return ProcessInfo{}, ErrNoSuchProcess
	}
	return k.infoLocked(ph), nil
}

func (k *Kernel) infoLocked(ph arena.Handle) ProcessInfo {
	p := k.procs.Get(ph)

	info := ProcessInfo{
		PID:         p.pid,
		State:       p.state.String(),
		ThreadCount: p.threadCount,
		ExitStatus:  p.exitval,
		Children:    []PID{},
		Zombies:     []PID{},
		Threads:     []ThreadInfo{},
		Streams:     []StreamInfo{},
	}
	if parent := k.procs.Get(p.parent); parent != nil {
		info.Parent = parent.pid
	}
	for _, ch := range p.children.Handles() {
		info.Children = append(info.Children, k.procs.Get(ch).pid)
	}
	for _, zh := range p.zombies.Handles() {
		info.Zombies = append(info.Zombies, k.procs.Get(zh).pid)
	}
	for _, th := range p.threads.Handles() {
		t := k.threads.Get(th)
		info.Threads = append(info.Threads, ThreadInfo{
			TID:      th.String(),
			Exited:   t.exited,
			Detached: t.detached,
			ExitVal:  t.exitval,
			Refcount: t.refcount,
			Flow:     uint64(t.flow),
		})
	}
	for fd, f := range p.streams {
		if f != nil {
			info.Streams = append(info.Streams, StreamInfo{FD: fd, Name: f.Name(), Refs: f.Refs()})
		}
	}
	return info
}
