package workload

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/arena"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/manifest"
)

// Workload kinds.
const (
	KindJoinFanin  = "join-fanin"
	KindDetachRace = "detach-race"
	KindTree       = "tree"
	KindScript     = "script"
)

// ErrUnknownKind is returned for a workload kind with no generator.
var ErrUnknownKind = errors.New("unknown workload kind")

// ErrNoScript is returned for a script workload without a program.
var ErrNoScript = errors.New("script workload requires a script")

// Result is the outcome of one executed workload.
type Result struct {
	Name    string        `json:"name"`
	Kind    string        `json:"kind"`
	Status  int           `json:"status"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Runner executes workloads inside a running kernel.
type Runner struct {
	log           *logging.Logger
	scriptTimeout time.Duration
}

// NewRunner creates a runner. Script programs are interrupted after
// scriptTimeout of JavaScript execution.
func NewRunner(log *logging.Logger, scriptTimeout time.Duration) *Runner {
	if log == nil {
		log = logging.NewNop()
	}
	if scriptTimeout <= 0 {
		scriptTimeout = 10 * time.Second
	}
	return &Runner{log: log.Named("workload"), scriptTimeout: scriptTimeout}
}

// Run executes one workload as a child process of env and reaps it.
// Orphans handed over by earlier workloads are reaped along the way.
func (r *Runner) Run(env *kernel.Env, w manifest.Workload) (Result, error) {
	task, err := r.task(w)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	pid := env.Spawn(task, nil)
	r.log.Debug("Workload started",
		zap.String("name", w.Name),
		zap.String("kind", w.Kind),
		zap.Int32("pid", int32(pid)))

	for {
		rpid, status, err := env.WaitChild()
		if err != nil {
			return Result{}, fmt.Errorf("reap workload %q: %w", w.Name, err)
		}
		if rpid != pid {
			r.log.Debug("Reaped stray orphan", zap.Int32("pid", int32(rpid)))
			continue
		}
		res := Result{Name: w.Name, Kind: w.Kind, Status: status, Elapsed: time.Since(start)}
		r.log.Info("Workload finished",
			zap.String("name", w.Name),
			zap.String("kind", w.Kind),
			zap.Int("status", status),
			zap.Duration("elapsed", res.Elapsed))
		return res, nil
	}
}

// RunAll executes a manifest's workloads in order, stopping at the
// first one that cannot run at all.
func (r *Runner) RunAll(env *kernel.Env, m *manifest.Manifest) ([]Result, error) {
	results := make([]Result, 0, len(m.Workloads))
	for _, w := range m.Workloads {
		res, err := r.Run(env, w)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// task builds the entry point for one workload.
func (r *Runner) task(w manifest.Workload) (kernel.Task, error) {
	switch w.Kind {
	case KindJoinFanin:
		return joinFanin(w), nil
	case KindDetachRace:
		return detachRace(w), nil
	case KindTree:
		return tree(w), nil
	case KindScript:
		if w.Script == "" {
			return nil, fmt.Errorf("%q: %w", w.Name, ErrNoScript)
		}
		return r.scriptTask(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, w.Kind)
	}
}

// joinFanin has every joiner collect the same target's exit value: the
// target holds until all joiners are registered, so each one observes
// the value and exactly one of them retires the descriptor.
func joinFanin(w manifest.Workload) kernel.Task {
	n := w.Threads
	if n <= 0 {
		n = 4
	}
	want := w.ExitValue

	return func(env *kernel.Env, _ []byte) int {
		registered := 0
		target := env.CreateThread(func(e *kernel.Env, _ []byte) int {
			for registered < n {
				e.Yield()
			}
			return want
		}, nil)

		tids := make([]arena.Handle, 0, n)
		for i := 0; i < n; i++ {
			tids = append(tids, env.CreateThread(func(e *kernel.Env, _ []byte) int {
				registered++
				v, err := e.Join(target)
				if err != nil || v != want {
					return 1
				}
				return 0
			}, nil))
		}

		bad := 0
		for _, tid := range tids {
			v, err := env.Join(tid)
			if err != nil || v != 0 {
				bad++
			}
		}
		return bad
	}
}

// detachRace detaches a parked target after every joiner is blocked on
// it: each joiner must come back with the detached error, never a
// value.
func detachRace(w manifest.Workload) kernel.Task {
	n := w.Threads
	if n <= 0 {
		n = 4
	}

	return func(env *kernel.Env, _ []byte) int {
		released := false
		armed := 0

		target := env.CreateThread(func(e *kernel.Env, _ []byte) int {
			for !released {
				e.Yield()
			}
			return 0
		}, nil)

		tids := make([]arena.Handle, 0, n)
		for i := 0; i < n; i++ {
			tids = append(tids, env.CreateThread(func(e *kernel.Env, _ []byte) int {
				armed++
				if _, err := e.Join(target); !errors.Is(err, kernel.ErrDetached) {
					return 1
				}
				return 0
			}, nil))
		}

		for armed < n {
			env.Yield()
		}
		if err := env.Detach(target); err != nil {
			released = true
			return n + 1
		}
		released = true

		bad := 0
		for _, tid := range tids {
			v, err := env.Join(tid)
			if err != nil || v != 0 {
				bad++
			}
		}
		return bad
	}
}

// tree grows a process tree and checks the reaped node count: every
// node reports its subtree size, so the root sees exactly the size a
// complete tree of that depth and fanout must have.
func tree(w manifest.Workload) kernel.Task {
	depth := w.Depth
	if depth <= 0 {
		depth = 2
	}
	fanout := w.Fanout
	if fanout <= 0 {
		fanout = 2
	}

	expected := 1
	layer := 1
	for i := 0; i < depth; i++ {
		layer *= fanout
		expected += layer
	}

	return func(env *kernel.Env, _ []byte) int {
		pid := env.Spawn(treeNode(depth, fanout), nil)
		for {
			rpid, count, err := env.WaitChild()
			if err != nil {
				return expected + 1
			}
			if rpid != pid {
				continue
			}
			if count != expected {
				return 1
			}
			return 0
		}
	}
}

// treeNode exits with the size of its subtree.
func treeNode(depth, fanout int) kernel.Task {
	return func(env *kernel.Env, _ []byte) int {
		if depth == 0 {
			return 1
		}
		for i := 0; i < fanout; i++ {
			env.Spawn(treeNode(depth-1, fanout), nil)
		}
		count := 1
		for i := 0; i < fanout; i++ {
			_, sub, err := env.WaitChild()
			if err != nil {
				return count
			}
			count += sub
		}
		return count
	}
}
