package workload

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/arena"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/manifest"
)

// scriptFailure is the exit status of a script workload whose program
// threw or was interrupted.
const scriptFailure = 255

// scriptEnv bridges one goja program to the kernel surface. Thread
// handles never cross into JavaScript; the program holds small integer
// tokens and the bridge resolves them. The VM is only ever touched by
// the workload's main flow, which already serializes on the kernel
// lock.
type scriptEnv struct {
	env    *kernel.Env
	vm     *goja.Runtime
	tids   []arena.Handle
	logger func(msg string)
}

// bind installs the kernel bindings: spawn, wait, create, join, detach,
// exit and log. Failures surface as JavaScript exceptions.
func (s *scriptEnv) bind() {
	s.vm.Set("spawn", func(exitval int) int {
		pid := s.env.Spawn(func(e *kernel.Env, _ []byte) int {
			e.Yield()
			return exitval
		}, nil)
		return int(pid)
	})

	s.vm.Set("wait", func() map[string]int {
		pid, status, err := s.env.WaitChild()
		if err != nil {
			panic(s.vm.ToValue(err.Error()))
		}
		return map[string]int{"pid": int(pid), "status": status}
	})

	s.vm.Set("create", func(exitval int) int {
		tid := s.env.CreateThread(func(e *kernel.Env, _ []byte) int {
			e.Yield()
			return exitval
		}, nil)
		s.tids = append(s.tids, tid)
		return len(s.tids) - 1
	})

	s.vm.Set("join", func(token int) int {
		v, err := s.env.Join(s.resolve(token))
		if err != nil {
			panic(s.vm.ToValue(err.Error()))
		}
		return v
	})

	s.vm.Set("detach", func(token int) {
		if err := s.env.Detach(s.resolve(token)); err != nil {
			panic(s.vm.ToValue(err.Error()))
		}
	})

	s.vm.Set("exit", func(status int) {
		s.env.ExitProcess(status)
	})

	s.vm.Set("log", func(msg string) {
		s.logger(msg)
	})
}

// resolve maps a script token back to its handle. Out-of-range tokens
// resolve to the zero handle, which every operation rejects.
func (s *scriptEnv) resolve(token int) arena.Handle {
	if token < 0 || token >= len(s.tids) {
		return arena.Zero
	}
	return s.tids[token]
}

// scriptTask wraps a goja program as a workload entry point. The
// program's completion value, when it is a number, becomes the exit
// status; a thrown exception or timeout interrupt yields scriptFailure.
func (r *Runner) scriptTask(w manifest.Workload) kernel.Task {
	program := w.Script
	name := w.Name
	timeout := r.scriptTimeout
	log := r.log

	return func(env *kernel.Env, _ []byte) int {
		vm := goja.New()
		vm.Set("require", goja.Undefined())
		vm.Set("process", goja.Undefined())

		s := &scriptEnv{
			env: env,
			vm:  vm,
			logger: func(msg string) {
				log.Info("Script output",
					zap.String("workload", name),
					zap.String("msg", msg))
			},
		}
		s.bind()

		timer := time.AfterFunc(timeout, func() {
			vm.Interrupt(fmt.Sprintf("script %q exceeded %v", name, timeout))
		})
		defer timer.Stop()

		val, err := vm.RunString(program)
		if err != nil {
			var intr *goja.InterruptedError
			if errors.As(err, &intr) {
				log.Warn("Script interrupted",
					zap.String("workload", name),
					zap.Duration("timeout", timeout))
			} else {
				log.Warn("Script failed",
					zap.String("workload", name),
					zap.Error(err))
			}
			return scriptFailure
		}

		if status, ok := val.Export().(int64); ok {
			return int(status)
		}
		return 0
	}
}
