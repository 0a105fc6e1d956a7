package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/stream"
)

func TestSpawnAndWaitChild(t *testing.T) {
	k := New(Config{})

	var (
		childPid   PID
		reapedPid  PID
		reapedVal  int
		reapErr    error
		noChildErr error
	)
	k.Run(func(env *Env, _ []byte) int {
		childPid = env.Spawn(func(*Env, []byte) int { return 12 }, nil)
		reapedPid, reapedVal, reapErr = env.WaitChild()
		_, _, noChildErr = env.WaitChild()
		return 0
	}, nil)

	require.NoError(t, reapErr)
	assert.Equal(t, PID(2), childPid)
	assert.Equal(t, childPid, reapedPid)
	assert.Equal(t, 12, reapedVal)
	assert.ErrorIs(t, noChildErr, ErrNoChildren)

	_, err := k.Process(childPid)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
	assert.Len(t, k.Processes(), 1)
}

func TestWaitChildFailsWithoutChildren(t *testing.T) {
	k := New(Config{})

	var err error
	k.Run(func(env *Env, _ []byte) int {
		_, _, err = env.WaitChild()
		return 0
	}, nil)

	assert.ErrorIs(t, err, ErrNoChildren)
}

func TestSpawnCopiesArguments(t *testing.T) {
	k := New(Config{})

	var childSaw string
	k.Run(func(env *Env, _ []byte) int {
		buf := []byte("hello")
		env.Spawn(func(_ *Env, args []byte) int {
			childSaw = string(args)
			return 0
		}, buf)
		buf[0] = 'X'
		env.WaitChild()
		return 0
	}, nil)

	assert.Equal(t, "hello", childSaw)
}

func TestBootPassesArguments(t *testing.T) {
	k := New(Config{})

	var rootSaw string
	k.Run(func(_ *Env, args []byte) int {
		rootSaw = string(args)
		return 0
	}, []byte("init=1"))

	assert.Equal(t, "init=1", rootSaw)
}

func TestZombieHeldUntilReaped(t *testing.T) {
	k := New(Config{})

	var (
		zombieState    ProcState
		zombieThreads  int
		registered     bool
		liveBeforeReap int
		liveAfterReap  int
	)
	k.Run(func(env *Env, _ []byte) int {
		pid := env.Spawn(func(*Env, []byte) int { return 3 }, nil)
		for {
			h := env.k.byPID[pid]
			if env.k.procs.Get(h).state == StateZombie {
				break
			}
			env.Yield()
		}

		h := env.k.byPID[pid]
		_, registered = env.k.byPID[pid]
		zombieState = env.k.procs.Get(h).state
		zombieThreads = env.k.procs.Get(h).threadCount
		liveBeforeReap = env.k.procs.Live()

		env.WaitChild()
		_, stillThere := env.k.byPID[pid]
		registered = registered && !stillThere
		liveAfterReap = env.k.procs.Live()
		return 0
	}, nil)

	assert.Equal(t, StateZombie, zombieState)
	assert.Zero(t, zombieThreads)
	assert.True(t, registered, "pid should be registered until reaped, then gone")
	assert.Equal(t, 2, liveBeforeReap)
	assert.Equal(t, 1, liveAfterReap)
}

func TestStreamLifecycle(t *testing.T) {
	t.Run("shared object closes exactly once", func(t *testing.T) {
		k := New(Config{})

		closes := 0
		var openAtPeak int
		k.Run(func(env *Env, _ []byte) int {
			f := stream.NewWithCloser("trace", func() { closes++ })
			fd, _ := env.Install(f)
			fd2, _ := env.Dup(fd)

			env.Spawn(func(e *Env, _ []byte) int {
				e.Close(fd)
				return 0
			}, nil)
			env.WaitChild()

			openAtPeak = env.k.openStreams
			env.Close(fd)
			env.Close(fd2)
			return 0
		}, nil)

		assert.Equal(t, 1, closes)
		assert.Equal(t, 1, openAtPeak)
		assert.Zero(t, k.Counts().StreamsOpen)
	})

	t.Run("close rejects bad descriptors", func(t *testing.T) {
		k := New(Config{})
		var negative, huge, vacant, double error
		k.Run(func(env *Env, _ []byte) int {
			negative = env.Close(-1)
			huge = env.Close(MaxStreams)
			vacant = env.Close(3)
			fd, _ := env.Open("tmp")
			env.Close(fd)
			double = env.Close(fd)
			return 0
		}, nil)
		assert.ErrorIs(t, negative, ErrBadFd)
		assert.ErrorIs(t, huge, ErrBadFd)
		assert.ErrorIs(t, vacant, ErrBadFd)
		assert.ErrorIs(t, double, ErrBadFd)
	})

	t.Run("table fills up", func(t *testing.T) {
		k := New(Config{})
		var full error
		opened := 0
		k.Run(func(env *Env, _ []byte) int {
			for i := 0; i < MaxStreams; i++ {
				if _, err := env.Open("slot"); err == nil {
					opened++
				}
			}
			_, full = env.Open("overflow")
			return 0
		}, nil)
		assert.Equal(t, MaxStreams, opened)
		assert.ErrorIs(t, full, ErrFdTableFull)
	})

	t.Run("dup shares the object", func(t *testing.T) {
		k := New(Config{})
		var refsAfterDup, refsAfterClose int
		var dupBad error
		k.Run(func(env *Env, _ []byte) int {
			f := stream.New("log")
			fd, _ := env.Install(f)
			env.Dup(fd)
			refsAfterDup = f.Refs()
			env.Close(fd)
			refsAfterClose = f.Refs()
			_, dupBad = env.Dup(7)
			return 0
		}, nil)
		assert.Equal(t, 2, refsAfterDup)
		assert.Equal(t, 1, refsAfterClose)
		assert.ErrorIs(t, dupBad, ErrBadFd)
	})
}

func TestExitProcessRootDrainsChildren(t *testing.T) {
	k := New(Config{})

	status := k.Run(func(env *Env, _ []byte) int {
		for i := 0; i < 3; i++ {
			i := i
			env.Spawn(func(e *Env, _ []byte) int {
				for n := 0; n < i+1; n++ {
					e.Yield()
				}
				return i
			}, nil)
		}
		env.ExitProcess(11)
		return 0
	}, nil)

	assert.Equal(t, 11, status)
	assert.Len(t, k.Processes(), 1)
	assert.Equal(t, 1, k.Counts().ProcessesLive)
}
