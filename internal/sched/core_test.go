package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
)

func TestFlowRunsOnlyAfterReady(t *testing.T) {
	c := New(logging.NewNop())

	ran := make(chan struct{})
	f := c.Spawn(func() {
		close(ran)
		c.ExitCurrent()
	})

	select {
	case <-ran:
		t.Fatal("flow ran before Ready")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 1, c.LiveFlows())

	f.Ready()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("flow did not run after Ready")
	}

	c.WaitIdle()
	assert.Equal(t, 0, c.LiveFlows())
}

func TestFlowIDsAreDistinct(t *testing.T) {
	c := New(nil)

	f1 := c.Spawn(func() { c.ExitCurrent() })
	f2 := c.Spawn(func() { c.ExitCurrent() })
	assert.NotEqual(t, f1.ID, f2.ID)

	f1.Ready()
	f2.Ready()
	c.WaitIdle()
}

func TestCondWaitBlocksUntilBroadcast(t *testing.T) {
	c := New(nil)
	cond := c.NewCond()

	state := 0
	observed := 0

	waiter := c.Spawn(func() {
		for state == 0 {
			cond.Wait()
		}
		observed = state
		c.ExitCurrent()
	})
	setter := c.Spawn(func() {
		state = 7
		cond.Broadcast()
		c.ExitCurrent()
	})

	waiter.Ready()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 2, c.LiveFlows(), "waiter must still be blocked")

	setter.Ready()
	c.WaitIdle()
	assert.Equal(t, 7, observed)
}

func TestBroadcastWakesEveryWaiter(t *testing.T) {
	c := New(nil)
	cond := c.NewCond()

	const n = 8
	state := 0
	woke := 0

	for i := 0; i < n; i++ {
		f := c.Spawn(func() {
			for state == 0 {
				cond.Wait()
			}
			woke++
			c.ExitCurrent()
		})
		f.Ready()
	}

	setter := c.Spawn(func() {
		state = 1
		cond.Broadcast()
		c.ExitCurrent()
	})
	setter.Ready()

	c.WaitIdle()
	assert.Equal(t, n, woke)
}

func TestYieldLetsOtherFlowsRun(t *testing.T) {
	c := New(nil)

	flag := false
	spins := 0

	spinner := c.Spawn(func() {
		for !flag {
			spins++
			c.Yield()
		}
		c.ExitCurrent()
	})
	setter := c.Spawn(func() {
		flag = true
		c.ExitCurrent()
	})

	spinner.Ready()
	setter.Ready()

	c.WaitIdle()
	assert.True(t, flag)
	assert.GreaterOrEqual(t, spins, 1)
}

func TestObserverLockExcludesFlows(t *testing.T) {
	c := New(nil)

	value := 0
	f := c.Spawn(func() {
		value = 1
		c.ExitCurrent()
	})

	c.Lock()
	f.Ready()
	time.Sleep(20 * time.Millisecond)
	read := value
	c.Unlock()

	require.Equal(t, 0, read, "flow must not run while an observer holds the lock")

	c.WaitIdle()
	assert.Equal(t, 1, value)
}
