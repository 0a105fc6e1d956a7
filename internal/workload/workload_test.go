package workload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/manifest"
)

// run executes one workload under a fresh kernel and returns its result.
func run(t *testing.T, w manifest.Workload) Result {
	t.Helper()

	r := NewRunner(nil, time.Second)
	k := kernel.New(kernel.Config{})

	var (
		res    Result
		runErr error
	)
	k.Run(func(env *kernel.Env, _ []byte) int {
		res, runErr = r.Run(env, w)
		return 0
	}, nil)

	require.NoError(t, runErr)
	return res
}

func TestJoinFaninWorkload(t *testing.T) {
	res := run(t, manifest.Workload{
		Kind:      KindJoinFanin,
		Name:      "fanin",
		Threads:   8,
		ExitValue: 5,
	})
	assert.Zero(t, res.Status)
	assert.Equal(t, KindJoinFanin, res.Kind)
}

func TestDetachRaceWorkload(t *testing.T) {
	res := run(t, manifest.Workload{
		Kind:    KindDetachRace,
		Name:    "race",
		Threads: 6,
	})
	assert.Zero(t, res.Status)
}

func TestTreeWorkload(t *testing.T) {
	res := run(t, manifest.Workload{
		Kind:   KindTree,
		Name:   "tree",
		Depth:  2,
		Fanout: 3,
	})
	assert.Zero(t, res.Status)
}

func TestScriptWorkload(t *testing.T) {
	t.Run("join collects the thread value", func(t *testing.T) {
		res := run(t, manifest.Workload{
			Kind:   KindScript,
			Name:   "script",
			Script: `var t = create(3); var v = join(t); log("joined " + v); v`,
		})
		assert.Equal(t, 3, res.Status)
	})

	t.Run("spawn and wait reap a child", func(t *testing.T) {
		res := run(t, manifest.Workload{
			Kind:   KindScript,
			Name:   "script",
			Script: `var pid = spawn(4); var r = wait(); r.status`,
		})
		assert.Equal(t, 4, res.Status)
	})

	t.Run("detach makes join throw", func(t *testing.T) {
		res := run(t, manifest.Workload{
			Kind: KindScript,
			Name: "script",
			Script: `
				var t = create(1);
				detach(t);
				var failed = 0;
				try { join(t); } catch (e) { failed = 9; }
				failed`,
		})
		assert.Equal(t, 9, res.Status)
	})

	t.Run("uncaught exception fails the workload", func(t *testing.T) {
		res := run(t, manifest.Workload{
			Kind:   KindScript,
			Name:   "script",
			Script: `join(99)`,
		})
		assert.Equal(t, scriptFailure, res.Status)
	})
}

func TestTaskRejectsBadWorkloads(t *testing.T) {
	r := NewRunner(nil, time.Second)

	_, err := r.task(manifest.Workload{Kind: "warp", Name: "w"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = r.task(manifest.Workload{Kind: KindScript, Name: "s"})
	assert.ErrorIs(t, err, ErrNoScript)
}

func TestRunAllExecutesInOrder(t *testing.T) {
	r := NewRunner(nil, time.Second)
	k := kernel.New(kernel.Config{})
	m := &manifest.Manifest{
		Scenario: "mixed",
		Workloads: []manifest.Workload{
			{Kind: KindJoinFanin, Name: "a", Threads: 3, ExitValue: 1},
			{Kind: KindTree, Name: "b", Depth: 1, Fanout: 2},
		},
	}

	var (
		results []Result
		runErr  error
	)
	k.Run(func(env *kernel.Env, _ []byte) int {
		results, runErr = r.RunAll(env, m)
		return 0
	}, nil)

	require.NoError(t, runErr)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, "b", results[1].Name)
	for _, res := range results {
		assert.Zero(t, res.Status)
	}
}
