package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	n int
}

func TestAllocAndGet(t *testing.T) {
	a := New[item](1)

	h, it := a.Alloc()
	require.False(t, h.IsZero())
	require.NotNil(t, it)

	it.n = 42
	got := a.Get(h)
	require.NotNil(t, got)
	assert.Equal(t, 42, got.n)
	assert.Equal(t, 1, a.Live())
}

func TestGetRejectsZeroAndOutOfRange(t *testing.T) {
	a := New[item](0)

	assert.Nil(t, a.Get(Zero))
	assert.Nil(t, a.Get(makeHandle(7, 1)))
	assert.False(t, a.Free(Zero))
}

func TestFreeMakesHandleStale(t *testing.T) {
	a := New[item](1)
	h, it := a.Alloc()
	it.n = 7

	require.True(t, a.Free(h))
	assert.Nil(t, a.Get(h), "freed handle must not resolve")
	assert.Equal(t, 0, a.Live())

	t.Run("second free is a no-op", func(t *testing.T) {
		assert.False(t, a.Free(h))
		assert.Equal(t, 0, a.Live())
	})

	t.Run("reuse under new generation", func(t *testing.T) {
		h2, it2 := a.Alloc()
		require.NotNil(t, it2)
		assert.Equal(t, 0, it2.n, "reused slot must be zeroed")
		assert.NotEqual(t, h, h2)
		assert.Nil(t, a.Get(h), "old handle stays stale after reuse")
		assert.NotNil(t, a.Get(h2))
	})
}

func TestLiveTracksAllocations(t *testing.T) {
	a := New[item](0)

	var handles []Handle
	for i := 0; i < 10; i++ {
		h, _ := a.Alloc()
		handles = append(handles, h)
	}
	assert.Equal(t, 10, a.Live())
	assert.Equal(t, 10, a.Cap())

	for _, h := range handles[:4] {
		require.True(t, a.Free(h))
	}
	assert.Equal(t, 6, a.Live())
	assert.Equal(t, 10, a.Cap(), "capacity keeps tombstoned slots")
}

func TestFreeWhileLinkedPanics(t *testing.T) {
	a := New[item](1)
	l := NewList(a, 0)

	h, _ := a.Alloc()
	l.PushBack(h)

	assert.Panics(t, func() { a.Free(h) })

	l.Remove(h)
	assert.True(t, a.Free(h))
}

func TestPointersSurviveGrowth(t *testing.T) {
	a := New[item](0)

	h, it := a.Alloc()
	for i := 0; i < 1000; i++ {
		a.Alloc()
	}

	it.n = 5
	got := a.Get(h)
	require.NotNil(t, got)
	assert.Same(t, it, got)
	assert.Equal(t, 5, got.n)
}

func TestHandleString(t *testing.T) {
	a := New[item](0)
	h, _ := a.Alloc()
	assert.Equal(t, "0:1", h.String())
}
