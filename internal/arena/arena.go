package arena

import "fmt"

// ============================================================================
// Handles
// ============================================================================

// Handle references an arena slot. The low 32 bits hold the slot index and
// the high 32 bits the slot generation observed at allocation. The zero
// Handle is never returned by Alloc and always fails Get.
type Handle uint64

// Zero is the invalid handle.
const Zero Handle = 0

// nilIdx marks an empty link endpoint.
const nilIdx = ^uint32(0)

func makeHandle(idx, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(idx))
}

func (h Handle) index() uint32      { return uint32(h) }
func (h Handle) generation() uint32 { return uint32(h >> 32) }

// IsZero reports whether h is the invalid handle.
func (h Handle) IsZero() bool { return h == Zero }

// String renders the handle as index:generation.
func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.index(), h.generation())
}

// ============================================================================
// Arena
// ============================================================================

type link struct {
	prev, next uint32
}

type slot[T any] struct {
	value  T
	gen    uint32
	live   bool
	linked []bool
	links  []link
}

// Arena stores values of type T in generation-tagged slots. It is not
// safe for concurrent use; callers serialize access externally.
//
// Slot addresses are stable for the life of the arena: a pointer obtained
// from Get stays valid across later allocations. It goes stale in content,
// not in memory, once the slot is freed; the handle is the authority on
// liveness.
type Arena[T any] struct {
	slots []*slot[T]
	free  []uint32
	roles int
	live  int
}

// New returns an empty arena whose slots carry the given number of link
// roles.
func New[T any](roles int) *Arena[T] {
	if roles < 0 {
		panic("arena: negative role count")
	}
	return &Arena[T]{roles: roles}
}

// Alloc claims a slot and returns its handle together with a pointer to
// the zeroed value. Freed slots are reused under a new generation.
func (a *Arena[T]) Alloc() (Handle, *T) {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, &slot[T]{
			gen:    1,
			linked: make([]bool, a.roles),
			links:  make([]link, a.roles),
		})
	}
	s := a.slots[idx]
	s.live = true
	for r := 0; r < a.roles; r++ {
		s.linked[r] = false
		s.links[r] = link{prev: nilIdx, next: nilIdx}
	}
	a.live++
	return makeHandle(idx, s.gen), &s.value
}

// Get resolves a handle to its value. It returns nil when the handle is
// zero, out of range, stale, or names a freed slot.
func (a *Arena[T]) Get(h Handle) *T {
	s := a.lookup(h)
	if s == nil {
		return nil
	}
	return &s.value
}

// Free retires the slot named by h, advancing its generation so the handle
// goes stale. It reports false when the handle no longer resolves, making
// the second of two racing frees a no-op. Freeing a slot that is still
// linked in any list panics.
func (a *Arena[T]) Free(h Handle) bool {
	s := a.lookup(h)
	if s == nil {
		return false
	}
	for r := 0; r < a.roles; r++ {
		if s.linked[r] {
			panic(fmt.Sprintf("arena: free of slot %s still linked in role %d", h, r))
		}
	}
	var zero T
	s.value = zero
	s.live = false
	s.gen++
	a.live--
	a.free = append(a.free, h.index())
	return true
}

// Live returns the number of allocated slots, the probe behind
// exactly-once free checks.
func (a *Arena[T]) Live() int { return a.live }

// Cap returns the total number of slots ever created.
func (a *Arena[T]) Cap() int { return len(a.slots) }

func (a *Arena[T]) lookup(h Handle) *slot[T] {
	idx := h.index()
	if h.IsZero() || int(idx) >= len(a.slots) {
		return nil
	}
	s := a.slots[idx]
	if !s.live || s.gen != h.generation() {
		return nil
	}
	return s
}

// handleAt rebuilds the handle for a live slot index.
func (a *Arena[T]) handleAt(idx uint32) Handle {
	return makeHandle(idx, a.slots[idx].gen)
}
