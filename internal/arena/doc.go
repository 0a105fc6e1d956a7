// Package arena provides generational slot storage for kernel descriptors.
//
// Descriptors live in fixed slots addressed by Handles. A Handle packs the
// slot index together with the slot's generation at allocation time, so a
// handle kept past the descriptor's free is detected on dereference instead
// of silently aliasing whatever reused the slot.
//
// Key Components:
//   - Arena: slot allocator with generation tagging and a live-slot probe
//   - Handle: 64-bit slot reference (index + generation)
//   - List: doubly-linked collection threaded through slot link fields
//
// Lists replace intrusive pointer nodes: each slot carries a small fixed
// set of link roles, and a List binds one role to one owner collection.
// A slot may sit in at most one list per role at a time, and freeing a
// slot that is still linked panics.
//
// Example Usage:
//
//	a := arena.New[item](1)
//	h, it := a.Alloc()
//	it.value = 42
//	l := arena.NewList(a, 0)
//	l.PushBack(h)
package arena
