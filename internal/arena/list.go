package arena

import "fmt"

// ============================================================================
// Linked collections
// ============================================================================

// List is a doubly-linked collection threaded through one link role of an
// arena's slots. Lists are value types intended to live inside owning
// descriptors; all mutation goes through pointer receivers.
//
// An element belongs to at most one list per role. Remove and Splice trust
// the caller to pass the list the element actually sits in; the linked
// flag catches cross-role misuse but not two lists sharing a role.
type List[T any] struct {
	a          *Arena[T]
	role       int
	head, tail uint32
	size       int
}

// NewList binds a list to one link role of the arena.
func NewList[T any](a *Arena[T], role int) List[T] {
	if role < 0 || role >= a.roles {
		panic(fmt.Sprintf("arena: list role %d out of range", role))
	}
	return List[T]{a: a, role: role, head: nilIdx, tail: nilIdx}
}

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool { return l.size == 0 }

// Len returns the element count.
func (l *List[T]) Len() int { return l.size }

// PushBack appends the slot named by h.
func (l *List[T]) PushBack(h Handle) {
	idx, s := l.claim(h)
	s.links[l.role] = link{prev: l.tail, next: nilIdx}
	if l.tail != nilIdx {
		l.a.slots[l.tail].links[l.role].next = idx
	} else {
		l.head = idx
	}
	l.tail = idx
	l.size++
}

// PushFront prepends the slot named by h.
func (l *List[T]) PushFront(h Handle) {
	idx, s := l.claim(h)
	s.links[l.role] = link{prev: nilIdx, next: l.head}
	if l.head != nilIdx {
		l.a.slots[l.head].links[l.role].prev = idx
	} else {
		l.tail = idx
	}
	l.head = idx
	l.size++
}

// Remove unlinks the slot named by h from this list.
func (l *List[T]) Remove(h Handle) {
	s := l.a.lookup(h)
	if s == nil {
		panic(fmt.Sprintf("arena: remove of dead handle %s", h))
	}
	if !s.linked[l.role] {
		panic(fmt.Sprintf("arena: remove of unlinked handle %s in role %d", h, l.role))
	}
	lk := s.links[l.role]
	if lk.prev != nilIdx {
		l.a.slots[lk.prev].links[l.role].next = lk.next
	} else {
		l.head = lk.next
	}
	if lk.next != nilIdx {
		l.a.slots[lk.next].links[l.role].prev = lk.prev
	} else {
		l.tail = lk.prev
	}
	s.linked[l.role] = false
	s.links[l.role] = link{prev: nilIdx, next: nilIdx}
	l.size--
}

// PopFront unlinks and returns the first element, if any.
func (l *List[T]) PopFront() (Handle, bool) {
	if l.head == nilIdx {
		return Zero, false
	}
	h := l.a.handleAt(l.head)
	l.Remove(h)
	return h, true
}

// Contains reports whether h is an element of this list.
func (l *List[T]) Contains(h Handle) bool {
	s := l.a.lookup(h)
	if s == nil || !s.linked[l.role] {
		return false
	}
	for i := l.head; i != nilIdx; i = l.a.slots[i].links[l.role].next {
		if i == h.index() {
			return true
		}
	}
	return false
}

// Handles snapshots the elements in list order.
func (l *List[T]) Handles() []Handle {
	out := make([]Handle, 0, l.size)
	for i := l.head; i != nilIdx; i = l.a.slots[i].links[l.role].next {
		out = append(out, l.a.handleAt(i))
	}
	return out
}

// Splice moves every element of src onto the tail of l, leaving src
// empty. Both lists must share the same arena and role.
func (l *List[T]) Splice(src *List[T]) {
	if l.a != src.a || l.role != src.role {
		panic("arena: splice across arenas or roles")
	}
	if src.size == 0 {
		return
	}
	if l.tail != nilIdx {
		l.a.slots[l.tail].links[l.role].next = src.head
		l.a.slots[src.head].links[l.role].prev = l.tail
	} else {
		l.head = src.head
	}
	l.tail = src.tail
	l.size += src.size
	src.head, src.tail, src.size = nilIdx, nilIdx, 0
}

func (l *List[T]) claim(h Handle) (uint32, *slot[T]) {
	s := l.a.lookup(h)
	if s == nil {
		panic(fmt.Sprintf("arena: push of dead handle %s", h))
	}
	if s.linked[l.role] {
		panic(fmt.Sprintf("arena: push of already linked handle %s in role %d", h, l.role))
	}
	s.linked[l.role] = true
	return h.index(), s
}
