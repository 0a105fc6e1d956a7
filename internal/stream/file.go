package stream

import (
	"fmt"
	"sync"
)

// File is one shared open object. Its reference count tracks how many fd
// slots point at it; the close hook runs exactly once, when the count
// reaches zero.
//
// File carries its own small mutex so refcounting is safe from any
// context, not just under the kernel lock.
type File struct {
	mu      sync.Mutex
	name    string
	refs    int
	closed  bool
	onClose func()
}

// New creates an open file with one reference and no close hook.
func New(name string) *File {
	return NewWithCloser(name, nil)
}

// NewWithCloser creates an open file with one reference. The hook runs
// when the last reference is dropped.
func NewWithCloser(name string, onClose func()) *File {
	return &File{name: name, refs: 1, onClose: onClose}
}

// Name returns the display name of the file.
func (f *File) Name() string { return f.name }

// Incref takes an additional reference. Taking a reference on a closed
// file panics: the caller holds a slot that was already released.
func (f *File) Incref() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		panic(fmt.Sprintf("stream: incref of closed file %q", f.name))
	}
	f.refs++
}

// Decref drops one reference and reports whether this drop closed the
// file. Dropping past zero panics.
func (f *File) Decref() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.refs <= 0 {
		panic(fmt.Sprintf("stream: decref past zero on file %q", f.name))
	}
	f.refs--
	if f.refs > 0 {
		return false
	}
	f.closed = true
	if f.onClose != nil {
		f.onClose()
	}
	return true
}

// Refs returns the current reference count.
func (f *File) Refs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs
}

// Closed reports whether the file has been closed.
func (f *File) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
