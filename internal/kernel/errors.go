package kernel

import "errors"

// Failure values returned by lifecycle operations. Callers branch with
// errors.Is. An operation that fails leaves kernel state untouched,
// except for Join's bookkeeping after it has blocked.
var (
	ErrNoSuchThread  = errors.New("no such thread in calling process")
	ErrJoinSelf      = errors.New("thread cannot join itself")
	ErrDetached      = errors.New("thread is detached")
	ErrAlreadyExited = errors.New("thread has already exited")
	ErrNoSuchProcess = errors.New("no such process")
	ErrNoChildren    = errors.New("process has no children")
	ErrFdTableFull   = errors.New("fd table is full")
	ErrBadFd         = errors.New("bad file descriptor")
)
