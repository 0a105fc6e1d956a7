package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrOpen is returned while the breaker refuses all calls.
	ErrOpen = errors.New("circuit breaker is open")
	// ErrProbeLimit is returned when the half-open probe quota is spent.
	ErrProbeLimit = errors.New("circuit breaker probe limit reached")
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Options configures a breaker. Zero fields get conservative defaults.
type Options struct {
	// FailureThreshold is the consecutive failure count that trips the
	// breaker open.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// ProbeQuota is how many calls may run half-open; that many
	// consecutive successes close the breaker again.
	ProbeQuota uint32
	// OnStateChange, when set, observes every transition.
	OnStateChange func(name string, from, to State)
}

// Breaker fails fast once a downstream dependency keeps erroring, then
// lets a few probes through after a cooldown before trusting it again.
type Breaker struct {
	name string
	opts Options

	mu        sync.Mutex
	state     State
	failures  uint32
	probes    uint32
	probeHits uint32
	openedAt  time.Time
}

// New creates a closed breaker.
func New(name string, opts Options) *Breaker {
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = 30 * time.Second
	}
	if opts.ProbeQuota == 0 {
		opts.ProbeQuota = 1
	}
	return &Breaker{name: name, opts: opts}
}

// Name returns the breaker's name.
func (b *Breaker) Name() string { return b.name }

// State returns the current position, advancing open→half-open when the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advanceLocked(time.Now())
	return b.state
}

// Do runs fn if the breaker admits it and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advanceLocked(time.Now())
	switch b.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.probes >= b.opts.ProbeQuota {
			return ErrProbeLimit
		}
		b.probes++
	}
	return nil
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if ok {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.opts.FailureThreshold {
			b.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		if !ok {
			b.transitionLocked(StateOpen)
			return
		}
		b.probeHits++
		if b.probeHits >= b.opts.ProbeQuota {
			b.transitionLocked(StateClosed)
		}
	}
}

// advanceLocked moves an expired open breaker to half-open.
func (b *Breaker) advanceLocked(now time.Time) {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.opts.Cooldown {
		b.transitionLocked(StateHalfOpen)
	}
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.failures = 0
	b.probes = 0
	b.probeHits = 0
	if to == StateOpen {
		b.openedAt = time.Now()
	}
	if b.opts.OnStateChange != nil {
		b.opts.OnStateChange(b.name, from, to)
	}
}
