// Package circuit counts consecutive failures of a dependency and reports
// when callers should switch to a fallback path.
package circuit

import "sync"

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Breaker opens after failureThreshold consecutive failures and closes
// again after successThreshold consecutive successes while open.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{name: name, failureThreshold: 5, successThreshold: 3}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failure records a failed call. open reports whether the fallback should
// be used; opened is true only on the call that tripped the breaker.
func (b *Breaker) Failure() (open, opened bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.successes = 0
	if b.state == StateOpen {
		return true, false
	}
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		return true, true
	}
	return false, false
}

// Success records a successful call. closed is true only on the call that
// closed an open breaker.
func (b *Breaker) Success() (closed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		b.failures = 0
		return false
	}
	b.successes++
	if b.successes < b.successThreshold {
		return false
	}
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	return true
}
