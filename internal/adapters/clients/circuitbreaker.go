package clients

import (
	"sync"
	"time"
)

// State is the position of a Breaker.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects requests until the cool-down elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe requests through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures int

	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration

	// Probes is both the number of concurrent half-open requests allowed and
	// the number of consecutive probe successes needed to close again.
	Probes int
}

// Breaker guards the quote source. Consecutive failures open it so a dead
// upstream fails fast instead of stacking up slow fetches.
//
//	closed    --MaxFailures failures--> open
//	open      --Cooldown elapsed------> half-open
//	half-open --Probes successes------> closed
//	half-open --any failure-----------> open
type Breaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	state    State
	streak   int // consecutive failures (closed) or successes (half-open)
	inFlight int // probes outstanding in half-open
	openedAt time.Time
	notify   func(from, to State)
	now      func() time.Time
}

// NewBreaker creates a closed Breaker. Zero limits are raised to one.
func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.Probes = max(cfg.Probes, 1)

	return &Breaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to be called, on its own goroutine, after each
// transition.
func (b *Breaker) OnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.notify = fn
}

// Allow reports whether a request may proceed. A true result must be paired
// with exactly one call to Report or Release.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false
		}

		b.moveTo(StateHalfOpen)
	}

	if b.state == StateHalfOpen {
		if b.inFlight >= b.cfg.Probes {
			return false
		}

		b.inFlight++
	}

	return true
}

// Report records the outcome of a request admitted by Allow.
func (b *Breaker) Report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if success {
			b.streak = 0
			return
		}

		b.streak++
		if b.streak >= b.cfg.MaxFailures {
			b.moveTo(StateOpen)
		}

	case StateHalfOpen:
		b.inFlight = max(b.inFlight-1, 0)

		if !success {
			b.moveTo(StateOpen)
			return
		}

		b.streak++
		if b.streak >= b.cfg.Probes {
			b.moveTo(StateClosed)
		}

	case StateOpen:
		// Late result from before the breaker opened.
	}
}

// Release returns an admission without recording an outcome, for requests
// the caller abandoned.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.inFlight = max(b.inFlight-1, 0)
	}
}

// State returns the current state without triggering a transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// moveTo must be called with mu held.
func (b *Breaker) moveTo(next State) {
	if b.state == next {
		return
	}

	prev := b.state
	b.state = next
	b.streak = 0
	b.inFlight = 0

	if next == StateOpen {
		b.openedAt = b.now()
	}

	if b.notify != nil {
		go b.notify(prev, next)
	}
}
