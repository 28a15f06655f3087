package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] when the call was short-circuited
// without invoking the protected operation.
var ErrOpen = errors.New("circuit breaker open")

// State is the breaker position.
type State uint8

const (
	// StateClosed passes calls through and counts consecutive failures.
	StateClosed State = iota
	// StateOpen short-circuits calls until the reset timeout elapses.
	StateOpen
	// StateHalfOpen admits a bounded number of trial calls.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config holds breaker thresholds. Zero values fall back to the defaults
// (3 consecutive failures to open, 2 consecutive trial successes to close,
// 10s reset timeout).
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 2
	defaultResetTimeout     = 10 * time.Second
)

// Breaker is a named circuit breaker. Safe for concurrent use.
type Breaker struct {
	name string
	cfg  Config

	mu             sync.Mutex
	state          State
	failures       int
	successes      int
	trials         int
	lastTransition time.Time
}

// Snapshot is a point-in-time copy of the breaker state, suitable for
// health endpoints and tests.
type Snapshot struct {
	Name           string
	State          State
	Failures       int
	Successes      int
	LastTransition time.Time
}

// New creates a breaker keyed by operation name.
func New(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = defaultSuccessThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaultResetTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Breaker{
		name:           name,
		cfg:            cfg,
		state:          StateClosed,
		lastTransition: cfg.Now(),
	}
}

// Do runs fn under the breaker. When the breaker is open, fn is not invoked
// and [ErrOpen] is returned. fn's error is returned unchanged otherwise.
func (b *Breaker) Do(fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := fn()
	b.report(err == nil)
	return err
}

// Name returns the operation name this breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current breaker state, applying any pending
// open-to-half-open transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpenLocked()
	return b.state
}

// Snapshot returns a copy of the current breaker counters and state.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpenLocked()
	return Snapshot{
		Name:           b.name,
		State:          b.state,
		Failures:       b.failures,
		Successes:      b.successes,
		LastTransition: b.lastTransition,
	}
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeHalfOpenLocked()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.trials >= b.cfg.SuccessThreshold {
			return ErrOpen
		}
		b.trials++
		return nil
	default:
		return ErrOpen
	}
}

func (b *Breaker) report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		if b.trials > 0 {
			b.trials--
		}
		if !success {
			b.transitionLocked(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transitionLocked(StateClosed)
		}
	case StateOpen:
		// A call admitted before the transition reported late. Failures
		// while open change nothing; a success is ignored too, the next
		// half-open window will re-probe.
	}
}

func (b *Breaker) maybeHalfOpenLocked() {
	if b.state != StateOpen {
		return
	}
	if b.cfg.Now().Sub(b.lastTransition) >= b.cfg.ResetTimeout {
		b.transitionLocked(StateHalfOpen)
	}
}

func (b *Breaker) transitionLocked(next State) {
	b.state = next
	b.failures = 0
	b.successes = 0
	b.trials = 0
	b.lastTransition = b.cfg.Now()
}
