package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards one upstream. After FailureThreshold consecutive failures it rejects
// calls for OpenTimeout, then lets HalfOpenMaxReq probes through before closing again.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig

	mu             sync.Mutex
	state          CircuitState
	failures       int
	openedAt       time.Time
	probesInFlight int
	probesPassed   int
	now            func() time.Time
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		state: CircuitStateClosed,
		now:   time.Now,
	}
}

func (b *CircuitBreaker) Name() string {
	return b.name
}

func (b *CircuitBreaker) Enabled() bool {
	return b != nil && b.cfg.Enabled
}

// Allow reports whether a call may proceed. Every admitted call must be followed by Record.
func (b *CircuitBreaker) Allow() error {
	if !b.Enabled() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.OpenTimeout {
			return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
		}
		b.moveTo(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.probesInFlight >= b.cfg.HalfOpenMaxReq {
			return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
		}
		b.probesInFlight++
	}
	return nil
}

// Record feeds the outcome of an admitted call. Only failures the caller deems transient should pass failed=true.
func (b *CircuitBreaker) Record(failed bool) {
	if !b.Enabled() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.moveTo(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		if b.probesInFlight > 0 {
			b.probesInFlight--
		}
		if failed {
			b.moveTo(CircuitStateOpen)
			return
		}
		b.probesPassed++
		if b.probesPassed >= b.cfg.HalfOpenMaxReq && b.probesInFlight == 0 {
			b.moveTo(CircuitStateClosed)
		}
	case CircuitStateOpen:
		if failed {
			b.openedAt = b.now()
		}
	}
}

// State reports half-open once the open timeout has elapsed, even before the next Allow.
func (b *CircuitBreaker) State() CircuitState {
	if !b.Enabled() {
		return CircuitStateClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) moveTo(next CircuitState) {
	prev := b.state
	b.state = next
	b.probesInFlight = 0
	b.probesPassed = 0
	switch next {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}
	if b.cfg.OnTransition != nil && prev != next {
		b.cfg.OnTransition(prev, next)
	}
}
